package validate

import "testing"

type sample struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Quantity float64  `json:"quantity" validate:"gt=0"`
	Role     string   `json:"role" validate:"omitempty,oneof=buyer farmer"`
	Password string   `json:"password" validate:"omitempty,min=8"`
	Limit    int      `json:"limit" validate:"omitempty,lte=200"`
	Offer    *float64 `json:"priceOffer" validate:"omitempty,gt=0"`
}

func TestStruct(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"ok", sample{Name: "a", Quantity: 1}, ""},
		{"required", sample{Quantity: 1}, "name is required"},
		{"email", sample{Name: "a", Quantity: 1, Email: "nope"}, "email must be a valid email address"},
		{"gt", sample{Name: "a"}, "quantity must be greater than 0"},
		{"oneof", sample{Name: "a", Quantity: 1, Role: "admin"}, "role must be one of: buyer, farmer"},
		{"min string", sample{Name: "a", Quantity: 1, Password: "short"}, "password must be at least 8 characters"},
		{"lte", sample{Name: "a", Quantity: 1, Limit: 500}, "limit must be at most 200"},
		{"pointer", sample{Name: "a", Quantity: 1, Offer: &neg}, "priceOffer must be greater than 0"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Errorf("got %v, want %q", err, tt.want)
			}
		})
	}
}
