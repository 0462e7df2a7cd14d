package demand

import (
	"reflect"
	"testing"

	"github.com/erazemk/trznica/internal/model"
)

func TestVisibilityFilter(t *testing.T) {
	tests := []struct {
		role     string
		wantSQL  string
		wantArgs []any
	}{
		{model.RoleAdmin, "1 = 1", nil},
		{model.RoleBuyer, "d.buyer_id = ?", []any{"u1"}},
		{model.RoleFarmer, "(d.status = ?) OR (d.seller_id = ?)", []any{"open", "u1"}},
		{model.RoleAnonymous, "d.status = ?", []any{"open"}},
		{"", "1 = 0", nil},
		{"root", "1 = 0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			sql, args := VisibilityFilter(tt.role, "u1").SQL()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestFilterExpr(t *testing.T) {
	sql, args := Filter{}.Expr().SQL()
	if sql != "1 = 1" || args != nil {
		t.Errorf("empty filter = %q %v", sql, args)
	}

	sql, args = Filter{Status: "open", Commodity: "corn"}.Expr().SQL()
	if sql != "(d.status = ?) AND (d.commodity = ?)" {
		t.Errorf("unexpected sql %q", sql)
	}
	if !reflect.DeepEqual(args, []any{"open", "corn"}) {
		t.Errorf("unexpected args %v", args)
	}
}
