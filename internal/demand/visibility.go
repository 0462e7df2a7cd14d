package demand

import (
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// VisibilityFilter returns the constraint on which demands a caller with role
// and identity may list. Unknown roles see nothing.
func VisibilityFilter(role, identity string) store.Expr {
	switch role {
	case model.RoleAdmin:
		return store.All()
	case model.RoleBuyer:
		return store.Eq(store.ColBuyer, identity)
	case model.RoleFarmer:
		return store.Or(
			store.Eq(store.ColStatus, model.DemandStatusOpen),
			store.Eq(store.ColSeller, identity),
		)
	case model.RoleAnonymous:
		return store.Eq(store.ColStatus, model.DemandStatusOpen)
	}
	return store.None()
}

// Filter is the caller-supplied part of a list query.
type Filter struct {
	Status    string `json:"status" validate:"omitempty,oneof=open accepted rejected cancelled"`
	Commodity string `json:"commodity"`
}

// Expr converts f to a store expression.
func (f Filter) Expr() store.Expr {
	var parts []store.Expr
	if f.Status != "" {
		parts = append(parts, store.Eq(store.ColStatus, f.Status))
	}
	if f.Commodity != "" {
		parts = append(parts, store.Eq(store.ColCommodity, f.Commodity))
	}
	return store.And(parts...)
}
