package store

import "strings"

// Column is a demand column a filter may constrain.
type Column string

// Filterable demand columns.
const (
	ColStatus    Column = "d.status"
	ColCommodity Column = "d.commodity"
	ColBuyer     Column = "d.buyer_id"
	ColSeller    Column = "d.seller_id"
)

// Expr is a boolean filter over demands. The zero value matches every row.
type Expr struct {
	sql  string
	args []any
}

// All matches every demand.
func All() Expr { return Expr{} }

// None matches no demand.
func None() Expr { return Expr{sql: "1 = 0"} }

// Eq matches rows where col equals v.
func Eq(col Column, v any) Expr {
	return Expr{sql: string(col) + " = ?", args: []any{v}}
}

// IsAll reports whether e places no constraint.
func (e Expr) IsAll() bool { return e.sql == "" }

// And matches rows that satisfy every operand.
func And(exprs ...Expr) Expr {
	var kept []Expr
	for _, e := range exprs {
		if !e.IsAll() {
			kept = append(kept, e)
		}
	}
	return join(kept, " AND ", All())
}

// Or matches rows that satisfy at least one operand.
func Or(exprs ...Expr) Expr {
	for _, e := range exprs {
		if e.IsAll() {
			return All()
		}
	}
	return join(exprs, " OR ", None())
}

func join(exprs []Expr, op string, empty Expr) Expr {
	switch len(exprs) {
	case 0:
		return empty
	case 1:
		return exprs[0]
	}
	parts := make([]string, len(exprs))
	var args []any
	for i, e := range exprs {
		parts[i] = "(" + e.sql + ")"
		args = append(args, e.args...)
	}
	return Expr{sql: strings.Join(parts, op), args: args}
}

// SQL renders e as a WHERE clause body and its bind arguments.
func (e Expr) SQL() (string, []any) {
	if e.IsAll() {
		return "1 = 1", nil
	}
	return e.sql, e.args
}
