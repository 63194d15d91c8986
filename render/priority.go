// Package render holds the text emission side of the decompiler: operator priorities, the
// indent aware source writer and the per-class import/naming context.
package render

// Priority is the binding strength of an expression. A child expression is parenthesized
// only when its priority is lower than the priority its parent requires.
type Priority int

const (
	Lowest Priority = iota
	Assignment
	Ternary
	LogicalOr
	LogicalAnd
	BitOr
	BitXor
	BitAnd
	Equality
	Relational // Relational also covers instanceof
	Shift
	Additive
	Multiplicative
	Unary // Unary covers casts, negation and prefix operators
	Postfix
	Primary
)

// Next returns the next stricter priority, used for the right operand of left-associative operators
func (p Priority) Next() Priority {
	if p >= Primary {
		return Primary
	}
	return p + 1
}

// NeedsParens reports whether an expression of priority own must be parenthesized where
// required is expected
func NeedsParens(own, required Priority) bool {
	return own < required
}
