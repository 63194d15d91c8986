package operation

import (
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Return leaves the method, with a value unless Value is nil
type Return struct {
	Value Operation
}

func (r *Return) Type() types.Type          { return types.Void }
func (r *Return) Priority() render.Priority { return render.Lowest }

func (r *Return) Children() []Operation {
	if r.Value == nil {
		return nil
	}
	return []Operation{r.Value}
}

func (r *Return) Write(w *render.Writer) {
	if r.Value == nil {
		w.Write("return")
		return
	}
	w.Write("return ")
	writeOperand(w, unwrapWidening(r.Value), render.Lowest)
}

// Throw throws an exception
type Throw struct {
	Value Operation
}

func (t *Throw) Type() types.Type          { return types.Void }
func (t *Throw) Priority() render.Priority { return render.Lowest }
func (t *Throw) Children() []Operation     { return []Operation{t.Value} }

func (t *Throw) Write(w *render.Writer) {
	w.Write("throw ")
	writeOperand(w, t.Value, render.Lowest)
}

// Break leaves a loop or a switch
type Break struct {
	Label string // Label is set when the target is not the innermost breakable statement
}

func (b *Break) Type() types.Type          { return types.Void }
func (b *Break) Priority() render.Priority { return render.Lowest }
func (b *Break) Children() []Operation     { return nil }

func (b *Break) Write(w *render.Writer) {
	w.Write("break")
	if b.Label != "" {
		w.Write(" ", b.Label)
	}
}

// Continue starts the next iteration of a loop
type Continue struct {
	Label string // Label is set when the target is not the innermost loop

	loop *Loop
}

func (c *Continue) Type() types.Type          { return types.Void }
func (c *Continue) Priority() render.Priority { return render.Lowest }
func (c *Continue) Children() []Operation     { return nil }

func (c *Continue) Write(w *render.Writer) {
	w.Write("continue")
	if c.Label != "" {
		w.Write(" ", c.Label)
	}
}

// CaughtException is the exception an exception handler starts with
type CaughtException struct {
	Var *Variable // Var is the catch parameter, assigned when the catch clause is built

	typ types.Type
}

func (c *CaughtException) Type() types.Type          { return c.typ }
func (c *CaughtException) Priority() render.Priority { return render.Primary }
func (c *CaughtException) Children() []Operation     { return nil }

func (c *CaughtException) Write(w *render.Writer) {
	if c.Var != nil {
		w.Write(c.Var.Name)
		return
	}
	w.Write("e")
}

// isTerminal reports whether control never falls through op
func isTerminal(op Operation) bool {
	switch op.(type) {
	case *Return, *Throw, *Break, *Continue:
		return true
	}
	return false
}
