package operation

import (
	"strings"

	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// Concat is a string concatenation
type Concat struct {
	Parts []Operation
}

func (c *Concat) Type() types.Type          { return types.String }
func (c *Concat) Priority() render.Priority { return render.Additive }
func (c *Concat) Children() []Operation     { return c.Parts }

func isString(op Operation) bool {
	return op.Type() == types.String
}

func (c *Concat) Write(w *render.Writer) {
	prefix := len(c.Parts) == 0 || !isString(c.Parts[0]) && (len(c.Parts) == 1 || !isString(c.Parts[1]))
	if prefix {
		w.Write(`""`)
		if len(c.Parts) > 0 {
			w.Write(" + ")
		}
	}
	for i, part := range c.Parts {
		if i > 0 {
			w.Write(" + ")
		}
		required := render.Additive.Next()
		if i == 0 && !prefix {
			required = render.Additive
		}
		writeOperand(w, unwrapWidening(part), required)
	}
}

// ConcatBuilder is a StringBuilder (or StringBuffer) being filled by an append chain. It
// becomes a Concat on toString; a builder used otherwise renders as the explicit chain.
type ConcatBuilder struct {
	Class *types.Class
	Parts []Operation
}

func (b *ConcatBuilder) Type() types.Type          { return b.Class }
func (b *ConcatBuilder) Priority() render.Priority { return render.Primary }
func (b *ConcatBuilder) Children() []Operation     { return b.Parts }
func (b *ConcatBuilder) hasSideEffect() bool       { return true }

func (b *ConcatBuilder) Write(w *render.Writer) {
	w.Write("new ")
	w.WriteType(b.Class)
	w.Write("()")
	for _, part := range b.Parts {
		w.Write(".append")
		writeArgs(w, []Operation{part})
	}
}

// isConcatBuilderClass reports whether cls is a string builder class
func isConcatBuilderClass(cls *types.Class) bool {
	return cls == types.StringBuilder || cls == types.StringBuffer
}

// recipe markers of StringConcatFactory.makeConcatWithConstants
const (
	recipeArg      = '\u0001'
	recipeConstant = '\u0002'
)

// concatFromRecipe builds the concatenation of a makeConcatWithConstants call site from its
// recipe, dynamic arguments and static constants
func concatFromRecipe(recipe string, args []Operation, consts []interface{}) (*Concat, error) {
	c := &Concat{}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			c.Parts = append(c.Parts, NewLiteral(constant.StringOf(text.String())))
			text.Reset()
		}
	}
	for _, r := range recipe {
		switch r {
		case recipeArg:
			if len(args) == 0 {
				return nil, failure.New(failure.KindIncompatibleType, "concat recipe %q needs more arguments", recipe)
			}
			flush()
			c.Parts = append(c.Parts, args[0])
			args = args[1:]
		case recipeConstant:
			if len(consts) == 0 {
				return nil, failure.New(failure.KindIncompatibleType, "concat recipe %q needs more constants", recipe)
			}
			k, err := constant.FromValue(consts[0])
			if err != nil {
				return nil, err
			}
			flush()
			c.Parts = append(c.Parts, NewLiteral(k))
			consts = consts[1:]
		default:
			text.WriteRune(r)
		}
	}
	flush()
	return c, nil
}
