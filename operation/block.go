package operation

import (
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// compound is implemented by statements owning nested blocks
type compound interface {
	blocks() []*Block
}

// Block is a sequence of statements. A nil *Block is an absent block (no else, no finally),
// an empty one renders as {}.
type Block struct {
	Statements []Operation
}

func (b *Block) add(op Operation) {
	b.Statements = append(b.Statements, op)
}

// IsTerminal reports whether the block ends with return, throw, break or continue
func (b *Block) IsTerminal() bool {
	return b != nil && len(b.Statements) > 0 && isTerminal(b.Statements[len(b.Statements)-1])
}

// Write renders the block in braces
func (b *Block) Write(w *render.Writer) {
	if len(b.Statements) == 0 {
		w.Write("{}")
		return
	}
	w.Write("{")
	w.NewLine()
	w.Indent()
	b.writeStatements(w)
	w.Unindent()
	w.Write("}")
}

func (b *Block) writeStatements(w *render.Writer) {
	for _, s := range b.Statements {
		writeStatement(w, s)
	}
}

// writeStatement renders op as a complete line
func writeStatement(w *render.Writer, op Operation) {
	if s, ok := op.(statement); ok {
		s.writeStatement(w)
	} else {
		op.Write(w)
		w.Write(";")
	}
	w.NewLine()
}

// If is an if statement, with an else branch unless Else is nil
type If struct {
	Cond Condition
	Then *Block
	Else *Block
}

func (i *If) Type() types.Type          { return types.Void }
func (i *If) Priority() render.Priority { return render.Lowest }
func (i *If) Children() []Operation     { return []Operation{i.Cond} }
func (i *If) Write(w *render.Writer)    { i.writeStatement(w) }

func (i *If) blocks() []*Block {
	if i.Else == nil {
		return []*Block{i.Then}
	}
	return []*Block{i.Then, i.Else}
}

func (i *If) writeStatement(w *render.Writer) {
	w.Write("if (")
	i.Cond.Write(w)
	w.Write(") ")
	i.Then.Write(w)
	if i.Else == nil {
		return
	}
	w.Write(" else ")
	if len(i.Else.Statements) == 1 {
		if elseIf, ok := i.Else.Statements[0].(*If); ok {
			elseIf.writeStatement(w)
			return
		}
	}
	i.Else.Write(w)
}

// LoopKind is the source form of a loop
type LoopKind int

const (
	LoopWhile LoopKind = iota
	LoopDoWhile
	LoopFor
)

// Loop is a while, do-while or for loop. A nil Cond loops forever.
type Loop struct {
	Kind   LoopKind
	Cond   Condition
	Body   *Block
	Init   Operation // Init is the for loop initializer
	Update Operation // Update is the for loop update
	Label  string
}

func (l *Loop) Type() types.Type          { return types.Void }
func (l *Loop) Priority() render.Priority { return render.Lowest }
func (l *Loop) Write(w *render.Writer)    { l.writeStatement(w) }
func (l *Loop) blocks() []*Block          { return []*Block{l.Body} }

func (l *Loop) Children() []Operation {
	var res []Operation
	if l.Init != nil {
		res = append(res, l.Init)
	}
	if l.Cond != nil {
		res = append(res, l.Cond)
	}
	if l.Update != nil {
		res = append(res, l.Update)
	}
	return res
}

func (l *Loop) writeCond(w *render.Writer) {
	if l.Cond == nil {
		w.Write("true")
		return
	}
	l.Cond.Write(w)
}

func (l *Loop) writeStatement(w *render.Writer) {
	if l.Label != "" {
		w.Write(l.Label, ": ")
	}
	switch l.Kind {
	case LoopDoWhile:
		w.Write("do ")
		l.Body.Write(w)
		w.Write(" while (")
		l.writeCond(w)
		w.Write(");")
	case LoopFor:
		w.Write("for (")
		if l.Init != nil {
			l.Init.Write(w)
		}
		w.Write(";")
		if l.Cond != nil {
			w.Write(" ")
			l.Cond.Write(w)
		}
		w.Write(";")
		if l.Update != nil {
			w.Write(" ")
			l.Update.Write(w)
		}
		w.Write(") ")
		l.Body.Write(w)
	default:
		w.Write("while (")
		l.writeCond(w)
		w.Write(") ")
		l.Body.Write(w)
	}
}

// Case is a group of switch labels sharing a body
type Case struct {
	Keys    []int32
	Names   []string // Names are the enum constant names of Keys, empty for numeric labels
	Default bool
	Body    *Block
}

// Switch is a switch statement
type Switch struct {
	Value Operation
	Cases []*Case
	Label string
}

func (s *Switch) Type() types.Type          { return types.Void }
func (s *Switch) Priority() render.Priority { return render.Lowest }
func (s *Switch) Children() []Operation     { return []Operation{s.Value} }
func (s *Switch) Write(w *render.Writer)    { s.writeStatement(w) }

func (s *Switch) blocks() []*Block {
	res := make([]*Block, len(s.Cases))
	for i, c := range s.Cases {
		res[i] = c.Body
	}
	return res
}

func (s *Switch) writeStatement(w *render.Writer) {
	if s.Label != "" {
		w.Write(s.Label, ": ")
	}
	w.Write("switch (")
	s.Value.Write(w)
	w.Write(") ")
	if len(s.Cases) == 0 {
		w.Write("{}")
		return
	}
	w.Write("{")
	w.NewLine()
	w.Indent()
	for _, c := range s.Cases {
		for i, k := range c.Keys {
			w.Write("case ")
			if i < len(c.Names) && c.Names[i] != "" {
				w.Write(c.Names[i])
			} else {
				constant.IntOf(k).Write(w, s.Value.Type())
			}
			w.Write(":")
			w.NewLine()
		}
		if c.Default {
			w.Write("default:")
			w.NewLine()
		}
		w.Indent()
		c.Body.writeStatements(w)
		w.Unindent()
	}
	w.Unindent()
	w.Write("}")
}

// Catch is a catch clause; several types make a multi-catch
type Catch struct {
	Types []*types.Class
	Var   *Variable
	Body  *Block
}

// Try is a try statement, with a finally block unless Finally is nil
type Try struct {
	Body    *Block
	Catches []*Catch
	Finally *Block
}

func (t *Try) Type() types.Type          { return types.Void }
func (t *Try) Priority() render.Priority { return render.Lowest }
func (t *Try) Children() []Operation     { return nil }
func (t *Try) Write(w *render.Writer)    { t.writeStatement(w) }

func (t *Try) blocks() []*Block {
	res := []*Block{t.Body}
	for _, c := range t.Catches {
		res = append(res, c.Body)
	}
	if t.Finally != nil {
		res = append(res, t.Finally)
	}
	return res
}

func (t *Try) writeStatement(w *render.Writer) {
	w.Write("try ")
	t.Body.Write(w)
	for _, c := range t.Catches {
		w.Write(" catch (")
		for i, cls := range c.Types {
			if i > 0 {
				w.Write(" | ")
			}
			w.WriteType(cls)
		}
		w.Write(" ", c.Var.Name, ") ")
		c.Body.Write(w)
	}
	if t.Finally != nil {
		w.Write(" finally ")
		t.Finally.Write(w)
	}
}

// Synchronized is a synchronized block
type Synchronized struct {
	Lock Operation
	Body *Block
}

func (s *Synchronized) Type() types.Type          { return types.Void }
func (s *Synchronized) Priority() render.Priority { return render.Lowest }
func (s *Synchronized) Children() []Operation     { return []Operation{s.Lock} }
func (s *Synchronized) Write(w *render.Writer)    { s.writeStatement(w) }
func (s *Synchronized) blocks() []*Block          { return []*Block{s.Body} }

func (s *Synchronized) writeStatement(w *render.Writer) {
	w.Write("synchronized (")
	s.Lock.Write(w)
	w.Write(") ")
	s.Body.Write(w)
}
