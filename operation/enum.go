package operation

import (
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// enumSyntheticArgs is the count of the name and ordinal arguments every enum constructor takes
const enumSyntheticArgs = 2

// EnumConstant is an enum constant with the arguments its static initializer passes to the
// constructor
type EnumConstant struct {
	Name string
	Args []Operation // Args exclude the synthetic name and ordinal
}

// Write renders the constant as it appears in the enum constant list
func (e *EnumConstant) Write(w *render.Writer) {
	w.Write(e.Name)
	if len(e.Args) > 0 {
		writeArgs(w, e.Args)
	}
}

// ExtractEnumConstants removes the initialization of the enum constants named by names and of
// the synthetic values array from the static initializer body. It returns the constants in
// declaration order; a constant without a recognized initialization keeps no arguments.
func ExtractEnumConstants(class *ClassInfo, body *Body, names []string) []*EnumConstant {
	res := make([]*EnumConstant, len(names))
	byName := map[string]*EnumConstant{}
	for i, name := range names {
		res[i] = &EnumConstant{Name: name}
		byName[name] = res[i]
	}
	if body == nil {
		return res
	}
	var kept []Operation
	for _, s := range body.Block.Statements {
		p, ok := s.(*PutField)
		if !ok || p.Object != nil || p.Field.Owner != class.Type {
			kept = append(kept, s)
			continue
		}
		if c, ok := byName[p.Field.Name]; ok {
			if n, ok := p.Value.(*NewObject); ok {
				if len(n.Args) > enumSyntheticArgs {
					c.Args = n.Args[enumSyntheticArgs:]
				}
				continue
			}
		}
		if isValuesArray(class, p) {
			continue
		}
		kept = append(kept, s)
	}
	body.Block.Statements = kept
	return res
}

// isValuesArray reports whether p initializes the synthetic array returned by values()
func isValuesArray(class *ClassInfo, p *PutField) bool {
	arr, ok := p.Field.Type.(*types.Array)
	return ok && arr.Elem() == class.Type && p.Field.Name == "$VALUES"
}
