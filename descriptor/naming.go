package descriptor

import (
	"strconv"
)

// VariableTable resolves debug names of local variable slots
type VariableTable interface {
	// Lookup returns the name of the variable stored in slot and visible at pc
	Lookup(slot, pc int) (name string, ok bool)
}

// Namer hands out unique identifiers within one method. The first request for a base name
// returns it unchanged, later requests append 1, 2, ... in order of use.
type Namer struct {
	used     map[string]struct{} // used holds every name handed out or taken
	reserved map[string]struct{} // reserved holds names suffixed candidates must avoid
	next     map[string]int      // next is the last suffix used per base name
}

// NewNamer creates a namer
func NewNamer() *Namer {
	return &Namer{used: map[string]struct{}{}, reserved: map[string]struct{}{}, next: map[string]int{}}
}

// Take marks name as used (i.e., a name coming from the debug table)
func (n *Namer) Take(name string) {
	n.used[name] = struct{}{}
}

// Reserve keeps suffixed names from colliding with name while still allowing its first plain use
func (n *Namer) Reserve(name string) {
	n.reserved[name] = struct{}{}
}

// IsUsed reports whether name was handed out or taken
func (n *Namer) IsUsed(name string) bool {
	_, ok := n.used[name]
	return ok
}

// Name returns a unique identifier derived from base
func (n *Namer) Name(base string) string {
	if _, ok := n.used[base]; !ok {
		n.used[base] = struct{}{}
		return base
	}
	for {
		n.next[base]++
		candidate := base + strconv.Itoa(n.next[base])
		_, used := n.used[candidate]
		_, reserved := n.reserved[candidate]
		if !used && !reserved {
			n.used[candidate] = struct{}{}
			return candidate
		}
	}
}

// ArgNames returns the argument names of the method.
//
// With a variable table names are looked up at pc 0, the slot advancing by the size of every
// argument (two slots for long and double). Arguments without a table entry get names
// synthesized from their type: repeated defaults keep the first occurrence unsuffixed.
func (m *Method) ArgNames(table VariableTable, static bool) []string {
	return m.argNames(table, static, NewNamer())
}

// NameArgs is ArgNames sharing a namer with the method body, so locals named later cannot
// collide with the arguments
func (m *Method) NameArgs(table VariableTable, static bool, namer *Namer) []string {
	return m.argNames(table, static, namer)
}

func (m *Method) argNames(table VariableTable, static bool, namer *Namer) []string {
	names := make([]string, len(m.Args))
	fromTable := make([]bool, len(m.Args))
	slot := 0
	if !static {
		slot = 1
		namer.Take("this")
	}
	for i, arg := range m.Args {
		if table != nil {
			if name, ok := table.Lookup(slot, 0); ok && name != "" {
				names[i] = name
				fromTable[i] = true
				namer.Take(name)
			}
		}
		slot += arg.Size()
	}
	for i, arg := range m.Args {
		if !fromTable[i] {
			namer.Reserve(arg.VarName())
		}
	}
	for i, arg := range m.Args {
		if !fromTable[i] {
			names[i] = namer.Name(arg.VarName())
		}
	}
	return names
}
