package operation

import (
	"sort"

	"github.com/petr590/NewYava-sub001/classfile"
)

// loopInfo is a loop found from its backward jumps
type loopInfo struct {
	header  int  // header is the index of the first instruction of the loop
	last    int  // last is the index of the last backward jump to the header
	entered bool // entered is set once the loop statement is being built
}

// handlerInfo is an exception handler with the ranges it protects
type handlerInfo struct {
	pc     int
	types  []string // types are the caught classes, empty for a finally handler
	starts []int
	ends   []int
}

// tryInfo is a group of handlers protecting the same try block
type tryInfo struct {
	start    int            // start is the offset of the try block
	end      int            // end is the end offset of the first protected range
	handlers []*handlerInfo // handlers are the catch handlers in handler order
	finally  *handlerInfo   // finally is the finally handler, nil if absent
	entered  bool
}

// firstHandler returns the offset of the first handler of the group
func (t *tryInfo) firstHandler() int {
	pc := -1
	for _, h := range t.handlers {
		if pc < 0 || h.pc < pc {
			pc = h.pc
		}
	}
	if t.finally != nil && (pc < 0 || t.finally.pc < pc) {
		pc = t.finally.pc
	}
	return pc
}

// syncHandler is the cleanup handler releasing a monitor when its block throws
type syncHandler struct {
	pc    int // pc is the handler offset
	end   int // end is the index following the rethrow
	start int // start is the offset of the protected block
}

// flow is the static structure of a method: loops, exception regions and jump sources
type flow struct {
	insns    []*classfile.Instruction
	index    map[int]int // index maps instruction offsets to indexes
	end      int         // end is the bytecode length
	loops    map[int]*loopInfo
	tries    map[int][]*tryInfo // tries maps a try block offset to its groups, outermost first
	syncs    []*syncHandler
	targeted map[int][]int // targeted maps an offset to the indexes of the jumps landing on it
}

func analyze(insns []*classfile.Instruction, code *classfile.Code) *flow {
	f := &flow{
		insns:    insns,
		index:    make(map[int]int, len(insns)),
		end:      len(code.Bytecode),
		loops:    map[int]*loopInfo{},
		tries:    map[int][]*tryInfo{},
		targeted: map[int][]int{},
	}
	for i, insn := range insns {
		f.index[insn.Offset] = i
	}
	for i, insn := range insns {
		for _, t := range jumpTargets(insn) {
			f.targeted[t] = append(f.targeted[t], i)
			if t > insn.Offset || insn.Switch != nil {
				continue
			}
			h := f.index[t]
			if lp, ok := f.loops[h]; ok {
				if i > lp.last {
					lp.last = i
				}
			} else {
				f.loops[h] = &loopInfo{header: h, last: i}
			}
		}
	}
	f.analyzeHandlers(code.ExceptionTable)
	return f
}

// jumpTargets returns the offsets an instruction may transfer control to
func jumpTargets(insn *classfile.Instruction) []int {
	switch {
	case insn.Switch != nil:
		return append([]int{insn.Switch.Default}, insn.Switch.Targets...)
	case insn.Opcode.IsConditionalJump() || insn.Opcode.IsUnconditionalJump():
		return []int{insn.Target}
	}
	return nil
}

// offset returns the offset of the instruction at index i, the code length past the end
func (f *flow) offset(i int) int {
	if i >= len(f.insns) {
		return f.end
	}
	return f.insns[i].Offset
}

// indexOf returns the index of the instruction at offset, len(insns) for the code end
func (f *flow) indexOf(offset int) (int, bool) {
	if offset == f.end {
		return len(f.insns), true
	}
	i, ok := f.index[offset]
	return i, ok
}

// matches reports whether the instructions starting at index i follow the opcode pattern
func (f *flow) matches(i int, ops ...classfile.Opcode) bool {
	if i+len(ops) > len(f.insns) {
		return false
	}
	for k, op := range ops {
		if f.insns[i+k].Opcode != op {
			return false
		}
	}
	return true
}

// syncCleanup returns the index following a monitor cleanup handler starting at index i
func (f *flow) syncCleanup(i int) (int, bool) {
	switch {
	case f.matches(i, classfile.ASTORE, classfile.ALOAD, classfile.MONITOREXIT, classfile.ALOAD, classfile.ATHROW) &&
		f.insns[i].Index == f.insns[i+3].Index:
		return i + 5, true
	case f.matches(i, classfile.ALOAD, classfile.MONITOREXIT, classfile.ATHROW):
		return i + 3, true
	}
	return 0, false
}

func (f *flow) analyzeHandlers(table []classfile.ExceptionHandler) {
	handlers := map[int]*handlerInfo{}
	var order []int
	syncs := map[int]*syncHandler{}
	for _, e := range table {
		hi, ok := f.index[e.HandlerPC]
		if !ok {
			continue
		}
		if end, ok := f.syncCleanup(hi); ok {
			if s, ok := syncs[e.HandlerPC]; !ok {
				syncs[e.HandlerPC] = &syncHandler{pc: e.HandlerPC, end: end, start: e.StartPC}
			} else if e.StartPC < s.start {
				s.start = e.StartPC
			}
			continue
		}
		h, ok := handlers[e.HandlerPC]
		if !ok {
			h = &handlerInfo{pc: e.HandlerPC}
			handlers[e.HandlerPC] = h
			order = append(order, e.HandlerPC)
		}
		if e.CatchType != "" && !contains(h.types, e.CatchType) {
			h.types = append(h.types, e.CatchType)
		}
		h.starts = append(h.starts, e.StartPC)
		h.ends = append(h.ends, e.EndPC)
	}
	for _, s := range syncs {
		f.syncs = append(f.syncs, s)
	}
	sort.Slice(f.syncs, func(i, j int) bool { return f.syncs[i].pc < f.syncs[j].pc })

	type key struct{ start, end int }
	groups := map[key]*tryInfo{}
	var keys []key
	sort.Ints(order)
	for _, pc := range order {
		h := handlers[pc]
		k := key{start: h.starts[0], end: h.ends[0]}
		for i, s := range h.starts {
			if s < k.start || s == k.start && h.ends[i] > k.end {
				k = key{start: s, end: h.ends[i]}
			}
		}
		g, ok := groups[k]
		if !ok {
			g = &tryInfo{start: k.start, end: k.end}
			groups[k] = g
			keys = append(keys, k)
		}
		if len(h.types) == 0 && f.isFinally(pc) && g.finally == nil {
			g.finally = h
			continue
		}
		if len(h.types) == 0 {
			h.types = []string{"java/lang/Throwable"}
		}
		g.handlers = append(g.handlers, h)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].start != keys[j].start {
			return keys[i].start < keys[j].start
		}
		return keys[i].end > keys[j].end
	})
	for _, k := range keys {
		f.tries[k.start] = append(f.tries[k.start], groups[k])
	}
}

// isFinally reports whether the handler at pc stores the exception, runs code and rethrows it
func (f *flow) isFinally(pc int) bool {
	_, ok := f.finallyEnd(f.index[pc])
	return ok
}

// finallyEnd returns the index of the rethrow of the finally handler starting at index i
func (f *flow) finallyEnd(i int) (int, bool) {
	if i >= len(f.insns) || f.insns[i].Opcode != classfile.ASTORE {
		return 0, false
	}
	slot := f.insns[i].Index
	for j := i + 2; j < len(f.insns); j++ {
		insn := f.insns[j]
		if insn.Opcode == classfile.ATHROW && f.insns[j-1].Opcode == classfile.ALOAD && f.insns[j-1].Index == slot {
			return j, true
		}
	}
	return 0, false
}

// tryAt returns the outermost try group starting at offset not built yet
func (f *flow) tryAt(offset int) *tryInfo {
	for _, t := range f.tries[offset] {
		if !t.entered {
			return t
		}
	}
	return nil
}

// syncAt returns the cleanup handler of the synchronized block starting at offset
func (f *flow) syncAt(offset int) *syncHandler {
	for _, s := range f.syncs {
		if s.start == offset {
			return s
		}
	}
	return nil
}

// sameCode reports whether the instructions at indexes a and b are copies of each other
func sameCode(a, b *classfile.Instruction) bool {
	if a.Opcode != b.Opcode || a.Index != b.Index || a.Value != b.Value || a.Wide != b.Wide {
		return false
	}
	if a.Opcode.IsConditionalJump() || a.Opcode.IsUnconditionalJump() {
		return a.Target-a.Offset == b.Target-b.Offset
	}
	if a.Switch != nil {
		return b.Switch != nil && len(a.Switch.Keys) == len(b.Switch.Keys)
	}
	return true
}

// copyAt reports whether the instruction sequence body is repeated at index i
func (f *flow) copyAt(i int, body []*classfile.Instruction) bool {
	if len(body) == 0 || i+len(body) > len(f.insns) {
		return false
	}
	for k, insn := range body {
		if !sameCode(f.insns[i+k], insn) {
			return false
		}
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
