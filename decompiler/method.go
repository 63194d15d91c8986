package decompiler

import (
	"strings"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/operation"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// method is a decompiled method, body is nil when it has no code or failed
type method struct {
	m      *classfile.Method
	desc   *descriptor.Method
	static bool
	body   *operation.Body
	err    error
}

// skipMethod reports whether a method has no source form: compiler generated methods and the
// implicit values and valueOf of enums
func (c *classWriter) skipMethod(m *classfile.Method) bool {
	if m.AccessFlags&(classfile.AccSynthetic|classfile.AccBridge) != 0 {
		return true
	}
	if !c.info.IsEnum || m.AccessFlags&classfile.AccStatic == 0 {
		return false
	}
	self := c.self.Descriptor()
	return m.Name == "values" && m.Descriptor == "()["+self ||
		m.Name == "valueOf" && m.Descriptor == "(Ljava/lang/String;)"+self
}

// decompile builds the body of a method, turning any failure into the method error
func (c *classWriter) decompile(m *classfile.Method) *method {
	md := &method{m: m, static: m.AccessFlags&classfile.AccStatic != 0}
	desc, err := descriptor.NewMethod(c.self, m.Name, m.Descriptor)
	if err != nil {
		md.err = err
		return md
	}
	md.desc = desc
	if m.Code == nil {
		return md
	}
	md.body, md.err = c.build(md)
	return md
}

// build runs the method decompilation, recovering a panic into a failure
func (c *classWriter) build(md *method) (body *operation.Body, err error) {
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, failure.New(failure.KindUnknown, "panic: %v", r)
		}
	}()
	return operation.Build(c.info, &operation.MethodInput{Descriptor: md.desc, Static: md.static, Code: md.m.Code})
}

// hiddenArgs returns the count of leading synthetic arguments of a method
func (c *classWriter) hiddenArgs(md *method) int {
	if c.info.IsEnum && md.desc.IsConstructor() && len(md.desc.Args) >= 2 {
		return 2
	}
	return 0
}

// loneDefaultConstructor returns the only constructor when it is implicit in source: no
// arguments and an empty body
func (c *classWriter) loneDefaultConstructor(methods []*method) *method {
	var ctor *method
	for _, md := range methods {
		if md.desc == nil || !md.desc.IsConstructor() {
			continue
		}
		if ctor != nil {
			return nil
		}
		ctor = md
	}
	if ctor == nil || ctor.err != nil || ctor.body == nil || len(ctor.body.Block.Statements) > 0 {
		return nil
	}
	if len(ctor.desc.Args) != c.hiddenArgs(ctor) || len(ctor.m.Exceptions) > 0 {
		return nil
	}
	return ctor
}

func (c *classWriter) methodModifiers(md *method) []string {
	flags := md.m.AccessFlags
	iface := c.isInterface()
	var mods []string
	if iface && md.m.Code != nil && flags&(classfile.AccStatic|classfile.AccPrivate) == 0 {
		mods = append(mods, "default")
	}
	for _, mod := range classfile.Modifiers(flags, classfile.EntryMethod) {
		switch {
		case iface && (mod == "public" || mod == "abstract"):
		case c.info.IsEnum && md.desc.IsConstructor() && mod == "private":
		default:
			mods = append(mods, mod)
		}
	}
	return mods
}

// argNames returns the argument names of a method, taken from its body when it was decompiled
func (c *classWriter) argNames(md *method) []string {
	if md.body != nil {
		names := make([]string, len(md.body.Params))
		for i, p := range md.body.Params {
			names[i] = p.Name
		}
		return names
	}
	var table descriptor.VariableTable
	if code := md.m.Code; code != nil && code.HasLocalVariables() && !c.cfg.IgnoreVariableTable {
		table = code
	}
	return md.desc.ArgNames(table, md.static)
}

func (c *classWriter) writeMethod(w *render.Writer, md *method) {
	m := md.m
	c.separate(w, sectionMethod)
	if md.desc == nil {
		c.fail(m.Name, m.Descriptor, md.err)
		w.Write("// ", m.Name, m.Descriptor, ": ", md.err.Error())
		w.NewLine()
		return
	}
	if err := classfile.ValidateFlags(m.AccessFlags, classfile.EntryMethod); err != nil {
		c.fail(m.Name, m.Descriptor, err)
	}

	if mods := c.methodModifiers(md); len(mods) > 0 {
		w.Write(strings.Join(mods, " "), " ")
	}
	if md.desc.IsConstructor() {
		w.Write(c.self.SimpleName())
	} else {
		w.WriteType(md.desc.Return)
		w.Write(" ", m.Name)
	}
	c.writeParams(w, md)
	if len(m.Exceptions) > 0 {
		w.Write(" throws ")
		for k, name := range m.Exceptions {
			if k > 0 {
				w.Write(", ")
			}
			w.WriteType(types.ClassOf(name))
		}
	}

	if m.Code == nil {
		w.Write(";")
		w.NewLine()
		return
	}
	w.Write(" ")
	if md.err != nil {
		c.fail(m.Name, m.Descriptor, md.err)
		c.writeStub(w, md.err)
	} else {
		md.body.Write(w)
	}
	w.NewLine()
}

func (c *classWriter) writeParams(w *render.Writer, md *method) {
	names := c.argNames(md)
	args := md.desc.Args
	from := c.hiddenArgs(md)
	varargs := md.m.AccessFlags&classfile.AccVarargs != 0
	w.Write("(")
	for i := from; i < len(args); i++ {
		if i > from {
			w.Write(", ")
		}
		if arr, ok := args[i].(*types.Array); ok && varargs && i == len(args)-1 {
			w.WriteType(arr.Elem())
			w.Write("...")
		} else {
			w.WriteType(args[i])
		}
		if i < len(names) {
			w.Write(" ", names[i])
		}
	}
	w.Write(")")
}
