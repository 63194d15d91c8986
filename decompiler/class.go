package decompiler

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/operation"
	"github.com/petr590/NewYava-sub001/render"
	"github.com/petr590/NewYava-sub001/types"
)

// section is the kind of the last rendered member, members of different kinds (and methods)
// are separated by a blank line
type section int

const (
	sectionNone section = iota
	sectionConstants
	sectionField
	sectionMethod
)

// classWriter renders a single class
type classWriter struct {
	*Decompiler
	cls  *classfile.Class
	self *types.Class
	info *operation.ClassInfo
	res  *Result
	log  logrus.FieldLogger
	last section
}

// Decompile renders a class. Member failures are reported in the result, never as an error.
func (d *Decompiler) Decompile(cls *classfile.Class) *Result {
	self := types.ClassOf(cls.ThisClass)
	ctx := render.NewClassContext(self, d.cfg.ImportNestedClasses)
	c := &classWriter{
		Decompiler: d,
		cls:        cls,
		self:       self,
		res:        &Result{Name: cls.ThisClass},
		log:        d.log.WithField("class", cls.ThisClass),
		info: &operation.ClassInfo{
			Type:                self,
			Context:             ctx,
			Pool:                cls.Pool,
			Bootstrap:           cls.BootstrapMethods,
			SwitchMaps:          d.maps,
			IsEnum:              isEnum(cls),
			IgnoreVariableTable: d.cfg.IgnoreVariableTable,
		},
	}
	if cls.SuperClass != "" {
		c.info.Super = types.ClassOf(cls.SuperClass)
	}
	for _, name := range cls.Interfaces {
		c.info.Interfaces = append(c.info.Interfaces, types.ClassOf(name))
	}

	header := render.NewWriter(ctx, d.cfg.Indent)
	c.writeHeader(header)
	body := render.NewWriter(ctx, d.cfg.Indent)
	body.Indent()
	c.writeMembers(body)

	var sb strings.Builder
	if pkg := self.Package(); pkg != "" {
		fmt.Fprintf(&sb, "package %s;\n\n", pkg)
	}
	c.res.Imports = ctx.Imports()
	for _, name := range c.res.Imports {
		fmt.Fprintf(&sb, "import %s;\n", name)
	}
	if len(c.res.Imports) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(header.String())
	sb.WriteString(" {\n")
	sb.WriteString(body.String())
	sb.WriteString("}\n")
	c.res.Source = sb.String()

	c.log.WithField("failures", len(c.res.Failures)).Debug("Decompiled class")
	return c.res
}

func (c *classWriter) isInterface() bool {
	return c.cls.AccessFlags&classfile.AccInterface != 0
}

// fail records the failure of a member
func (c *classWriter) fail(name, desc string, err error) {
	me := &failure.MemberError{Owner: c.cls.ThisClass, Name: name, Descriptor: desc, Err: err}
	c.res.Failures = append(c.res.Failures, me)
	c.log.WithFields(logrus.Fields{
		"member": name + desc,
		"kind":   me.Kind().String(),
	}).WithError(err).Warn("Failed to decompile member")
}

// classFlags returns the source level flags: nested classes keep them in the InnerClasses entry
func (c *classWriter) classFlags() uint16 {
	for _, ic := range c.cls.InnerClasses {
		if ic.Name == c.cls.ThisClass {
			return ic.AccessFlags
		}
	}
	return c.cls.AccessFlags
}

func (c *classWriter) writeHeader(w *render.Writer) {
	flags := c.classFlags()
	if err := classfile.ValidateFlags(flags, classfile.EntryClass); err != nil {
		c.fail(c.cls.ThisClass, "", err)
	}
	iface := c.isInterface()
	var mods []string
	for _, mod := range classfile.Modifiers(flags, classfile.EntryClass) {
		switch {
		case iface && (mod == "abstract" || mod == "static"):
		case c.info.IsEnum && (mod == "abstract" || mod == "final" || mod == "static"):
		default:
			mods = append(mods, mod)
		}
	}
	keyword := "class"
	switch {
	case flags&classfile.AccAnnotation != 0:
		keyword = "@interface"
	case iface:
		keyword = "interface"
	case c.info.IsEnum:
		keyword = "enum"
	}
	w.Write(strings.Join(append(mods, keyword), " "), " ", c.self.SimpleName())

	super := c.info.Super
	if !iface && super != nil && super != types.Object && !(c.info.IsEnum && super.InternalName() == enumSuper) {
		w.Write(" extends ")
		w.WriteType(super)
	}
	var interfaces []*types.Class
	for _, i := range c.info.Interfaces {
		if keyword == "@interface" && i.InternalName() == "java/lang/annotation/Annotation" {
			continue
		}
		interfaces = append(interfaces, i)
	}
	if len(interfaces) == 0 {
		return
	}
	if iface {
		w.Write(" extends ")
	} else {
		w.Write(" implements ")
	}
	for k, i := range interfaces {
		if k > 0 {
			w.Write(", ")
		}
		w.WriteType(i)
	}
}

// separate starts a new member, with a blank line unless it continues a run of fields
func (c *classWriter) separate(w *render.Writer, s section) {
	if c.last != sectionNone && (s != sectionField || c.last != sectionField) {
		w.NewLine()
	}
	c.last = s
}

func (c *classWriter) writeMembers(w *render.Writer) {
	var methods []*method
	var static *method
	for _, m := range c.cls.Methods {
		if c.skipMethod(m) {
			continue
		}
		md := c.decompile(m)
		if m.Name == descriptor.StaticInitializerName {
			static = md
			continue
		}
		methods = append(methods, md)
	}

	if c.info.IsEnum {
		var body *operation.Body
		if static != nil && static.err == nil {
			body = static.body
		}
		c.writeEnumConstants(w, operation.ExtractEnumConstants(c.info, body, enumConstants(c.cls)))
	}
	for _, f := range c.cls.Fields {
		c.writeField(w, f)
	}
	if static != nil {
		c.writeStaticInitializer(w, static)
	}
	lone := c.loneDefaultConstructor(methods)
	for _, md := range methods {
		if md == lone {
			continue
		}
		c.writeMethod(w, md)
	}
}

func (c *classWriter) writeEnumConstants(w *render.Writer, constants []*operation.EnumConstant) {
	if len(constants) == 0 {
		return
	}
	c.separate(w, sectionConstants)
	for k, e := range constants {
		if k > 0 {
			w.Write(", ")
		}
		e.Write(w)
	}
	w.Write(";")
	w.NewLine()
}

func (c *classWriter) writeField(w *render.Writer, f *classfile.Field) {
	if f.AccessFlags&(classfile.AccSynthetic|classfile.AccEnum) != 0 || c.info.IsEnum && f.Name == "$VALUES" {
		return
	}
	c.separate(w, sectionField)
	desc, err := descriptor.NewField(c.self, f.Name, f.Descriptor)
	if err != nil {
		c.fail(f.Name, f.Descriptor, err)
		w.Write("// ", f.Name, " ", f.Descriptor, ": ", err.Error())
		w.NewLine()
		return
	}
	if err := classfile.ValidateFlags(f.AccessFlags, classfile.EntryField); err != nil {
		c.fail(f.Name, f.Descriptor, err)
	}
	for _, mod := range classfile.Modifiers(f.AccessFlags, classfile.EntryField) {
		if c.isInterface() && (mod == "public" || mod == "static" || mod == "final") {
			continue
		}
		w.Write(mod, " ")
	}
	w.WriteType(desc.Type)
	w.Write(" ", f.Name)
	if f.ConstantValue != nil {
		k, err := constant.FromValue(f.ConstantValue)
		if err != nil {
			c.fail(f.Name, f.Descriptor, err)
		} else {
			w.Write(" = ")
			k.Write(w, desc.Type)
		}
	}
	w.Write(";")
	w.NewLine()
}

func (c *classWriter) writeStaticInitializer(w *render.Writer, md *method) {
	if md.err == nil && len(md.body.Block.Statements) == 0 {
		return
	}
	c.separate(w, sectionMethod)
	w.Write("static ")
	if md.err != nil {
		c.fail(md.m.Name, md.m.Descriptor, md.err)
		c.writeStub(w, md.err)
	} else {
		md.body.Write(w)
	}
	w.NewLine()
}

// stackLine is the prefix of the diagnostic detail lines of a failure stub
const stackLine = "//   "

// writeStub renders the body of a method that failed to decompile
func (c *classWriter) writeStub(w *render.Writer, err error) {
	w.Write("{")
	w.NewLine()
	w.Indent()
	w.Write("// Failed to decompile: ", err.Error())
	w.NewLine()
	if !c.cfg.SkipStackTrace {
		lines := strings.Split(fmt.Sprintf("%+v", err), "\n")
		for _, line := range lines[1:] {
			if line = strings.TrimSpace(line); line != "" {
				w.Write(stackLine, line)
				w.NewLine()
			}
		}
	}
	w.Unindent()
	w.Write("}")
}
