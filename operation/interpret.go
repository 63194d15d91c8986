package operation

import (
	"strings"

	"github.com/petr590/NewYava-sub001/classfile"
	"github.com/petr590/NewYava-sub001/constant"
	"github.com/petr590/NewYava-sub001/descriptor"
	"github.com/petr590/NewYava-sub001/failure"
	"github.com/petr590/NewYava-sub001/types"
)

type opInfo struct {
	op  string
	typ types.Type
}

// binaryOps maps the arithmetic instructions to their operator and operand type
var binaryOps = map[classfile.Opcode]opInfo{
	classfile.IADD: {"+", types.IntLike}, classfile.LADD: {"+", types.Long}, classfile.FADD: {"+", types.Float}, classfile.DADD: {"+", types.Double},
	classfile.ISUB: {"-", types.IntLike}, classfile.LSUB: {"-", types.Long}, classfile.FSUB: {"-", types.Float}, classfile.DSUB: {"-", types.Double},
	classfile.IMUL: {"*", types.IntLike}, classfile.LMUL: {"*", types.Long}, classfile.FMUL: {"*", types.Float}, classfile.DMUL: {"*", types.Double},
	classfile.IDIV: {"/", types.IntLike}, classfile.LDIV: {"/", types.Long}, classfile.FDIV: {"/", types.Float}, classfile.DDIV: {"/", types.Double},
	classfile.IREM: {"%", types.IntLike}, classfile.LREM: {"%", types.Long}, classfile.FREM: {"%", types.Float}, classfile.DREM: {"%", types.Double},
	classfile.ISHL: {"<<", types.IntLike}, classfile.LSHL: {"<<", types.Long},
	classfile.ISHR: {">>", types.IntLike}, classfile.LSHR: {">>", types.Long},
	classfile.IUSHR: {">>>", types.IntLike}, classfile.LUSHR: {">>>", types.Long},
	classfile.IAND: {"&", types.Integral}, classfile.LAND: {"&", types.Long},
	classfile.IOR: {"|", types.Integral}, classfile.LOR: {"|", types.Long},
	classfile.IXOR: {"^", types.Integral}, classfile.LXOR: {"^", types.Long},
}

// conversions maps the primitive conversion instructions to their source and target types
var conversions = map[classfile.Opcode]struct {
	from, to types.Primitive
	widening bool
}{
	classfile.I2L: {types.IntLike, types.Long, true}, classfile.I2F: {types.IntLike, types.Float, true},
	classfile.I2D: {types.IntLike, types.Double, true}, classfile.L2I: {types.Long, types.Int, false},
	classfile.L2F: {types.Long, types.Float, true}, classfile.L2D: {types.Long, types.Double, true},
	classfile.F2I: {types.Float, types.Int, false}, classfile.F2L: {types.Float, types.Long, false},
	classfile.F2D: {types.Float, types.Double, true}, classfile.D2I: {types.Double, types.Int, false},
	classfile.D2L: {types.Double, types.Long, false}, classfile.D2F: {types.Double, types.Float, false},
	classfile.I2B: {types.IntLike, types.Byte, false}, classfile.I2C: {types.IntLike, types.Char, false},
	classfile.I2S: {types.IntLike, types.Short, false},
}

// loadTypes maps the typed local and array instructions to the type they move
var loadTypes = map[classfile.Opcode]types.Type{
	classfile.ILOAD: types.Integral, classfile.LLOAD: types.Long, classfile.FLOAD: types.Float,
	classfile.DLOAD: types.Double, classfile.ALOAD: types.AnyObject,
	classfile.ISTORE: types.Integral, classfile.LSTORE: types.Long, classfile.FSTORE: types.Float,
	classfile.DSTORE: types.Double, classfile.ASTORE: types.AnyObject,
	classfile.IALOAD: types.Int, classfile.LALOAD: types.Long, classfile.FALOAD: types.Float,
	classfile.DALOAD: types.Double, classfile.AALOAD: types.AnyObject,
	classfile.BALOAD: types.PrimitiveOf(types.KindByte | types.KindBoolean), classfile.CALOAD: types.Char,
	classfile.SALOAD: types.Short,
	classfile.IASTORE: types.Int, classfile.LASTORE: types.Long, classfile.FASTORE: types.Float,
	classfile.DASTORE: types.Double, classfile.AASTORE: types.AnyObject,
	classfile.BASTORE: types.PrimitiveOf(types.KindByte | types.KindBoolean), classfile.CASTORE: types.Char,
	classfile.SASTORE: types.Short,
}

// interpret runs a straight line instruction against the simulated stack and returns the
// index of the next instruction
func (b *builder) interpret(i int) (int, error) {
	insn := b.insns[i]
	ctx := b.ctx
	op := insn.Opcode

	if info, ok := binaryOps[op]; ok {
		return i + 1, b.binary(info)
	}
	if conv, ok := conversions[op]; ok {
		v, err := ctx.PopAs(conv.from)
		if err != nil {
			return 0, err
		}
		ctx.Push(newPrimitiveCast(v, conv.to, conv.widening))
		return i + 1, nil
	}

	switch op {
	case classfile.NOP:
	case classfile.ACONST_NULL:
		ctx.Push(Null{})
	case classfile.BIPUSH, classfile.SIPUSH:
		ctx.Push(NewLiteral(constant.IntOf(insn.Value)))
	case classfile.LCONST_0, classfile.LCONST_1:
		ctx.Push(NewLiteral(constant.LongOf(int64(op - classfile.LCONST_0))))
	case classfile.FCONST_0, classfile.FCONST_1, classfile.FCONST_2:
		ctx.Push(NewLiteral(constant.FloatOf(float32(op - classfile.FCONST_0))))
	case classfile.DCONST_0, classfile.DCONST_1:
		ctx.Push(NewLiteral(constant.DoubleOf(float64(op - classfile.DCONST_0))))
	case classfile.LDC, classfile.LDC2_W:
		lit, err := b.loadConstant(insn.Index)
		if err != nil {
			return 0, err
		}
		ctx.Push(lit)

	case classfile.ILOAD, classfile.LLOAD, classfile.FLOAD, classfile.DLOAD, classfile.ALOAD:
		v, err := ctx.load(insn.Index, loadTypes[op])
		if err != nil {
			return 0, err
		}
		ctx.Push(&Load{Var: v})
	case classfile.ISTORE, classfile.LSTORE, classfile.FSTORE, classfile.DSTORE, classfile.ASTORE:
		return i + 1, b.storeLocal(insn)
	case classfile.IINC:
		return b.increment(i)

	case classfile.IALOAD, classfile.LALOAD, classfile.FALOAD, classfile.DALOAD, classfile.AALOAD,
		classfile.BALOAD, classfile.CALOAD, classfile.SALOAD:
		index, err := ctx.PopAs(types.IntLike)
		if err != nil {
			return 0, err
		}
		array, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return 0, err
		}
		ctx.Push(&ArrayLoad{Array: array, Index: index, typ: elemType(array, loadTypes[op])})
	case classfile.IASTORE, classfile.LASTORE, classfile.FASTORE, classfile.DASTORE, classfile.AASTORE,
		classfile.BASTORE, classfile.CASTORE, classfile.SASTORE:
		return i + 1, b.storeElement(loadTypes[op])
	case classfile.ARRAYLENGTH:
		array, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return 0, err
		}
		ctx.Push(&ArrayLength{Array: array})

	case classfile.POP, classfile.POP2:
		ops, err := ctx.popWords(int(op-classfile.POP) + 1)
		if err != nil {
			return 0, err
		}
		for _, o := range ops {
			if isStatementWorthy(o) {
				b.emit(o)
			}
		}
	case classfile.DUP:
		return i + 1, b.dup(1, 0)
	case classfile.DUP_X1:
		return i + 1, b.dup(1, 1)
	case classfile.DUP_X2:
		return i + 1, b.dup(1, 2)
	case classfile.DUP2:
		return i + 1, b.dup(2, 0)
	case classfile.DUP2_X1:
		return i + 1, b.dup(2, 1)
	case classfile.DUP2_X2:
		return i + 1, b.dup(2, 2)
	case classfile.SWAP:
		ops, err := ctx.popWords(2)
		if err != nil {
			return 0, err
		}
		if len(ops) != 2 {
			return 0, failure.New(failure.KindTypeSizeMismatch, "swap of a double width value at %d", insn.Offset)
		}
		ctx.Push(ops[1])
		ctx.Push(ops[0])

	case classfile.INEG, classfile.LNEG, classfile.FNEG, classfile.DNEG:
		v, err := ctx.PopAs(negTypes[op-classfile.INEG])
		if err != nil {
			return 0, err
		}
		ctx.Push(&Neg{Value: v})
	case classfile.LCMP, classfile.FCMPL, classfile.FCMPG, classfile.DCMPL, classfile.DCMPG:
		t := types.Type(types.Long)
		switch op {
		case classfile.FCMPL, classfile.FCMPG:
			t = types.Float
		case classfile.DCMPL, classfile.DCMPG:
			t = types.Double
		}
		right, err := ctx.PopAs(t)
		if err != nil {
			return 0, err
		}
		left, err := ctx.PopAs(t)
		if err != nil {
			return 0, err
		}
		ctx.Push(&CompareResult{Left: left, Right: right})

	case classfile.IRETURN, classfile.LRETURN, classfile.FRETURN, classfile.DRETURN, classfile.ARETURN:
		v, err := ctx.PopAs(ctx.Method.Return)
		if err != nil {
			return 0, err
		}
		b.emit(&Return{Value: v})
	case classfile.RETURN:
		b.emit(&Return{})
	case classfile.ATHROW:
		v, err := ctx.PopAs(types.Throwable)
		if err != nil {
			return 0, err
		}
		b.emit(&Throw{Value: v})

	case classfile.GETSTATIC, classfile.GETFIELD, classfile.PUTSTATIC, classfile.PUTFIELD:
		return i + 1, b.field(insn)
	case classfile.INVOKEVIRTUAL, classfile.INVOKEINTERFACE, classfile.INVOKESTATIC, classfile.INVOKESPECIAL:
		return i + 1, b.invoke(insn)
	case classfile.INVOKEDYNAMIC:
		return i + 1, b.invokeDynamic(insn)

	case classfile.NEW:
		name, err := ctx.Pool.ClassName(insn.Index)
		if err != nil {
			return 0, err
		}
		ctx.Push(&NewObject{Class: types.ClassOf(name)})
	case classfile.NEWARRAY:
		elem, err := types.Parse(classfile.ArrayTypeDescriptors[int(insn.Value)])
		if err != nil {
			return 0, err
		}
		count, err := ctx.PopAs(types.IntLike)
		if err != nil {
			return 0, err
		}
		ctx.Push(&NewArray{Of: types.ArrayOf(elem), Dims: []Operation{count}})
	case classfile.ANEWARRAY:
		elem, err := b.classType(insn.Index)
		if err != nil {
			return 0, err
		}
		count, err := ctx.PopAs(types.IntLike)
		if err != nil {
			return 0, err
		}
		ctx.Push(&NewArray{Of: types.ArrayOf(elem), Dims: []Operation{count}})
	case classfile.MULTIANEWARRAY:
		t, err := b.classType(insn.Index)
		if err != nil {
			return 0, err
		}
		arr, ok := t.(*types.Array)
		if !ok {
			return 0, failure.New(failure.KindIncompatibleType, "multianewarray of %s at %d", t, insn.Offset)
		}
		dims := make([]Operation, insn.Value)
		for k := len(dims) - 1; k >= 0; k-- {
			if dims[k], err = ctx.PopAs(types.IntLike); err != nil {
				return 0, err
			}
		}
		ctx.Push(&NewArray{Of: arr, Dims: dims})
	case classfile.CHECKCAST:
		t, err := b.classType(insn.Index)
		if err != nil {
			return 0, err
		}
		v, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return 0, err
		}
		ctx.Push(&CheckCast{Value: v, To: t})
	case classfile.INSTANCEOF:
		t, err := b.classType(insn.Index)
		if err != nil {
			return 0, err
		}
		v, err := ctx.PopAs(types.AnyObject)
		if err != nil {
			return 0, err
		}
		ctx.Push(&InstanceOf{Value: v, Of: t})
	case classfile.MONITORENTER, classfile.MONITOREXIT:
		if _, err := ctx.PopAs(types.AnyObject); err != nil {
			return 0, err
		}
	default:
		return 0, failure.New(failure.KindUnknownInstruction, "unsupported instruction %s at %d", op, insn.Offset)
	}
	return i + 1, nil
}

var negTypes = []types.Type{types.IntLike, types.Long, types.Float, types.Double}

func (b *builder) binary(info opInfo) error {
	ctx := b.ctx
	rightType := info.typ
	if info.op == "<<" || info.op == ">>" || info.op == ">>>" {
		rightType = types.IntLike
	}
	right, err := ctx.PopAs(rightType)
	if err != nil {
		return err
	}
	left, err := ctx.PopAs(info.typ)
	if err != nil {
		return err
	}
	resType := info.typ
	if resType == types.IntLike {
		resType = types.Int
	}
	if info.op == "^" && isMinusOne(right) {
		ctx.Push(&BitNot{Value: left})
		return nil
	}
	ctx.Push(newBinary(info.op, left, right, resType))
	return nil
}

// loadConstant pushes an ldc constant
func (b *builder) loadConstant(index int) (Operation, error) {
	raw, err := b.ctx.Pool.Literal(index)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case classfile.ClassRef:
		t, err := types.FromInternal(v.Name)
		if err != nil {
			return nil, err
		}
		return NewLiteral(constant.ClassOf(t)), nil
	case classfile.MethodTypeRef, classfile.MethodHandle:
		return nil, failure.New(failure.KindUnsupportedConstant, "cannot load %T constant at %d", raw, b.ctx.pc)
	}
	c, err := constant.FromValue(raw)
	if err != nil {
		return nil, err
	}
	return NewLiteral(c), nil
}

// classType resolves a CONSTANT_Class operand
func (b *builder) classType(index int) (types.Type, error) {
	name, err := b.ctx.Pool.ClassName(index)
	if err != nil {
		return nil, err
	}
	return types.FromInternal(name)
}

// ownerClass returns the class a member reference is resolved against. Methods called on
// arrays (clone) are treated as Object methods.
func ownerClass(owner string) *types.Class {
	if strings.HasPrefix(owner, "[") {
		return types.Object
	}
	return types.ClassOf(owner)
}

func (b *builder) storeLocal(insn *classfile.Instruction) error {
	ctx := b.ctx
	value, err := ctx.PopAs(loadTypes[insn.Opcode])
	if err != nil {
		return err
	}
	if _, ok := value.(*CaughtException); ok && insn.Opcode == classfile.ASTORE {
		// the catch parameter is bound as is, the catch clause picks the store up
		v := ctx.store(insn.Index, value.Type())
		b.emit(&Store{Var: v, Value: value})
		return nil
	}
	v := ctx.store(insn.Index, value.Type())
	if err := v.assign(value); err != nil {
		return failure.Wrap(failure.KindOf(err), err, "store to slot %d at %d", insn.Index, insn.Offset)
	}
	b.finishStore(&Store{Var: v, Value: value})
	return nil
}

func (b *builder) storeElement(def types.Type) error {
	ctx := b.ctx
	value, err := ctx.Pop()
	if err != nil {
		return err
	}
	index, err := ctx.PopAs(types.IntLike)
	if err != nil {
		return err
	}
	array, err := ctx.PopAs(types.AnyObject)
	if err != nil {
		return err
	}
	elem := elemType(array, def)
	t, err := types.Narrow(value.Type(), elem)
	if err != nil {
		return failure.Wrap(failure.KindOf(err), err, "array store at %d", ctx.pc)
	}
	narrowOp(value, t)
	if arr, ok := array.(*NewArray); ok && ctx.Peek() == arr && arr.initialize(index, value) {
		return nil
	}
	b.finishStore(&ArrayStore{Array: array, Index: index, Value: value})
	return nil
}

// finishStore places an assignment: as an expression when its value was duplicated on the
// stack, as a postfix increment when the old value was, otherwise as a statement
func (b *builder) finishStore(a assignment) {
	ctx := b.ctx
	top := ctx.Peek()
	if top == nil {
		b.emit(a)
		return
	}
	if top == a.assigned() {
		ctx.Pop()
		a.setExpression()
		ctx.Push(a)
		return
	}
	if bin, ok := unwrapNarrowing(a.assigned()).(*Binary); ok && (bin.Op == "+" || bin.Op == "-") &&
		bin.Left == top && a.sameTarget(top) {
		if lit, ok := bin.Right.(*Literal); ok && isUnit(lit.Const) {
			ctx.Pop()
			ctx.Push(&PostIncrement{Target: a, Op: bin.Op})
			return
		}
	}
	b.emit(a)
}

// increment decodes iinc, folding it with an adjacent load of the same variable into a
// postfix or prefix expression
func (b *builder) increment(i int) (int, error) {
	ctx := b.ctx
	insn := b.insns[i]
	v, err := ctx.load(insn.Index, types.Int)
	if err != nil {
		return 0, err
	}
	inc := &Increment{Var: v, Delta: insn.Value}
	if l, ok := ctx.Peek().(*Load); ok && l.Var == v {
		ctx.Pop()
		inc.postfix = true
		ctx.Push(inc)
		return i + 1, nil
	}
	if ctx.Depth() > 0 && i+1 < len(b.insns) && !b.skip[i+1] {
		next := b.insns[i+1]
		if next.Opcode == classfile.ILOAD && next.Index == insn.Index && len(b.flow.targeted[next.Offset]) == 0 {
			inc.prefix = true
			ctx.Push(inc)
			return i + 2, nil
		}
	}
	b.emit(inc)
	return i + 1, nil
}

// dup duplicates the top words of the stack below the next below words
func (b *builder) dup(words, below int) error {
	ctx := b.ctx
	top, err := ctx.popWords(words)
	if err != nil {
		return err
	}
	var under []Operation
	if below > 0 {
		if under, err = ctx.popWords(below); err != nil {
			return err
		}
	}
	for _, op := range top {
		ctx.Push(op)
	}
	for _, op := range under {
		ctx.Push(op)
	}
	for _, op := range top {
		ctx.Push(op)
	}
	return nil
}

func (b *builder) field(insn *classfile.Instruction) error {
	ctx := b.ctx
	ref, err := ctx.Pool.Member(insn.Index)
	if err != nil {
		return err
	}
	f, err := descriptor.NewField(ownerClass(ref.Owner), ref.Name, ref.Descriptor)
	if err != nil {
		return err
	}
	switch insn.Opcode {
	case classfile.GETSTATIC:
		ctx.Push(&GetField{Field: f})
	case classfile.GETFIELD:
		obj, err := ctx.PopAs(f.Owner)
		if err != nil {
			return err
		}
		ctx.Push(&GetField{Object: obj, Field: f})
	default:
		value, err := ctx.PopAs(f.Type)
		if err != nil {
			return err
		}
		var obj Operation
		if insn.Opcode == classfile.PUTFIELD {
			if obj, err = ctx.PopAs(f.Owner); err != nil {
				return err
			}
		}
		b.finishStore(&PutField{Object: obj, Field: f, Value: value})
	}
	return nil
}

var invokeKinds = map[classfile.Opcode]InvokeKind{
	classfile.INVOKEVIRTUAL:   InvokeVirtual,
	classfile.INVOKEINTERFACE: InvokeInterface,
	classfile.INVOKESTATIC:    InvokeStatic,
	classfile.INVOKESPECIAL:   InvokeSpecial,
}

func (b *builder) invoke(insn *classfile.Instruction) error {
	ctx := b.ctx
	ref, err := ctx.Pool.Member(insn.Index)
	if err != nil {
		return err
	}
	m, err := descriptor.NewMethod(ownerClass(ref.Owner), ref.Name, ref.Descriptor)
	if err != nil {
		return err
	}
	args, err := ctx.popArgs(m.Args)
	if err != nil {
		return err
	}
	kind := invokeKinds[insn.Opcode]
	if kind == InvokeStatic {
		if box, ok := boxes[m.Owner.InternalName()]; ok && m.Name == "valueOf" && len(m.Args) == 1 && m.Args[0] == box.prim {
			ctx.Push(&Boxed{Value: args[0], Box: m.Owner})
			return nil
		}
		b.result(&Invoke{Kind: kind, Method: m, Args: args})
		return nil
	}

	obj, err := ctx.PopAs(m.Owner)
	if err != nil {
		return err
	}
	if m.IsConstructor() {
		if n, ok := obj.(*NewObject); ok && !n.initialized {
			return b.construct(n, m, args)
		}
	}
	if box, ok := boxes[m.Owner.InternalName()]; ok && kind != InvokeSpecial && m.Name == box.accessor && len(args) == 0 {
		ctx.Push(newUnboxCast(obj, box.prim))
		return nil
	}
	if cb, ok := obj.(*ConcatBuilder); ok && m.Owner == cb.Class {
		switch {
		case m.Name == "append" && len(args) == 1:
			cb.Parts = append(cb.Parts, args[0])
			ctx.Push(cb)
			return nil
		case m.Name == "toString" && len(args) == 0:
			ctx.Push(&Concat{Parts: cb.Parts})
			return nil
		}
	}
	call := CallOrdinary
	if kind == InvokeSpecial {
		call = classifyCall(b.class, obj, m)
	}
	b.result(&Invoke{Kind: kind, Call: call, Object: obj, Method: m, Args: args})
	return nil
}

// construct completes an object creation with its constructor call
func (b *builder) construct(n *NewObject, ctor *descriptor.Method, args []Operation) error {
	ctx := b.ctx
	onStack := false
	for _, op := range ctx.stack {
		onStack = onStack || op == n
	}
	if isConcatBuilderClass(n.Class) && (len(args) == 0 || len(args) == 1 && ctor.Args[0] == types.String) {
		cb := &ConcatBuilder{Class: n.Class, Parts: args}
		if !onStack {
			b.emit(cb)
			return nil
		}
		for k, op := range ctx.stack {
			if op == n {
				ctx.stack[k] = cb
			}
		}
		return nil
	}
	n.Ctor, n.Args, n.initialized = ctor, args, true
	if !onStack {
		b.emit(n)
	}
	return nil
}

// result pushes a call result or emits a void call as a statement
func (b *builder) result(op Operation) {
	if op.Type() == types.Void {
		b.emit(op)
		return
	}
	b.ctx.Push(op)
}

// method handle reference kinds
// see: https://docs.oracle.com/javase/specs/jvms/se8/html/jvms-5.html#jvms-5.4.3.5
const (
	refInvokeVirtual    = 5
	refInvokeStatic     = 6
	refInvokeSpecial    = 7
	refNewInvokeSpecial = 8
	refInvokeInterface  = 9
)

func (b *builder) invokeDynamic(insn *classfile.Instruction) error {
	ctx := b.ctx
	dyn, err := ctx.Pool.Dynamic(insn.Index)
	if err != nil {
		return err
	}
	argTypes, ret, err := types.ParseMethod(dyn.Descriptor)
	if err != nil {
		return err
	}
	args, err := ctx.popArgs(argTypes)
	if err != nil {
		return err
	}
	if dyn.BootstrapIndex >= len(b.class.Bootstrap) {
		return failure.New(failure.KindMalformedClass, "bootstrap method %d out of range at %d", dyn.BootstrapIndex, insn.Offset)
	}
	bsm := b.class.Bootstrap[dyn.BootstrapIndex]
	owner, name := bsm.Handle.Member.Owner, bsm.Handle.Member.Name

	switch {
	case owner == "java/lang/invoke/StringConcatFactory" && name == "makeConcatWithConstants" && len(bsm.Arguments) > 0:
		recipe, ok := bsm.Arguments[0].(string)
		if !ok {
			return failure.New(failure.KindUnsupportedConstant, "concat recipe is %T at %d", bsm.Arguments[0], insn.Offset)
		}
		c, err := concatFromRecipe(recipe, args, bsm.Arguments[1:])
		if err != nil {
			return err
		}
		ctx.Push(c)
		return nil
	case owner == "java/lang/invoke/StringConcatFactory" && name == "makeConcat":
		ctx.Push(&Concat{Parts: args})
		return nil
	case owner == "java/lang/invoke/LambdaMetafactory" && len(bsm.Arguments) > 1:
		if impl, ok := bsm.Arguments[1].(classfile.MethodHandle); ok {
			ctx.Push(methodRef(impl, args, ret))
			return nil
		}
	}
	b.result(&DynamicCall{Name: dyn.Name, Args: args, typ: ret})
	return nil
}

// methodRef builds the method reference a LambdaMetafactory call site creates for impl
func methodRef(impl classfile.MethodHandle, captured []Operation, t types.Type) *MethodRef {
	ref := &MethodRef{Name: impl.Member.Name, typ: t}
	owner, err := types.FromInternal(impl.Member.Owner)
	if err != nil {
		owner = types.Object
	}
	ref.Owner = owner
	switch {
	case impl.Kind == refNewInvokeSpecial:
		ref.Name = "new"
	case len(captured) > 0 && (impl.Kind == refInvokeVirtual || impl.Kind == refInvokeInterface || impl.Kind == refInvokeSpecial):
		ref.Receiver = captured[0]
	}
	return ref
}

// unifyOperands narrows the operands of a comparison to their common kinds, so a char
// compared with a literal renders the literal as a char
func unifyOperands(left, right Operation) {
	lt, lerr := types.Narrow(left.Type(), right.Type())
	rt, rerr := types.Narrow(right.Type(), left.Type())
	if lerr != nil || rerr != nil || lt != rt {
		return
	}
	narrowOp(left, lt)
	narrowOp(right, lt)
}
