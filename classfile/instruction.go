package classfile

import (
	"fmt"

	"github.com/petr590/NewYava-sub001/failure"
)

// Instruction is a decoded instruction. Short forms are normalized: iload_1 decodes as ILOAD
// with Index 1, iconst_3 as BIPUSH with Value 3, goto_w as GOTO and ldc_w as LDC.
type Instruction struct {
	Offset int     // Offset is the instruction position in the bytecode
	Length int     // Length is the instruction size in bytes
	Opcode Opcode  // Opcode is the normalized operator
	Index  int     // Index is the local slot or constant pool index operand
	Value  int32   // Value is the immediate operand (push value, iinc delta, array type, dimensions)
	Target int     // Target is the absolute jump target of branches
	Switch *Switch // Switch holds the tableswitch and lookupswitch operands
	Wide   bool    // Wide tells whether the instruction was prefixed by wide
}

// Switch is the decoded operand of tableswitch and lookupswitch, with absolute targets
type Switch struct {
	Default int     // Default is the default target
	Keys    []int32 // Keys are the case values, in bytecode order
	Targets []int   // Targets are the case targets, parallel to Keys
}

func (i *Instruction) String() string {
	switch {
	case i.Switch != nil:
		return fmt.Sprintf("%d: %s %v -> %v default %d", i.Offset, i.Opcode, i.Switch.Keys, i.Switch.Targets, i.Switch.Default)
	case i.Opcode.IsConditionalJump() || i.Opcode.IsUnconditionalJump():
		return fmt.Sprintf("%d: %s %d", i.Offset, i.Opcode, i.Target)
	}
	return fmt.Sprintf("%d: %s", i.Offset, i.Opcode)
}

// shortForm is the normalized opcode and implicit slot of an operand-less variant
type shortForm struct {
	op    Opcode
	index int
}

// shortForms maps the operand-less load and store variants to their normalized form
var shortForms = map[Opcode]shortForm{}

func init() {
	for i, op := range []Opcode{ILOAD, LLOAD, FLOAD, DLOAD, ALOAD} {
		for n := 0; n < 4; n++ {
			shortForms[ILOAD_0+Opcode(i*4+n)] = shortForm{op, n}
		}
	}
	for i, op := range []Opcode{ISTORE, LSTORE, FSTORE, DSTORE, ASTORE} {
		for n := 0; n < 4; n++ {
			shortForms[ISTORE_0+Opcode(i*4+n)] = shortForm{op, n}
		}
	}
}

// Disassemble decodes the whole bytecode of a method. Undefined opcodes fail with an
// unknown instruction failure, truncated or inconsistent streams with a disassembly failure.
func Disassemble(code []byte) ([]*Instruction, error) {
	r := newByteCodeReader(code)
	var res []*Instruction
	for r.remaining() > 0 {
		insn, err := decode(r)
		if err != nil {
			return nil, err
		}
		res = append(res, insn)
	}
	// Verify every branch lands on an instruction boundary
	starts := make(map[int]struct{}, len(res))
	for _, insn := range res {
		starts[insn.Offset] = struct{}{}
	}
	for _, insn := range res {
		targets := []int{}
		if insn.Opcode.IsConditionalJump() || insn.Opcode.IsUnconditionalJump() || insn.Opcode == JSR {
			targets = append(targets, insn.Target)
		}
		if insn.Switch != nil {
			targets = append(targets, insn.Switch.Default)
			targets = append(targets, insn.Switch.Targets...)
		}
		for _, t := range targets {
			if _, ok := starts[t]; !ok {
				return nil, failure.New(failure.KindDisassembly, "%s jumps to %d, not an instruction boundary", insn, t)
			}
		}
	}
	return res, nil
}

// decode reads a single instruction. The cursor moves according to the operator size
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.9.1
func decode(r *byteCodeReader) (*Instruction, error) {
	offset := r.offset
	b, err := r.readU8()
	if err != nil {
		return nil, failure.Wrap(failure.KindDisassembly, err, "failed to read opcode at %d", offset)
	}
	op := Opcode(b)
	if !op.IsValid() {
		return nil, failure.New(failure.KindUnknownInstruction, "unknown operation 0x%02x at %d", b, offset)
	}
	insn := &Instruction{Offset: offset, Opcode: op}
	if err := decodeOperands(r, insn); err != nil {
		return nil, failure.Wrap(failure.KindDisassembly, err, "failed to decode %s at %d", op, offset)
	}
	insn.Length = r.offset - offset
	return insn, nil
}

func decodeOperands(r *byteCodeReader, insn *Instruction) error {
	op := insn.Opcode
	if short, ok := shortForms[op]; ok {
		insn.Opcode, insn.Index = short.op, short.index
		return nil
	}
	if op >= ICONST_M1 && op <= ICONST_5 {
		insn.Opcode, insn.Value = BIPUSH, int32(op)-int32(ICONST_0)
		return nil
	}
	switch op {
	case IFEQ, IFNE, IFLT, IFGE, IFGT, IFLE, IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE, IF_ICMPGT, IF_ICMPLE, IF_ACMPEQ, IF_ACMPNE, GOTO, JSR, IFNULL, IFNONNULL:
		delta, err := r.readS16()
		if err != nil {
			return err
		}
		insn.Target = insn.Offset + int(delta)
	case GOTO_W, JSR_W:
		delta, err := r.readS32()
		if err != nil {
			return err
		}
		insn.Target = insn.Offset + int(delta)
		if op == GOTO_W {
			insn.Opcode = GOTO
		} else {
			insn.Opcode = JSR
		}
	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD, ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, RET:
		index, err := r.readU8()
		if err != nil {
			return err
		}
		insn.Index = int(index)
	case NEW, ANEWARRAY, CHECKCAST, INSTANCEOF, GETSTATIC, PUTSTATIC, GETFIELD, PUTFIELD, INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC, LDC_W, LDC2_W:
		index, err := r.readU16()
		if err != nil {
			return err
		}
		insn.Index = int(index)
		if op == LDC_W {
			insn.Opcode = LDC
		}
	case INVOKEINTERFACE:
		index, err := r.readU16()
		if err != nil {
			return err
		}
		insn.Index = int(index)
		// count and the zero byte
		if err = r.skip(jvmSizeOfUint8 + jvmSizeOfUint8); err != nil {
			return err
		}
	case INVOKEDYNAMIC:
		index, err := r.readU16()
		if err != nil {
			return err
		}
		insn.Index = int(index)
		if err = r.skip(jvmSizeOfUint16); err != nil {
			return err
		}
	case LDC:
		index, err := r.readU8()
		if err != nil {
			return err
		}
		insn.Index = int(index)
	case MULTIANEWARRAY:
		index, err := r.readU16()
		if err != nil {
			return err
		}
		dims, err := r.readU8()
		if err != nil {
			return err
		}
		insn.Index, insn.Value = int(index), int32(dims)
	case BIPUSH:
		v, err := r.readS8()
		if err != nil {
			return err
		}
		insn.Value = int32(v)
	case SIPUSH:
		v, err := r.readS16()
		if err != nil {
			return err
		}
		insn.Value = int32(v)
	case IINC:
		index, err := r.readU8()
		if err != nil {
			return err
		}
		delta, err := r.readS8()
		if err != nil {
			return err
		}
		insn.Index, insn.Value = int(index), int32(delta)
	case WIDE:
		return decodeWide(r, insn)
	case NEWARRAY:
		atype, err := r.readU8()
		if err != nil {
			return err
		}
		if _, ok := ArrayTypeDescriptors[int(atype)]; !ok {
			return fmt.Errorf("invalid newarray type %d", atype)
		}
		insn.Value = int32(atype)
	case TABLESWITCH:
		return decodeTableSwitch(r, insn)
	case LOOKUPSWITCH:
		return decodeLookupSwitch(r, insn)
	}
	return nil
}

// decodeWide reads the wide prefixed instruction
func decodeWide(r *byteCodeReader, insn *Instruction) error {
	inner, err := r.readU8()
	if err != nil {
		return err
	}
	op := Opcode(inner)
	switch op {
	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD, ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, RET, IINC:
	default:
		return fmt.Errorf("%s cannot be wide", op)
	}
	index, err := r.readU16()
	if err != nil {
		return err
	}
	insn.Opcode, insn.Index, insn.Wide = op, int(index), true
	if op == IINC {
		delta, err := r.readS16()
		if err != nil {
			return err
		}
		insn.Value = int32(delta)
	}
	return nil
}

// switchPadding skips the alignment bytes following the switch opcode.
// When the code array is read into memory on a byte-addressable machine, if the first byte of the array is aligned on a 4-byte boundary,
// the tableswitch and lookupswitch 32-bit offsets will be 4-byte aligned.
// See: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.7.3
func switchPadding(r *byteCodeReader, offset int) error {
	bytesCount := (3 - offset) % 4
	// Golang modulus can return negative reminder
	if bytesCount < 0 {
		bytesCount += 4
	}
	return r.skip(bytesCount)
}

func decodeTableSwitch(r *byteCodeReader, insn *Instruction) error {
	if err := switchPadding(r, insn.Offset); err != nil {
		return err
	}
	def, err := r.readS32()
	if err != nil {
		return err
	}
	low, err := r.readS32()
	if err != nil {
		return err
	}
	high, err := r.readS32()
	if err != nil {
		return err
	}
	if high < low {
		return fmt.Errorf("tableswitch high %d is lower than low %d", high, low)
	}
	count := int(high) - int(low) + 1
	if count*jvmSizeOfInt32 > r.remaining() {
		return errIndexOutOfRange
	}
	sw := &Switch{Default: insn.Offset + int(def)}
	for i := 0; i < count; i++ {
		delta, err := r.readS32()
		if err != nil {
			return err
		}
		sw.Keys = append(sw.Keys, low+int32(i))
		sw.Targets = append(sw.Targets, insn.Offset+int(delta))
	}
	insn.Switch = sw
	return nil
}

// decodeLookupSwitch reads the lookupswitch operands
// see: https://docs.oracle.com/javase/specs/jvms/se7/html/jvms-4.html#jvms-4.10.1.9.lookupswitch
func decodeLookupSwitch(r *byteCodeReader, insn *Instruction) error {
	if err := switchPadding(r, insn.Offset); err != nil {
		return err
	}
	def, err := r.readS32()
	if err != nil {
		return err
	}
	count, err := r.readS32()
	if err != nil {
		return err
	}
	if count < 0 || int(count)*(jvmSizeOfInt32+jvmSizeOfInt32) > r.remaining() {
		return fmt.Errorf("invalid lookupswitch pairs count %d", count)
	}
	sw := &Switch{Default: insn.Offset + int(def)}
	for i := 0; i < int(count); i++ {
		key, err := r.readS32()
		if err != nil {
			return err
		}
		delta, err := r.readS32()
		if err != nil {
			return err
		}
		sw.Keys = append(sw.Keys, key)
		sw.Targets = append(sw.Targets, insn.Offset+int(delta))
	}
	insn.Switch = sw
	return nil
}
