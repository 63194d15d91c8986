package classfile

import (
	"fmt"
	"strings"

	"github.com/petr590/NewYava-sub001/failure"
)

// References holds the library and internal method calls within a class file code
type References struct {
	Library  []MethodCall // Library is a list of all library method calls
	Internal []MethodCall // Internal is a list of all internal method calls
}

// MethodCall is a descriptor of a code method call
type MethodCall struct {
	Op     Opcode // Op is the operator of the call
	Caller string // Caller is the name and descriptor of the calling method
	Owner  string // Owner is the method package path
	Method string // Method is the method name
	Args   string // Args is the descriptor used to invoke the method
}

func (m MethodCall) String() string {
	return fmt.Sprintf("%s %s.%s%s", m.Op, m.Owner, m.Method, m.Args)
}

// libraryPrefixes are the package prefixes of the Java platform
var libraryPrefixes = []string{"java/", "javax/", "jdk/", "sun/"}

// IsLibrary reports whether the internal class name belongs to the Java platform
func IsLibrary(owner string) bool {
	for _, p := range libraryPrefixes {
		if strings.HasPrefix(owner, p) {
			return true
		}
	}
	return false
}

// CollectReferences disassembles the code of every method and fetches the internal and library
// method calls within it
func (c *Class) CollectReferences() (References, error) {
	var refs References
	for _, m := range c.Methods {
		if m.Code == nil {
			continue
		}
		insns, err := Disassemble(m.Code.Bytecode)
		if err != nil {
			return refs, errorf(err, "failed to inspect code attribute for %s method %s", strings.Join(Modifiers(m.AccessFlags, EntryMethod), " "), m.Name)
		}
		for _, insn := range insns {
			switch insn.Opcode {
			case INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC, INVOKEINTERFACE:
			default:
				continue
			}
			member, err := c.Pool.Member(insn.Index)
			if err != nil {
				return refs, failure.Wrap(failure.KindDisassembly, err, "failed to fetch invoke constant at %d of %s", insn.Offset, m.Name)
			}
			call := MethodCall{Op: insn.Opcode, Caller: m.Name + m.Descriptor, Owner: member.Owner, Method: member.Name, Args: member.Descriptor}
			// Java library methods have the package prefix of java (i.e., java/io/PrintWriter)
			if IsLibrary(call.Owner) {
				refs.Library = append(refs.Library, call)
			} else {
				refs.Internal = append(refs.Internal, call)
			}
		}
	}
	return refs, nil
}

// errorf keeps the failure kind of err while adding context
func errorf(err error, format string, args ...interface{}) error {
	return failure.Wrap(failure.KindOf(err), err, format, args...)
}
