// Package failure holds the error taxonomy shared by every decompilation stage.
//
// Errors are created with a stack trace (github.com/pkg/errors) so a failure stub can
// carry the diagnostic detail, and are classified with KindOf at the reporting boundary.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the taxonomy tag of a decompilation failure
type Kind int

const (
	KindUnknown             Kind = iota // KindUnknown is reported for errors created outside of this package
	KindInvalidDescriptor               // KindInvalidDescriptor is a malformed or structurally invalid field/method descriptor
	KindUnknownInstruction              // KindUnknownInstruction is an opcode the interpreter does not recognize or support
	KindTypeSizeMismatch                // KindTypeSizeMismatch is a stack value whose width disagrees with its consumer
	KindIncompatibleType                // KindIncompatibleType is a stack value that cannot flow into the required type
	KindNoSuchVariable                  // KindNoSuchVariable is a local slot read without a resolvable binding
	KindIllegalModifiers                // KindIllegalModifiers is an access flag combination invalid for the entry kind
	KindDisassembly                     // KindDisassembly is an instruction stream the reader could not decode
	KindMalformedClass                  // KindMalformedClass is a class file the reader could not parse
	KindUnsupportedConstant             // KindUnsupportedConstant is a raw value with no constant representation
	KindStackUnderflow                  // KindStackUnderflow is a pop from an empty simulated operand stack
	KindUnstructuredJump                // KindUnstructuredJump is a jump no block structure can express
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindInvalidDescriptor:   "descriptor-invalid",
	KindUnknownInstruction:  "unknown-instruction",
	KindTypeSizeMismatch:    "type-size-mismatch",
	KindIncompatibleType:    "incompatible-type",
	KindNoSuchVariable:      "no-such-variable",
	KindIllegalModifiers:    "illegal-modifiers",
	KindDisassembly:         "disassembly-failure",
	KindMalformedClass:      "malformed-class",
	KindUnsupportedConstant: "unsupported-constant",
	KindStackUnderflow:      "stack-underflow",
	KindUnstructuredJump:    "unstructured-jump",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a tagged decompilation error
type Error struct {
	Kind  Kind   // Kind is the taxonomy tag
	msg   string // msg is the human readable detail
	cause error  // cause is the optional underlying error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap returns the underlying error, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a tagged error carrying the current stack trace
func New(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, msg: fmt.Sprintf(format, args...)})
}

// Wrap tags err with the given kind. Wrapping a nil error returns nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: err})
}

// KindOf returns the outermost taxonomy tag found in the error chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MemberError reports the failure of a single class member together with its identity,
// so a caller can log it, skip it or emit a placeholder instead of the member.
type MemberError struct {
	Owner      string // Owner is the internal name of the declaring class
	Name       string // Name is the member name
	Descriptor string // Descriptor is the raw member descriptor
	Err        error  // Err is the tagged cause
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s.%s%s: %v", e.Owner, e.Name, e.Descriptor, e.Err)
}

// Unwrap returns the tagged cause
func (e *MemberError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy tag of the cause
func (e *MemberError) Kind() Kind {
	return KindOf(e.Err)
}
