package failure

import (
	"fmt"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindStackUnderflow, "pop at %d", 4)
	assert.Equal(t, KindStackUnderflow, KindOf(err))
	assert.True(t, Is(err, KindStackUnderflow))
	assert.False(t, Is(err, KindNoSuchVariable))
	assert.EqualError(t, err, "stack-underflow: pop at 4")

	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.False(t, Is(nil, KindUnknown))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(KindMalformedClass, nil, "ignored"))

	err := Wrap(KindMalformedClass, io.ErrUnexpectedEOF, "reading %s", "Main.class")
	assert.Equal(t, KindMalformedClass, KindOf(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.EqualError(t, err, "malformed-class: reading Main.class: unexpected EOF")

	// the outermost tag wins
	outer := Wrap(KindUnstructuredJump, New(KindStackUnderflow, "inner"), "outer")
	assert.Equal(t, KindUnstructuredJump, KindOf(outer))
}

func TestStackTrace(t *testing.T) {
	err := New(KindUnknownInstruction, "jsr at 0")
	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "unknown-instruction: jsr at 0")
	assert.Contains(t, detailed, "TestStackTrace")
}

func TestMemberError(t *testing.T) {
	cause := New(KindTypeSizeMismatch, "slot 1")
	err := &MemberError{Owner: "com/example/Main", Name: "run", Descriptor: "()V", Err: cause}
	assert.Equal(t, KindTypeSizeMismatch, err.Kind())
	assert.EqualError(t, err, "com/example/Main.run()V: type-size-mismatch: slot 1")

	var wrapped error = errors.Wrap(err, "decompiling")
	var member *MemberError
	require.True(t, errors.As(wrapped, &member))
	assert.Equal(t, "run", member.Name)
	assert.Equal(t, KindTypeSizeMismatch, KindOf(wrapped))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "descriptor-invalid", KindInvalidDescriptor.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
