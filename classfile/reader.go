package classfile

import (
	"encoding/binary"
	"errors"
)

const (
	// Integers byte sizes
	jvmSizeOfUint64 = 8
	jvmSizeOfUint32 = 4
	jvmSizeOfInt32  = 4
	jvmSizeOfUint16 = 2
	jvmSizeOfUint8  = 1
)

// byteCodeReader is the class bytecode reader.
// The reader holds a cursor for the current position on the binary file, and moves the cursor on every read accordingly
type byteCodeReader struct {
	data   []byte
	offset int
}

var errIndexOutOfRange = errors.New("index out of range")

func newByteCodeReader(data []byte) *byteCodeReader {
	return &byteCodeReader{data: data}
}

// remaining returns the number of unread bytes
func (r *byteCodeReader) remaining() int {
	return len(r.data) - r.offset
}

// readU64 reads a unsigned int 64 size bytes stored in big endian sequence
func (r *byteCodeReader) readU64() (uint64, error) {
	if len(r.data) < r.offset+jvmSizeOfUint64 {
		return 0, errIndexOutOfRange
	}
	res := binary.BigEndian.Uint64(r.data[r.offset : r.offset+jvmSizeOfUint64])
	r.offset += jvmSizeOfUint64
	return res, nil
}

// readU32 reads a unsigned int 32 size bytes stored in big endian sequence
func (r *byteCodeReader) readU32() (uint32, error) {
	if len(r.data) < r.offset+jvmSizeOfUint32 {
		return 0, errIndexOutOfRange
	}
	res := binary.BigEndian.Uint32(r.data[r.offset : r.offset+jvmSizeOfUint32])
	r.offset += jvmSizeOfUint32
	return res, nil
}

// readS32 reads a signed int 32 size bytes stored in big endian sequence
func (r *byteCodeReader) readS32() (int32, error) {
	res, err := r.readU32()
	return int32(res), err
}

// readU16 reads a unsigned int 16 size bytes stored in big endian sequence
func (r *byteCodeReader) readU16() (uint16, error) {
	if len(r.data) < r.offset+jvmSizeOfUint16 {
		return 0, errIndexOutOfRange
	}
	res := binary.BigEndian.Uint16(r.data[r.offset : r.offset+jvmSizeOfUint16])
	r.offset += jvmSizeOfUint16
	return res, nil
}

// readS16 reads a signed int 16 size bytes stored in big endian sequence
func (r *byteCodeReader) readS16() (int16, error) {
	res, err := r.readU16()
	return int16(res), err
}

// readU8 reads a single unsigned byte
func (r *byteCodeReader) readU8() (uint8, error) {
	if len(r.data) <= r.offset {
		return 0, errIndexOutOfRange
	}
	res := r.data[r.offset]
	r.offset += jvmSizeOfUint8
	return res, nil
}

// readS8 reads a single signed byte
func (r *byteCodeReader) readS8() (int8, error) {
	res, err := r.readU8()
	return int8(res), err
}

// readBytes reads an offset size sequence from the raw data
func (r *byteCodeReader) readBytes(offset int) ([]byte, error) {
	if offset < 0 || len(r.data) < r.offset+offset {
		return nil, errIndexOutOfRange
	}
	bytes := r.data[r.offset : r.offset+offset]
	r.offset += offset
	return bytes, nil
}

// skip moves the cursor forward without reading
func (r *byteCodeReader) skip(n int) error {
	if n < 0 || len(r.data) < r.offset+n {
		return errIndexOutOfRange
	}
	r.offset += n
	return nil
}
