package hdf5

import (
	stdbinary "encoding/binary"
	"math"

	"github.com/pcafrica/dealii/internal/message"
)

// Element is the closed set of native element types that datasets and
// numeric attributes can hold. Complex values are stored as a compound of
// two floats, the real part at offset zero.
type Element interface {
	float32 | float64 | complex64 | complex128 | int32 | uint32 | int64 | uint64
}

// TypeDescriptor pairs a file datatype with the in-memory size of one
// element. Descriptors for native numeric types alias library constants and
// releasing them is a no-op; compound descriptors own their datatype and are
// disposed when their handle count reaches zero.
type TypeDescriptor struct {
	message *message.Datatype
	size    int
	handle  *Handle
}

// Message returns the file representation of the datatype.
func (t *TypeDescriptor) Message() *message.Datatype { return t.message }

// Size returns the size in bytes of one element.
func (t *TypeDescriptor) Size() int { return t.size }

// Handle returns the handle guarding the descriptor.
func (t *TypeDescriptor) Handle() *Handle { return t.handle }

// Close releases the descriptor's handle.
func (t *TypeDescriptor) Close() error { return t.handle.Release() }

func newTypeDescriptor[T Element]() *TypeDescriptor {
	var zero T
	switch any(zero).(type) {
	case float32:
		return aliasDescriptor(message.NewFloatDatatype(4, message.OrderLE), 4)
	case float64:
		return aliasDescriptor(message.NewFloatDatatype(8, message.OrderLE), 8)
	case int32:
		return aliasDescriptor(message.NewFixedPointDatatype(4, true, message.OrderLE), 4)
	case uint32:
		return aliasDescriptor(message.NewFixedPointDatatype(4, false, message.OrderLE), 4)
	case int64:
		return aliasDescriptor(message.NewFixedPointDatatype(8, true, message.OrderLE), 8)
	case uint64:
		return aliasDescriptor(message.NewFixedPointDatatype(8, false, message.OrderLE), 8)
	case complex64:
		return complexDescriptor(4)
	case complex128:
		return complexDescriptor(8)
	}
	panic("unreachable")
}

func aliasDescriptor(dt *message.Datatype, size int) *TypeDescriptor {
	return &TypeDescriptor{message: dt, size: size, handle: NewHandle(nil)}
}

func complexDescriptor(fieldSize uint32) *TypeDescriptor {
	fieldType := message.NewFloatDatatype(fieldSize, message.OrderLE)
	dt := message.NewCompoundDatatype(2*fieldSize, []message.CompoundMember{
		{Name: "r", ByteOffset: 0, Type: fieldType},
		{Name: "i", ByteOffset: fieldSize, Type: fieldType},
	})
	td := &TypeDescriptor{message: dt, size: int(2 * fieldSize)}
	td.handle = NewHandle(func() error {
		td.message = nil
		return nil
	})
	return td
}

// compatibleWith reports whether a stored datatype can be read as this
// descriptor's element type.
func (t *TypeDescriptor) compatibleWith(stored *message.Datatype) bool {
	if stored == nil {
		return false
	}
	return stored.Class == t.message.Class && int(stored.Size) == t.size
}

func encodeElements[T Element](src []T) []byte {
	switch s := any(src).(type) {
	case []float32:
		buf := make([]byte, 4*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		return buf
	case []float64:
		buf := make([]byte, 8*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
		return buf
	case []complex64:
		buf := make([]byte, 8*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(real(v)))
			stdbinary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(imag(v)))
		}
		return buf
	case []complex128:
		buf := make([]byte, 16*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(real(v)))
			stdbinary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(imag(v)))
		}
		return buf
	case []int32:
		buf := make([]byte, 4*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
		}
		return buf
	case []uint32:
		buf := make([]byte, 4*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint32(buf[4*i:], v)
		}
		return buf
	case []int64:
		buf := make([]byte, 8*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
		}
		return buf
	case []uint64:
		buf := make([]byte, 8*len(s))
		for i, v := range s {
			stdbinary.LittleEndian.PutUint64(buf[8*i:], v)
		}
		return buf
	}
	panic("unreachable")
}

func decodeElements[T Element](raw []byte, n int) []T {
	out := make([]T, n)
	switch o := any(out).(type) {
	case []float32:
		for i := range o {
			o[i] = math.Float32frombits(stdbinary.LittleEndian.Uint32(raw[4*i:]))
		}
	case []float64:
		for i := range o {
			o[i] = math.Float64frombits(stdbinary.LittleEndian.Uint64(raw[8*i:]))
		}
	case []complex64:
		for i := range o {
			re := math.Float32frombits(stdbinary.LittleEndian.Uint32(raw[8*i:]))
			im := math.Float32frombits(stdbinary.LittleEndian.Uint32(raw[8*i+4:]))
			o[i] = complex(re, im)
		}
	case []complex128:
		for i := range o {
			re := math.Float64frombits(stdbinary.LittleEndian.Uint64(raw[16*i:]))
			im := math.Float64frombits(stdbinary.LittleEndian.Uint64(raw[16*i+8:]))
			o[i] = complex(re, im)
		}
	case []int32:
		for i := range o {
			o[i] = int32(stdbinary.LittleEndian.Uint32(raw[4*i:]))
		}
	case []uint32:
		for i := range o {
			o[i] = stdbinary.LittleEndian.Uint32(raw[4*i:])
		}
	case []int64:
		for i := range o {
			o[i] = int64(stdbinary.LittleEndian.Uint64(raw[8*i:]))
		}
	case []uint64:
		for i := range o {
			o[i] = stdbinary.LittleEndian.Uint64(raw[8*i:])
		}
	}
	return out
}
