package hdf5

import (
	stdbinary "encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/batchatco/go-thrower"
	"golang.org/x/text/encoding/charmap"

	binpkg "github.com/pcafrica/dealii/internal/binary"
	"github.com/pcafrica/dealii/internal/heap"
	"github.com/pcafrica/dealii/internal/message"
)

// Attr reads a scalar numeric attribute.
func Attr[T Element](holder Attributed, name string) (T, error) {
	var zero T
	o := holder.object()
	if err := o.checkOpen(); err != nil {
		return zero, err
	}
	if err := o.ensureLoaded(); err != nil {
		return zero, err
	}
	attr := o.findAttribute(name)
	if attr == nil {
		return zero, fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	td := newTypeDescriptor[T]()
	defer td.Close()
	if !td.compatibleWith(attr.Datatype) || len(attr.Data) < td.size {
		return zero, fmt.Errorf("%w: attribute %q", ErrTypeMismatch, name)
	}
	return decodeElements[T](attr.Data, 1)[0], nil
}

// WriteAttr stores a scalar numeric attribute, replacing any existing
// attribute of the same name.
func WriteAttr[T Element](holder Attributed, name string, value T) error {
	o := holder.object()
	if err := o.checkWritable(); err != nil {
		return err
	}
	td := newTypeDescriptor[T]()
	defer td.Close()
	attr := message.NewScalarAttribute(name, td.Message(), encodeElements([]T{value}))
	return o.setAttribute(attr)
}

// AttrMatrix reads a rank-2 attribute into a FullMatrix.
func AttrMatrix[T Element](holder Attributed, name string) (*FullMatrix[T], error) {
	o := holder.object()
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	if err := o.ensureLoaded(); err != nil {
		return nil, err
	}
	attr := o.findAttribute(name)
	if attr == nil {
		return nil, fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	if attr.Dataspace == nil || attr.Dataspace.Rank != 2 {
		thrower.Throw(fmt.Errorf("%w: attribute %q is not rank 2", ErrDimensionMismatch, name))
	}
	td := newTypeDescriptor[T]()
	defer td.Close()
	rows := int(attr.Dataspace.Dimensions[0])
	cols := int(attr.Dataspace.Dimensions[1])
	if !td.compatibleWith(attr.Datatype) || len(attr.Data) < rows*cols*td.size {
		return nil, fmt.Errorf("%w: attribute %q", ErrTypeMismatch, name)
	}
	m := NewFullMatrix[T](rows, cols)
	copy(m.data, decodeElements[T](attr.Data, rows*cols))
	return m, nil
}

// WriteAttrMatrix stores a rank-2 attribute.
func WriteAttrMatrix[T Element](holder Attributed, name string, m Matrix[T]) error {
	o := holder.object()
	if err := o.checkWritable(); err != nil {
		return err
	}
	data := m.Data()
	if len(data) != m.Rows()*m.Cols() {
		thrower.Throw(fmt.Errorf("%w: matrix data length %d for %dx%d", ErrDimensionMismatch, len(data), m.Rows(), m.Cols()))
	}
	td := newTypeDescriptor[T]()
	defer td.Close()
	space := message.NewDataspace([]uint64{uint64(m.Rows()), uint64(m.Cols())})
	attr := message.NewAttribute(name, td.Message(), space, encodeElements(data))
	return o.setAttribute(attr)
}

// AttrBool reads a boolean attribute. Booleans are stored as fixed-point
// integers; any nonzero value reads as true.
func (o *Object) AttrBool(name string) (bool, error) {
	if err := o.checkOpen(); err != nil {
		return false, err
	}
	if err := o.ensureLoaded(); err != nil {
		return false, err
	}
	attr := o.findAttribute(name)
	if attr == nil {
		return false, fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	dt := attr.Datatype
	if dt == nil || !dt.IsInteger() || len(attr.Data) < int(dt.Size) {
		return false, fmt.Errorf("%w: attribute %q", ErrTypeMismatch, name)
	}
	v := binpkg.DecodeUint(attr.Data[:dt.Size], int(dt.Size), stdbinary.LittleEndian)
	return v != 0, nil
}

// WriteAttrBool stores a boolean attribute as a 4-byte integer.
func (o *Object) WriteAttrBool(name string, value bool) error {
	var v int32
	if value {
		v = 1
	}
	return WriteAttr(o, name, v)
}

// AttrString reads a string attribute. Both variable-length and fixed-length
// string datatypes are accepted. Bytes that are not valid UTF-8 are decoded
// as Latin-1.
func (o *Object) AttrString(name string) (string, error) {
	if err := o.checkOpen(); err != nil {
		return "", err
	}
	if err := o.ensureLoaded(); err != nil {
		return "", err
	}
	attr := o.findAttribute(name)
	if attr == nil {
		return "", fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	dt := attr.Datatype
	switch {
	case dt != nil && dt.Class == message.ClassVarLen && dt.IsVarLenString:
		if len(attr.Data) < 8 {
			return "", fmt.Errorf("%w: attribute %q: truncated heap reference", ErrTypeMismatch, name)
		}
		id, err := heap.ParseGlobalHeapID(attr.Data[4:], o.file.reader.OffsetSize())
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", name, err)
		}
		gh, err := heap.ReadGlobalHeap(o.file.reader, id.CollectionAddress)
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", name, err)
		}
		raw, err := gh.GetBytes(uint16(id.ObjectIndex))
		if err != nil {
			return "", fmt.Errorf("attribute %q: %w", name, err)
		}
		return decodeText(raw), nil
	case dt != nil && dt.IsString():
		raw := attr.Data
		for len(raw) > 0 && raw[len(raw)-1] == 0 {
			raw = raw[:len(raw)-1]
		}
		return decodeText(raw), nil
	default:
		return "", fmt.Errorf("%w: attribute %q is not a string", ErrTypeMismatch, name)
	}
}

// WriteAttrString stores a variable-length UTF-8 string attribute. The
// string bytes go to a global heap collection; the attribute holds a
// reference to them.
func (o *Object) WriteAttrString(name, value string) error {
	if err := o.checkWritable(); err != nil {
		return err
	}
	idx := o.file.strings.AddString(value)
	_, ids, err := o.file.strings.Flush()
	if err != nil {
		return fmt.Errorf("writing string heap for attribute %q: %w", name, err)
	}
	id := ids[idx]
	offsetSize := o.file.writer.OffsetSize()
	raw := make([]byte, 4+offsetSize+4)
	stdbinary.LittleEndian.PutUint32(raw, uint32(len(value)))
	binpkg.EncodeUint(raw[4:], id.CollectionAddress, offsetSize, stdbinary.LittleEndian)
	stdbinary.LittleEndian.PutUint32(raw[4+offsetSize:], id.ObjectIndex)
	dt := message.NewVarLenStringDatatype(message.CharsetUTF8)
	attr := message.NewScalarAttribute(name, dt, raw)
	return o.setAttribute(attr)
}

func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
