package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

// Attribute represents an attribute message (type 0x000C).
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("attribute message too short")
	}

	attr := &Attribute{Version: data[0]}
	nameSize := int(binary.LittleEndian.Uint16(data[2:4]))
	dtSize := int(binary.LittleEndian.Uint16(data[4:6]))
	dsSize := int(binary.LittleEndian.Uint16(data[6:8]))

	// Version 1 pads name/datatype/dataspace to 8-byte boundaries; versions
	// 2 and 3 pack them, and version 3 adds a name encoding byte.
	var padded bool
	offset := 8
	switch attr.Version {
	case 1:
		padded = true
	case 2:
	case 3:
		offset = 9
	default:
		return nil, fmt.Errorf("unsupported attribute version: %d", attr.Version)
	}

	pad := func(n int) int {
		if padded && n%8 != 0 {
			return n + 8 - n%8
		}
		return n
	}

	if offset+nameSize > len(data) {
		return nil, fmt.Errorf("attribute name truncated")
	}
	nameEnd := offset
	for nameEnd < offset+nameSize && data[nameEnd] != 0 {
		nameEnd++
	}
	attr.Name = string(data[offset:nameEnd])
	offset = pad(offset + nameSize)

	if offset+dtSize > len(data) {
		return nil, fmt.Errorf("attribute datatype truncated")
	}
	if dt, err := parseDatatype(data[offset:offset+dtSize], r); err == nil {
		attr.Datatype = dt
	}
	offset = pad(offset + dtSize)

	if offset+dsSize > len(data) {
		return nil, fmt.Errorf("attribute dataspace truncated")
	}
	if ds, err := parseDataspace(data[offset:offset+dsSize], r); err == nil {
		attr.Dataspace = ds
	}
	offset = pad(offset + dsSize)

	if offset < len(data) {
		attr.Data = make([]byte, len(data)-offset)
		copy(attr.Data, data[offset:])
	}

	return attr, nil
}

// NewScalarAttribute creates a version 3 scalar attribute.
func NewScalarAttribute(name string, datatype *Datatype, data []byte) *Attribute {
	return &Attribute{
		Version:   3,
		Name:      name,
		Datatype:  datatype,
		Dataspace: NewScalarDataspace(),
		Data:      data,
	}
}

// NewAttribute creates a version 3 attribute with the given dataspace.
func NewAttribute(name string, datatype *Datatype, dataspace *Dataspace, data []byte) *Attribute {
	return &Attribute{
		Version:   3,
		Name:      name,
		Datatype:  datatype,
		Dataspace: dataspace,
		Data:      data,
	}
}

// Serialize writes the Attribute message in version 3 format.
func (m *Attribute) Serialize(w *binpkg.Writer) error {
	nameSize := uint16(len(m.Name) + 1)
	dtSize := m.Datatype.SerializedSize(w)
	dsSize := m.Dataspace.SerializedSize(w)

	if err := w.WriteUint8(3); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil { // flags
		return err
	}
	if err := w.WriteUint16(nameSize); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(dtSize)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(dsSize)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil { // name encoding: ASCII
		return err
	}
	if err := w.WriteBytes([]byte(m.Name)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	if err := m.Datatype.Serialize(w); err != nil {
		return err
	}
	if err := m.Dataspace.Serialize(w); err != nil {
		return err
	}
	return w.WriteBytes(m.Data)
}

// SerializedSize returns the size in bytes when serialized.
func (m *Attribute) SerializedSize(w *binpkg.Writer) int {
	return 9 + len(m.Name) + 1 +
		m.Datatype.SerializedSize(w) +
		m.Dataspace.SerializedSize(w) +
		len(m.Data)
}
