package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

// DatatypeClass represents the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0 // integers
	ClassFloatPoint DatatypeClass = 1 // floating point
	ClassString     DatatypeClass = 3 // fixed-length strings
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

// ByteOrder represents the byte order of numeric types.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding represents how strings are padded.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet represents the character encoding of string data. ASCII in
// practice means "whatever single-byte data the writer put there"; readers
// that care fall back to Latin-1.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype represents a datatype message (type 0x0003).
type Datatype struct {
	Class     DatatypeClass
	ClassBits uint32
	Size      uint32

	ByteOrder ByteOrder

	// Fixed-point
	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	// String
	StringPadding StringPadding
	CharSet       CharacterSet

	// Compound
	Members []CompoundMember

	// Variable-length
	VarLenType     *Datatype
	IsVarLenString bool

	// Raw float/other properties, preserved for round-tripping
	Properties []byte
}

// CompoundMember represents a member of a compound datatype.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsInteger returns true if this is an integer type.
func (m *Datatype) IsInteger() bool { return m.Class == ClassFixedPoint }

// IsFloat returns true if this is a floating-point type.
func (m *Datatype) IsFloat() bool { return m.Class == ClassFloatPoint }

// IsString returns true if this is a string type, fixed or variable-length.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

// IsCompound returns true if this is a compound type.
func (m *Datatype) IsCompound() bool { return m.Class == ClassCompound }

func parseDatatype(data []byte, r *binpkg.Reader) (*Datatype, error) {
	dt, _, err := parseDatatypeWithSize(data, r)
	return dt, err
}

func parseDatatypeWithSize(data []byte, r *binpkg.Reader) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype message too short")
	}

	classAndVersion := data[0]
	class := DatatypeClass(classAndVersion & 0x0F)
	version := int(classAndVersion >> 4)
	classBits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	size := binary.LittleEndian.Uint32(data[4:8])

	propsSize := propertiesSize(class, data[8:])
	dt := &Datatype{
		Class:      class,
		ClassBits:  classBits,
		Size:       size,
		Properties: data[8 : 8+propsSize],
	}

	props := data[8:]
	switch class {
	case ClassFixedPoint:
		dt.ByteOrder = ByteOrder(classBits & 0x01)
		dt.Signed = classBits&0x08 != 0
		if len(props) >= 4 {
			dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
			dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		}

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(classBits & 0x01)

	case ClassString:
		dt.StringPadding = StringPadding(classBits & 0x0F)
		dt.CharSet = CharacterSet((classBits >> 4) & 0x0F)

	case ClassCompound:
		numMembers := int(classBits & 0xFFFF)
		dt.Members = make([]CompoundMember, 0, numMembers)
		offset := 0
		for i := 0; i < numMembers && offset < len(props); i++ {
			member, consumed, err := parseCompoundMember(props[offset:], r, version, size)
			if err != nil {
				break
			}
			dt.Members = append(dt.Members, member)
			offset += consumed
		}

	case ClassVarLen:
		// Lower class bits: 0 = sequence, 1 = string.
		dt.IsVarLenString = classBits&0x0F == 1
		dt.CharSet = CharacterSet((classBits >> 8) & 0x0F)
		if len(props) > 0 {
			if base, err := parseDatatype(props, r); err == nil {
				dt.VarLenType = base
			}
		}
	}

	return dt, 8 + propsSize, nil
}

// propertiesSize returns the byte length of the class-specific properties
// that follow the fixed 8-byte datatype header.
func propertiesSize(class DatatypeClass, props []byte) int {
	switch class {
	case ClassFixedPoint:
		return 4 // bit offset + bit precision
	case ClassFloatPoint:
		return 12
	case ClassString:
		return 0
	case ClassOpaque:
		end := 0
		for end < len(props) && props[end] != 0 {
			end++
		}
		return end + 1
	case ClassVarLen:
		if len(props) >= 8 {
			return 8 + propertiesSize(DatatypeClass(props[0]&0x0F), props[8:])
		}
		return len(props)
	default:
		// Compound and remaining classes consume everything; the message
		// boundary from the object header bounds them.
		return len(props)
	}
}

func parseCompoundMember(data []byte, r *binpkg.Reader, version int, compoundSize uint32) (CompoundMember, int, error) {
	var member CompoundMember

	nameEnd := 0
	for nameEnd < len(data) && data[nameEnd] != 0 {
		nameEnd++
	}
	if nameEnd >= len(data) {
		return member, 0, fmt.Errorf("compound member name not terminated")
	}
	member.Name = string(data[:nameEnd])
	offset := nameEnd + 1

	// Versions 1 and 2 pad names to an 8-byte boundary; version 3 does not.
	if version < 3 {
		if offset%8 != 0 {
			offset += 8 - offset%8
		}
	}

	offsetSize := 4
	if version >= 3 {
		offsetSize = memberOffsetSize(compoundSize)
	}
	if offset+offsetSize > len(data) {
		return member, 0, fmt.Errorf("compound member truncated")
	}
	member.ByteOffset = uint32(binpkg.DecodeUint(data[offset:], offsetSize, binary.LittleEndian))
	offset += offsetSize

	if version < 3 {
		// Version 1 carries dimensionality fields before the member type:
		// rank(1) + reserved(3) + perm(4) + reserved(4) + dims(4*4).
		offset += 28
	}

	if offset < len(data) {
		memberType, typeSize, err := parseDatatypeWithSize(data[offset:], r)
		if err != nil {
			return member, 0, err
		}
		member.Type = memberType
		offset += typeSize
	}

	return member, offset, nil
}

// Serialize writes the Datatype message. Version 1 is used for leaf classes
// and version 3 for compound, matching what current HDF5 writers emit.
func (m *Datatype) Serialize(w *binpkg.Writer) error {
	version := uint8(1)
	if m.Class == ClassCompound {
		version = 3
	}

	if err := w.WriteUint8(uint8(m.Class) | version<<4); err != nil {
		return err
	}
	// Class bit field, 24 bits little-endian.
	for shift := 0; shift < 24; shift += 8 {
		if err := w.WriteUint8(uint8(m.ClassBits >> shift)); err != nil {
			return err
		}
	}
	if err := w.WriteUint32(m.Size); err != nil {
		return err
	}

	switch m.Class {
	case ClassFixedPoint:
		if err := w.WriteUint16(m.BitOffset); err != nil {
			return err
		}
		return w.WriteUint16(m.BitPrecision)

	case ClassFloatPoint:
		if len(m.Properties) >= 12 {
			return w.WriteBytes(m.Properties[:12])
		}
		return w.WriteZeros(12)

	case ClassString:
		return nil

	case ClassCompound:
		for i := range m.Members {
			if err := writeCompoundMember(w, &m.Members[i], m.Size); err != nil {
				return err
			}
		}
		return nil

	case ClassVarLen:
		if m.VarLenType != nil {
			return m.VarLenType.Serialize(w)
		}
		return nil
	}

	return fmt.Errorf("cannot serialize datatype class %d", m.Class)
}

// SerializedSize returns the size in bytes when serialized.
func (m *Datatype) SerializedSize(w *binpkg.Writer) int {
	size := 8
	switch m.Class {
	case ClassFixedPoint:
		size += 4
	case ClassFloatPoint:
		size += 12
	case ClassCompound:
		for i := range m.Members {
			size += compoundMemberSize(&m.Members[i], m.Size)
		}
	case ClassVarLen:
		if m.VarLenType != nil {
			size += m.VarLenType.SerializedSize(w)
		}
	}
	return size
}

// writeCompoundMember writes a version 3 compound member definition: the
// null-terminated name, a variable-width byte offset, then the member type.
func writeCompoundMember(w *binpkg.Writer, member *CompoundMember, compoundSize uint32) error {
	if err := w.WriteBytes([]byte(member.Name)); err != nil {
		return err
	}
	if err := w.WriteUint8(0); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(member.ByteOffset), memberOffsetSize(compoundSize)); err != nil {
		return err
	}
	return member.Type.Serialize(w)
}

func compoundMemberSize(member *CompoundMember, compoundSize uint32) int {
	size := len(member.Name) + 1
	size += memberOffsetSize(compoundSize)
	if member.Type != nil {
		size += member.Type.SerializedSize(nil)
	}
	return size
}

// memberOffsetSize returns the width of a version 3 member byte offset,
// which depends on the compound type's total size.
func memberOffsetSize(compoundSize uint32) int {
	switch {
	case compoundSize <= 0xFF:
		return 1
	case compoundSize <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

// NewFixedPointDatatype creates a fixed-point (integer) datatype.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	classBits := uint32(order)
	if signed {
		classBits |= 0x08
	}
	return &Datatype{
		Class:        ClassFixedPoint,
		ClassBits:    classBits,
		Size:         size,
		ByteOrder:    order,
		BitPrecision: uint16(size * 8),
		Signed:       signed,
	}
}

// NewFloatDatatype creates an IEEE 754 floating-point datatype of 4 or 8
// bytes. The property block and sign location match what h5py emits.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	var signLocation uint32
	var props []byte

	switch size {
	case 4:
		signLocation = 31
		props = []byte{
			0, 0, // bit offset
			32, 0, // bit precision
			23,           // exponent location
			8,            // exponent size
			0,            // mantissa location
			23,           // mantissa size (single byte field)
			127, 0, 0, 0, // exponent bias
		}
	case 8:
		signLocation = 63
		props = []byte{
			0, 0,
			64, 0,
			52,
			11,
			0,
			52,
			255, 3, 0, 0, // bias 1023
		}
	}

	// Bit 5 of the class bits marks normalized mantissa (implied MSB).
	classBits := uint32(order) | 1<<5 | signLocation<<8

	return &Datatype{
		Class:      ClassFloatPoint,
		ClassBits:  classBits,
		Size:       size,
		ByteOrder:  order,
		Properties: props,
	}
}

// NewVarLenStringDatatype creates a variable-length string datatype whose
// payloads live in the global heap.
func NewVarLenStringDatatype(charset CharacterSet) *Datatype {
	base := &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(PadNullTerm) | uint32(charset)<<4,
		Size:          1,
		StringPadding: PadNullTerm,
		CharSet:       charset,
	}
	return &Datatype{
		Class:          ClassVarLen,
		ClassBits:      1 | uint32(charset)<<8, // type 1 = string
		Size:           16,                     // in-memory hvl_t size
		CharSet:        charset,
		VarLenType:     base,
		IsVarLenString: true,
	}
}

// NewCompoundDatatype creates a compound datatype from the given members.
func NewCompoundDatatype(size uint32, members []CompoundMember) *Datatype {
	return &Datatype{
		Class:     ClassCompound,
		ClassBits: uint32(len(members)),
		Size:      size,
		Members:   members,
	}
}
