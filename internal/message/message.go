// Package message handles parsing and serialization of HDF5 header messages.
//
// Header messages are embedded in object headers and describe dataspace,
// datatype, storage layout, links, and attributes.
package message

import (
	"fmt"

	"github.com/pcafrica/dealii/internal/binary"
)

// Type represents an HDF5 header message type.
type Type uint16

// Header message types.
const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeDataLayout               Type = 0x0008
	TypeGroupInfo                Type = 0x000A
	TypeAttribute                Type = 0x000C
	TypeObjectHeaderContinuation Type = 0x0010
)

// Message is the interface implemented by all header messages.
type Message interface {
	Type() Type
}

// Serializable is implemented by messages that can be written back out.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
	SerializedSize(w *binary.Writer) int
}

// Parse parses a header message from raw bytes. Unhandled message types are
// wrapped in Unknown so the rest of the header still parses.
func Parse(typ Type, data []byte, r *binary.Reader) (Message, error) {
	switch typ {
	case TypeDataspace:
		return parseDataspace(data, r)
	case TypeDatatype:
		return parseDatatype(data, r)
	case TypeDataLayout:
		return parseDataLayout(data, r)
	case TypeAttribute:
		return parseAttribute(data, r)
	case TypeLink:
		return parseLink(data, r)
	case TypeObjectHeaderContinuation:
		return parseContinuation(data, r)
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
}

// Unknown represents an unrecognized message type.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation represents an object header continuation message.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	osize := r.OffsetSize()
	if len(data) < 2*osize {
		return nil, fmt.Errorf("continuation message too short")
	}
	return &Continuation{
		Offset: binary.DecodeUint(data[0:osize], osize, r.ByteOrder()),
		Length: binary.DecodeUint(data[osize:2*osize], osize, r.ByteOrder()),
	}, nil
}
