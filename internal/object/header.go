// Package object handles reading and writing of HDF5 version 2 object
// headers, the containers for the header messages that describe groups,
// datasets, and their attributes.
package object

import (
	"errors"
	"fmt"

	"github.com/pcafrica/dealii/internal/binary"
	"github.com/pcafrica/dealii/internal/message"
)

// SignatureV2 is the version 2 object header signature.
var SignatureV2 = []byte{'O', 'H', 'D', 'R'}

// Errors.
var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
)

// Header represents a parsed HDF5 object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	Messages []message.Message
}

// Read parses a version 2 object header at the given address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))

	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	if string(peek) != "OHDR" {
		if peek[0] == 1 {
			return nil, fmt.Errorf("%w: version 1 header at address %d", ErrUnsupportedVersion, address)
		}
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}

	return readV2(hr, address)
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// Dataspace returns the dataspace message if present.
func (h *Header) Dataspace() *message.Dataspace {
	if msg := h.GetMessage(message.TypeDataspace); msg != nil {
		return msg.(*message.Dataspace)
	}
	return nil
}

// Datatype returns the datatype message if present.
func (h *Header) Datatype() *message.Datatype {
	if msg := h.GetMessage(message.TypeDatatype); msg != nil {
		return msg.(*message.Datatype)
	}
	return nil
}

// DataLayout returns the data layout message if present.
func (h *Header) DataLayout() *message.DataLayout {
	if msg := h.GetMessage(message.TypeDataLayout); msg != nil {
		return msg.(*message.DataLayout)
	}
	return nil
}

/*
Version 2 object header layout:

	0     4    signature "OHDR"
	4     1    version (2)
	5     1    flags
	           bits 0-1: width of the chunk#0 size field (1 << value bytes)
	           bit 2: track attribute creation order
	           bit 5: timestamps present
	6     var  timestamps (4x4 bytes, if flag bit 5)
	var   var  attribute phase change values (2+2 bytes, if flag bit 4)
	var   1-8  size of chunk#0
	var   var  header messages
	var   4    checksum (lookup3)

Each message: type(1) + size(2) + flags(1) [+ creation order(2)] + data.
An 0xFF type byte selects the extended form with a 32-bit size.
*/
func readV2(r *binary.Reader, address uint64) (*Header, error) {
	r.Skip(4) // signature, already verified

	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, version)
	}

	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	hdr := &Header{
		Version: 2,
		Address: address,
		Flags:   flags,
	}

	if flags&0x20 != 0 {
		r.Skip(16) // access/mod/change/birth times
	}
	if flags&0x10 != 0 {
		r.Skip(4) // max compact + min dense attributes
	}

	sizeFieldSize := 1 << (flags & 0x03)
	chunk0Size, err := r.ReadUintN(sizeFieldSize)
	if err != nil {
		return nil, err
	}

	trackCreationOrder := flags&0x04 != 0
	// Stop 4 bytes early so writers that fold the checksum into the chunk
	// size never get it parsed as a message header.
	chunkEnd := r.Pos() + int64(chunk0Size) - 4

	for r.Pos() < chunkEnd {
		msg, err := readV2Message(r, trackCreationOrder)
		if err != nil {
			break
		}
		if msg == nil {
			continue
		}
		if cont, ok := msg.(*message.Continuation); ok {
			contMsgs, err := readV2Continuation(r, cont.Offset, cont.Length, trackCreationOrder)
			if err == nil {
				hdr.Messages = append(hdr.Messages, contMsgs...)
			}
			continue
		}
		hdr.Messages = append(hdr.Messages, msg)
	}

	return hdr, nil
}

// readV2Continuation reads messages from an "OCHK" continuation block.
func readV2Continuation(r *binary.Reader, offset, length uint64, trackCreationOrder bool) ([]message.Message, error) {
	cr := r.At(int64(offset))

	sig, err := cr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if string(sig) != "OCHK" {
		return nil, fmt.Errorf("invalid continuation block signature: %q", sig)
	}

	var messages []message.Message
	chunkEnd := int64(offset) + int64(length) - 4 // trailing checksum

	for cr.Pos() < chunkEnd {
		msg, err := readV2Message(cr, trackCreationOrder)
		if err != nil {
			break
		}
		if msg == nil {
			continue
		}
		if cont, ok := msg.(*message.Continuation); ok {
			nested, err := readV2Continuation(r, cont.Offset, cont.Length, trackCreationOrder)
			if err == nil {
				messages = append(messages, nested...)
			}
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

func readV2Message(r *binary.Reader, trackCreationOrder bool) (message.Message, error) {
	firstByte, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	var msgType uint8
	var dataSize uint32

	if firstByte == 0xFF {
		msgType, err = r.ReadUint8()
		if err != nil {
			return nil, err
		}
		dataSize, err = r.ReadUint32()
		if err != nil {
			return nil, err
		}
	} else {
		msgType = firstByte
		size16, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		dataSize = uint32(size16)
	}

	if _, err := r.ReadUint8(); err != nil { // message flags
		return nil, err
	}
	if trackCreationOrder {
		r.Skip(2)
	}

	data, err := r.ReadBytes(int(dataSize))
	if err != nil {
		return nil, err
	}

	if msgType == 0 { // NIL padding
		return nil, nil
	}

	return message.Parse(message.Type(msgType), data, r)
}
