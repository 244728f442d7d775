package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

// LinkType represents the type of link.
type LinkType uint8

const (
	LinkTypeHard LinkType = 0
	LinkTypeSoft LinkType = 1
)

// Link represents a link message (type 0x0006). Only hard links are
// created; soft links parse far enough to report their name.
type Link struct {
	Version       uint8
	LinkType      LinkType
	Name          string
	ObjectAddress uint64
}

func (m *Link) Type() Type { return TypeLink }

// IsHard returns true if this is a hard link.
func (m *Link) IsHard() bool { return m.LinkType == LinkTypeHard }

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("link message too short")
	}

	link := &Link{Version: data[0]}
	flags := data[1]
	offset := 2

	nameLenSize := 1 << (flags & 0x03)

	if flags&0x08 != 0 { // explicit link type
		if offset >= len(data) {
			return nil, fmt.Errorf("link type truncated")
		}
		link.LinkType = LinkType(data[offset])
		offset++
	}
	if flags&0x04 != 0 { // creation order
		offset += 8
	}
	if flags&0x10 != 0 { // name charset
		offset++
	}

	if offset+nameLenSize > len(data) {
		return nil, fmt.Errorf("link name length truncated")
	}
	nameLen := binpkg.DecodeUint(data[offset:], nameLenSize, binary.LittleEndian)
	offset += nameLenSize

	if offset+int(nameLen) > len(data) {
		return nil, fmt.Errorf("link name truncated")
	}
	link.Name = string(data[offset : offset+int(nameLen)])
	offset += int(nameLen)

	if link.LinkType == LinkTypeHard {
		osize := r.OffsetSize()
		if offset+osize > len(data) {
			return nil, fmt.Errorf("hard link address truncated")
		}
		link.ObjectAddress = binpkg.DecodeUint(data[offset:], osize, r.ByteOrder())
	}

	return link, nil
}

// Serialize writes a version 1 hard link message.
func (m *Link) Serialize(w *binpkg.Writer) error {
	if m.LinkType != LinkTypeHard {
		return fmt.Errorf("cannot serialize link type %d", m.LinkType)
	}

	if err := w.WriteUint8(1); err != nil {
		return err
	}

	nameLenSize, nameLenBits := nameLengthEncoding(len(m.Name))
	if err := w.WriteUint8(nameLenBits); err != nil {
		return err
	}
	if err := w.WriteUintN(uint64(len(m.Name)), nameLenSize); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(m.Name)); err != nil {
		return err
	}
	return w.WriteOffset(m.ObjectAddress)
}

// SerializedSize returns the size in bytes when serialized.
func (m *Link) SerializedSize(w *binpkg.Writer) int {
	nameLenSize, _ := nameLengthEncoding(len(m.Name))
	return 2 + nameLenSize + len(m.Name) + w.OffsetSize()
}

// nameLengthEncoding returns the width of the name length field and the flag
// bits that select it.
func nameLengthEncoding(nameLen int) (int, uint8) {
	switch {
	case nameLen <= 0xFF:
		return 1, 0
	case nameLen <= 0xFFFF:
		return 2, 1
	case nameLen <= 0xFFFFFFFF:
		return 4, 2
	default:
		return 8, 3
	}
}

// NewHardLink creates a hard link message pointing at an object header.
func NewHardLink(name string, objectAddress uint64) *Link {
	return &Link{
		Version:       1,
		LinkType:      LinkTypeHard,
		Name:          name,
		ObjectAddress: objectAddress,
	}
}
