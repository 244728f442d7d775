package message

import (
	"github.com/pcafrica/dealii/internal/binary"
)

// UndefinedAddress is the HDF5 undefined address value.
const UndefinedAddress = ^uint64(0)

// LinkInfo represents a link info message (type 0x0002). Groups that store
// links as compact Link messages still carry one with undefined heap and
// B-tree addresses; the HDF5 library expects those fields to be present.
type LinkInfo struct {
	Version            uint8
	Flags              uint8
	FractalHeapAddr    uint64
	NameIndexBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// Serialize writes the LinkInfo to the writer.
func (m *LinkInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}
	if err := w.WriteOffset(m.FractalHeapAddr); err != nil {
		return err
	}
	return w.WriteOffset(m.NameIndexBTreeAddr)
}

// SerializedSize returns the size in bytes when serialized.
func (m *LinkInfo) SerializedSize(w *binary.Writer) int {
	return 2 + 2*w.OffsetSize()
}

// NewLinkInfo creates a LinkInfo for compact link storage.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddr:    UndefinedAddress,
		NameIndexBTreeAddr: UndefinedAddress,
	}
}

// GroupInfo represents a group info message (type 0x000A).
type GroupInfo struct {
	Version uint8
	Flags   uint8
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// Serialize writes the GroupInfo to the writer.
func (m *GroupInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	return w.WriteUint8(m.Flags)
}

// SerializedSize returns the size in bytes when serialized.
func (m *GroupInfo) SerializedSize(w *binary.Writer) int {
	return 2
}

// NewGroupInfo creates a minimal GroupInfo message.
func NewGroupInfo() *GroupInfo {
	return &GroupInfo{}
}
