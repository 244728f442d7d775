package message

import (
	"fmt"

	"github.com/pcafrica/dealii/internal/binary"
)

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
)

// DataLayout represents a data layout message (type 0x0008). Datasets are
// written with a contiguous layout; other classes parse far enough that the
// caller can reject them with a useful error.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Contiguous layout: raw data block.
	Address uint64
	Size    uint64
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// IsContiguous returns true if data is stored in a single contiguous block.
func (m *DataLayout) IsContiguous() bool {
	return m.Class == LayoutContiguous
}

func parseDataLayout(data []byte, r *binary.Reader) (*DataLayout, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("data layout message too short")
	}

	layout := &DataLayout{Version: data[0]}

	// Versions 1 and 2 put the class at byte 2, versions 3 and 4 at byte 1.
	var offset int
	switch layout.Version {
	case 1, 2:
		if len(data) < 4 {
			return nil, fmt.Errorf("data layout message too short")
		}
		layout.Class = LayoutClass(data[2])
		offset = 4
	case 3, 4:
		layout.Class = LayoutClass(data[1])
		offset = 2
	default:
		return nil, fmt.Errorf("unsupported data layout version: %d", layout.Version)
	}

	if layout.Class != LayoutContiguous {
		// Keep the class for error reporting; address stays undefined.
		return layout, nil
	}

	osize := r.OffsetSize()
	lsize := r.LengthSize()
	if offset+osize+lsize > len(data) {
		return nil, fmt.Errorf("contiguous layout truncated")
	}
	layout.Address = binary.DecodeUint(data[offset:], osize, r.ByteOrder())
	layout.Size = binary.DecodeUint(data[offset+osize:], lsize, r.ByteOrder())

	return layout, nil
}

// Serialize writes a version 3 contiguous layout message.
func (m *DataLayout) Serialize(w *binary.Writer) error {
	if m.Class != LayoutContiguous {
		return fmt.Errorf("cannot serialize layout class %d", m.Class)
	}
	if err := w.WriteUint8(3); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.Class)); err != nil {
		return err
	}
	if err := w.WriteOffset(m.Address); err != nil {
		return err
	}
	return w.WriteLength(m.Size)
}

// SerializedSize returns the size in bytes when serialized.
func (m *DataLayout) SerializedSize(w *binary.Writer) int {
	return 2 + w.OffsetSize() + w.LengthSize()
}

// NewContiguousLayout creates a contiguous layout message for a data block
// at the given address.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{
		Version: 3,
		Class:   LayoutContiguous,
		Address: address,
		Size:    size,
	}
}
