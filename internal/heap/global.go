// Package heap handles HDF5 global heap collections, the backing store for
// variable-length data such as variable-length string attributes.
package heap

import (
	stdbinary "encoding/binary"
	"fmt"

	"github.com/pcafrica/dealii/internal/binary"
)

var littleEndian = stdbinary.LittleEndian

// GlobalHeap represents a parsed global heap collection.
type GlobalHeap struct {
	CollectionSize uint64
	objects        map[uint16][]byte
}

// GlobalHeapID is a reference to an object in a global heap collection, as
// stored inside variable-length data fields.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

/*
Global heap collection layout:

	0      4   signature "GCOL"
	4      1   version (1)
	5      3   reserved
	8      L   collection size (includes this header)
	...        objects, each 8-byte aligned:
	           index(2) + refcount(2) + reserved(4) + size(L) + data + pad
	           index 0 marks the free space object and ends the list
*/

// ReadGlobalHeap reads a global heap collection at the given address.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address")
	}

	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap signature: %w", err)
	}
	if string(sig) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature: %q", sig)
	}

	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", version)
	}
	hr.Skip(3)

	collectionSize, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	gh := &GlobalHeap{
		CollectionSize: collectionSize,
		objects:        make(map[uint16][]byte),
	}

	headerSize := uint64(8 + r.LengthSize())
	remaining := collectionSize - headerSize

	for remaining > 0 {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		if _, err := hr.ReadUint16(); err != nil { // refcount
			break
		}
		hr.Skip(4)

		objectSize, err := hr.ReadLength()
		if err != nil {
			break
		}
		if objectSize > 0 {
			data, err := hr.ReadBytes(int(objectSize))
			if err != nil {
				break
			}
			gh.objects[index] = data
		}

		padding := (8 - objectSize%8) % 8
		hr.Skip(int64(padding))

		consumed := uint64(8+r.LengthSize()) + objectSize + padding
		if consumed > remaining {
			break
		}
		remaining -= consumed
	}

	return gh, nil
}

// GetObject returns a copy of the object with the given index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap", index)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// GetBytes returns the raw bytes of a heap object, trimmed at the first null
// terminator if one is present.
func (h *GlobalHeap) GetBytes(index uint16) ([]byte, error) {
	data, err := h.GetObject(index)
	if err != nil {
		return nil, err
	}
	for i, b := range data {
		if b == 0 {
			return data[:i], nil
		}
	}
	return data, nil
}

// ParseGlobalHeapID parses a heap reference: collection address
// (offset-sized) followed by a 4-byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", offsetSize+4, len(data))
	}
	addr := binary.DecodeUint(data, offsetSize, littleEndian)
	index := uint32(binary.DecodeUint(data[offsetSize:], 4, littleEndian))
	return GlobalHeapID{CollectionAddress: addr, ObjectIndex: index}, nil
}
