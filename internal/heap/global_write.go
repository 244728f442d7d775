package heap

import (
	"github.com/pcafrica/dealii/internal/binary"
)

// GlobalHeapWriter accumulates objects and writes them out as a new global
// heap collection. Each flush produces an independent collection; existing
// collections are never modified.
type GlobalHeapWriter struct {
	w        *binary.Writer
	allocate func(size int64) uint64
	objects  [][]byte
}

// NewGlobalHeapWriter creates a global heap writer on top of the file writer
// and allocator.
func NewGlobalHeapWriter(w *binary.Writer, allocate func(size int64) uint64) *GlobalHeapWriter {
	return &GlobalHeapWriter{
		w:        w,
		allocate: allocate,
	}
}

// AddBytes queues an object and returns its 1-based index. Index 0 is
// reserved for the end-of-collection marker.
func (ghw *GlobalHeapWriter) AddBytes(data []byte) uint16 {
	ghw.objects = append(ghw.objects, data)
	return uint16(len(ghw.objects))
}

// AddString queues a null-terminated string object.
func (ghw *GlobalHeapWriter) AddString(s string) uint16 {
	data := make([]byte, len(s)+1)
	copy(data, s)
	return ghw.AddBytes(data)
}

// Flush writes the queued objects as a new collection and returns its
// address plus the heap IDs keyed by object index. The queue is cleared.
func (ghw *GlobalHeapWriter) Flush() (uint64, map[uint16]GlobalHeapID, error) {
	if len(ghw.objects) == 0 {
		return 0, nil, nil
	}
	objects := ghw.objects
	ghw.objects = nil

	lengthSize := ghw.w.LengthSize()
	headerSize := 8 + lengthSize
	objHeaderSize := 8 + lengthSize

	objectsSize := 0
	for _, obj := range objects {
		padding := (8 - len(obj)%8) % 8
		objectsSize += objHeaderSize + len(obj) + padding
	}

	// End marker plus padding to an 8-byte aligned collection size.
	totalSize := headerSize + objectsSize + 2
	collectionPadding := (8 - totalSize%8) % 8
	collectionSize := totalSize + collectionPadding

	heapAddr := ghw.allocate(int64(collectionSize))
	w := ghw.w.At(int64(heapAddr))

	if err := w.WriteBytes([]byte("GCOL")); err != nil {
		return 0, nil, err
	}
	if err := w.WriteUint8(1); err != nil {
		return 0, nil, err
	}
	if err := w.WriteZeros(3); err != nil {
		return 0, nil, err
	}
	if err := w.WriteLength(uint64(collectionSize)); err != nil {
		return 0, nil, err
	}

	heapIDs := make(map[uint16]GlobalHeapID, len(objects))
	for i, obj := range objects {
		index := uint16(i + 1)

		if err := w.WriteUint16(index); err != nil {
			return 0, nil, err
		}
		if err := w.WriteUint16(1); err != nil { // refcount
			return 0, nil, err
		}
		if err := w.WriteZeros(4); err != nil {
			return 0, nil, err
		}
		if err := w.WriteLength(uint64(len(obj))); err != nil {
			return 0, nil, err
		}
		if err := w.WriteBytes(obj); err != nil {
			return 0, nil, err
		}
		if padding := (8 - len(obj)%8) % 8; padding > 0 {
			if err := w.WriteZeros(padding); err != nil {
				return 0, nil, err
			}
		}

		heapIDs[index] = GlobalHeapID{
			CollectionAddress: heapAddr,
			ObjectIndex:       uint32(index),
		}
	}

	// End marker.
	if err := w.WriteUint16(0); err != nil {
		return 0, nil, err
	}
	if collectionPadding > 0 {
		if err := w.WriteZeros(collectionPadding); err != nil {
			return 0, nil, err
		}
	}

	return heapAddr, heapIDs, nil
}

// WriteGlobalHeapID writes a heap reference at the writer's position.
func WriteGlobalHeapID(w *binary.Writer, id GlobalHeapID) error {
	if err := w.WriteOffset(id.CollectionAddress); err != nil {
		return err
	}
	return w.WriteUint32(id.ObjectIndex)
}

// GlobalHeapIDSize returns the encoded size of a heap reference.
func GlobalHeapIDSize(offsetSize int) int {
	return offsetSize + 4
}
