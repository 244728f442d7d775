package hdf5

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/pcafrica/dealii/internal/message"
	"github.com/pcafrica/dealii/internal/object"
)

// Dataset is a typed n-dimensional array stored contiguously in the file.
// Elements are laid out in row-major order.
type Dataset[T Element] struct {
	Object

	descriptor *TypeDescriptor
	space      *Dataspace
	rank       int
	dims       []uint64
	total      uint64
	dataAddr   uint64
	dataSize   uint64
}

// CreateDataset creates a dataset under g with the given extent. The data
// block is zero-filled, so elements never written by a selection read back
// as zero.
func CreateDataset[T Element](g *Group, name string, dims []uint64) (*Dataset[T], error) {
	if err := g.checkWritable(); err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		thrower.Throw(fmt.Errorf("%w: dataset %q must have rank at least 1", ErrDimensionMismatch, name))
	}
	if err := g.ensureLoaded(); err != nil {
		return nil, err
	}
	if g.findLink(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}

	td := newTypeDescriptor[T]()
	total := uint64(1)
	for _, d := range dims {
		total *= d
	}
	dataSize := total * uint64(td.Size())
	dataAddr := g.file.allocate(int64(dataSize))
	if err := g.file.writer.At(int64(dataAddr)).WriteZeros(int(dataSize)); err != nil {
		return nil, fmt.Errorf("zero-filling dataset %q: %w", name, err)
	}

	extent := append([]uint64(nil), dims...)
	msgs := object.NewDatasetHeader(
		message.NewDataspace(extent),
		td.Message(),
		message.NewContiguousLayout(dataAddr, dataSize),
		nil,
	)
	addr := g.file.allocate(int64(object.HeaderSize(g.file.writer, msgs)))
	if _, err := object.WriteHeader(g.file.writer.At(int64(addr)), msgs); err != nil {
		return nil, fmt.Errorf("writing dataset header %q: %w", name, err)
	}
	if err := g.addLink(message.NewHardLink(name, addr)); err != nil {
		return nil, err
	}

	d := newDataset[T](g, name, addr, td, extent, dataAddr, dataSize)
	d.msgs = msgs
	d.loaded = true
	return d, nil
}

// OpenDataset opens an existing dataset. Opening a name that refers to a
// group is a contract violation; a missing name or an incompatible element
// type is a recoverable error.
func OpenDataset[T Element](g *Group, name string) (*Dataset[T], error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	if err := g.ensureLoaded(); err != nil {
		return nil, err
	}
	link := g.findLink(name)
	if link == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	hdr, err := object.Read(g.file.reader, link.ObjectAddress)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q: %w", name, err)
	}
	space := hdr.Dataspace()
	stored := hdr.Datatype()
	if space == nil || stored == nil {
		thrower.Throw(fmt.Errorf("%w: %q", ErrNotDataset, name))
	}
	layout := hdr.DataLayout()
	if layout == nil || !layout.IsContiguous() {
		return nil, fmt.Errorf("%w: dataset %q", ErrUnsupportedLayout, name)
	}
	td := newTypeDescriptor[T]()
	if !td.compatibleWith(stored) {
		_ = td.Close()
		return nil, fmt.Errorf("%w: dataset %q stores %d-byte elements of class %d",
			ErrTypeMismatch, name, stored.Size, stored.Class)
	}

	d := newDataset[T](g, name, link.ObjectAddress, td,
		append([]uint64(nil), space.Dimensions...), layout.Address, layout.Size)
	d.msgs = hdr.Messages
	d.loaded = true
	return d, nil
}

func newDataset[T Element](g *Group, name string, addr uint64, td *TypeDescriptor, dims []uint64, dataAddr, dataSize uint64) *Dataset[T] {
	total := uint64(1)
	for _, d := range dims {
		total *= d
	}
	fileRef := g.file.retain()
	d := &Dataset[T]{
		descriptor: td,
		space:      newDataspace(dims),
		rank:       len(dims),
		dims:       dims,
		total:      total,
		dataAddr:   dataAddr,
		dataSize:   dataSize,
	}
	d.Object = Object{
		file:   g.file,
		parent: g,
		name:   name,
		addr:   addr,
		mpi:    g.mpi,
		handle: NewHandle(fileRef.Release),
	}
	return d
}

// Dims returns the dataset extent.
func (d *Dataset[T]) Dims() []uint64 { return d.dims }

// Rank returns the number of dimensions.
func (d *Dataset[T]) Rank() int { return d.rank }

// Size returns the total number of elements.
func (d *Dataset[T]) Size() uint64 { return d.total }

// Dataspace returns the dataset's dataspace.
func (d *Dataset[T]) Dataspace() *Dataspace { return d.space }

// Close releases the dataset handle, then the dataspace handle, then the
// type descriptor.
func (d *Dataset[T]) Close() error {
	if !d.handle.Valid() {
		return ErrClosed
	}
	err := d.handle.Release()
	if serr := d.space.handle.Release(); err == nil {
		err = serr
	}
	if terr := d.descriptor.Close(); err == nil {
		err = terr
	}
	return err
}

func (d *Dataset[T]) transfer() *transferContext {
	if !d.mpi {
		return nil
	}
	return newTransferContext(d.file.comm)
}

// Write stores the entire dataset. len(data) must equal the total number of
// elements.
func (d *Dataset[T]) Write(data []T) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if uint64(len(data)) != d.total {
		thrower.Throw(fmt.Errorf("%w: dataset %q holds %d elements, got %d",
			ErrDimensionMismatch, d.name, d.total, len(data)))
	}
	ctx := d.transfer()
	defer ctx.release()
	return d.file.writer.At(int64(d.dataAddr)).WriteBytes(encodeElements(data))
}

// WriteMatrix stores a rank-2 dataset from a matrix. The matrix extent must
// match the dataset extent.
func (d *Dataset[T]) WriteMatrix(m Matrix[T]) error {
	if d.rank != 2 || uint64(m.Rows()) != d.dims[0] || uint64(m.Cols()) != d.dims[1] {
		thrower.Throw(fmt.Errorf("%w: dataset %q extent %v, matrix %dx%d",
			ErrDimensionMismatch, d.name, d.dims, m.Rows(), m.Cols()))
	}
	return d.Write(m.Data())
}

// WriteSelection stores data at individual element coordinates. coordinates
// holds rank values per element, so its length must be len(data)*Rank.
func (d *Dataset[T]) WriteSelection(data []T, coordinates []uint64) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if len(coordinates) != len(data)*d.rank {
		thrower.Throw(fmt.Errorf("%w: dataset %q: %d coordinates for %d rank-%d elements",
			ErrDimensionMismatch, d.name, len(coordinates), len(data), d.rank))
	}
	d.space.selectElementList(coordinates)
	defer d.space.reset()
	ctx := d.transfer()
	defer ctx.release()

	elem := d.descriptor.Size()
	raw := encodeElements(data)
	for i := range data {
		idx := d.linearIndex(coordinates[i*d.rank : (i+1)*d.rank])
		w := d.file.writer.At(int64(d.dataAddr + idx*uint64(elem)))
		if err := w.WriteBytes(raw[i*elem : (i+1)*elem]); err != nil {
			return fmt.Errorf("writing selection on %q: %w", d.name, err)
		}
	}
	return nil
}

// WriteHyperslab stores data into the rectangular region starting at offset
// with the given per-dimension counts.
func (d *Dataset[T]) WriteHyperslab(data []T, offset, count []uint64) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if len(offset) != d.rank || len(count) != d.rank {
		thrower.Throw(fmt.Errorf("%w: dataset %q: hyperslab rank %d/%d, dataset rank %d",
			ErrDimensionMismatch, d.name, len(offset), len(count), d.rank))
	}
	n := uint64(1)
	for i := range count {
		if offset[i]+count[i] > d.dims[i] {
			thrower.Throw(fmt.Errorf("%w: dataset %q: offset %v count %v extent %v",
				ErrSelectionOutOfBounds, d.name, offset, count, d.dims))
		}
		n *= count[i]
	}
	if uint64(len(data)) != n {
		thrower.Throw(fmt.Errorf("%w: dataset %q: hyperslab selects %d elements, got %d",
			ErrDimensionMismatch, d.name, n, len(data)))
	}
	d.space.selectSlab(offset, count)
	defer d.space.reset()
	ctx := d.transfer()
	defer ctx.release()

	// The slab is contiguous along the last axis, so it is written as one
	// run per row of the selection.
	elem := d.descriptor.Size()
	raw := encodeElements(data)
	rowBytes := int(count[d.rank-1]) * elem
	rows := uint64(1)
	for i := 0; i < d.rank-1; i++ {
		rows *= count[i]
	}
	coord := make([]uint64, d.rank)
	for row := uint64(0); row < rows; row++ {
		rem := row
		for i := d.rank - 2; i >= 0; i-- {
			coord[i] = offset[i] + rem%count[i]
			rem /= count[i]
		}
		coord[d.rank-1] = offset[d.rank-1]
		lin := d.linearIndex(coord)
		w := d.file.writer.At(int64(d.dataAddr + lin*uint64(elem)))
		if err := w.WriteBytes(raw[int(row)*rowBytes : int(row+1)*rowBytes]); err != nil {
			return fmt.Errorf("writing hyperslab on %q: %w", d.name, err)
		}
	}
	return nil
}

// WriteHyperslabMatrix stores a matrix into a hyperslab whose counts are the
// matrix extent.
func (d *Dataset[T]) WriteHyperslabMatrix(m Matrix[T], offset []uint64) error {
	return d.WriteHyperslab(m.Data(), offset, []uint64{uint64(m.Rows()), uint64(m.Cols())})
}

// WriteNone participates in a collective write without contributing data.
// Every rank that does not call one of the Write methods must call WriteNone
// so the ranks stay in step.
func (d *Dataset[T]) WriteNone() error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	d.space.selectNothing()
	defer d.space.reset()
	ctx := d.transfer()
	defer ctx.release()
	return nil
}

// Read returns the entire dataset contents.
func (d *Dataset[T]) Read() ([]T, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	ctx := d.transfer()
	defer ctx.release()
	raw, err := d.file.reader.At(int64(d.dataAddr)).ReadBytes(int(d.dataSize))
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q: %w", d.name, err)
	}
	return decodeElements[T](raw, int(d.total)), nil
}

// ReadMatrix returns a rank-2 dataset as a FullMatrix.
func (d *Dataset[T]) ReadMatrix() (*FullMatrix[T], error) {
	if d.rank != 2 {
		thrower.Throw(fmt.Errorf("%w: dataset %q has rank %d, want 2", ErrDimensionMismatch, d.name, d.rank))
	}
	data, err := d.Read()
	if err != nil {
		return nil, err
	}
	m := NewFullMatrix[T](int(d.dims[0]), int(d.dims[1]))
	copy(m.data, data)
	return m, nil
}

// linearIndex converts a coordinate to a row-major element index, throwing
// if the coordinate is outside the extent.
func (d *Dataset[T]) linearIndex(coord []uint64) uint64 {
	idx := uint64(0)
	for i, c := range coord {
		if c >= d.dims[i] {
			thrower.Throw(fmt.Errorf("%w: dataset %q: coordinate %v extent %v",
				ErrSelectionOutOfBounds, d.name, coord, d.dims))
		}
		idx = idx*d.dims[i] + c
	}
	return idx
}
