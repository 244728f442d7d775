package hdf5

import (
	"fmt"

	"github.com/pcafrica/dealii/internal/message"
	"github.com/pcafrica/dealii/internal/object"
)

// Group is a container of named groups and datasets.
type Group struct {
	Object
}

// ObjectKind classifies a group member.
type ObjectKind int

const (
	KindGroup ObjectKind = iota
	KindDataset
)

func (k ObjectKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	}
	return "unknown"
}

// ObjectInfo describes a group member without opening it.
type ObjectInfo struct {
	Name        string
	Kind        ObjectKind
	Dims        []uint64 // nil for groups
	ElementSize int      // 0 for groups
	Attrs       []string
}

// OpenGroup opens an existing child group.
func (g *Group) OpenGroup(name string) (*Group, error) {
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
		return nil, fmt.Errorf("reading group %q: %w", name, err)
	}
	if hdr.Dataspace() != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotGroup, name)
	}
	child := g.newChild(name, link.ObjectAddress)
	child.msgs = hdr.Messages
	child.loaded = true
	return child, nil
}

// CreateGroup creates a new empty child group.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkWritable(); err != nil {
		return nil, err
	}
	if err := g.ensureLoaded(); err != nil {
		return nil, err
	}
	if g.findLink(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}
	msgs := object.NewEmptyGroupHeader()
	size := object.HeaderSizeWithMinChunk(g.file.writer, msgs, object.MinGroupChunkSize)
	addr := g.file.allocate(int64(size))
	if _, err := object.WriteHeaderWithMinChunk(g.file.writer.At(int64(addr)), msgs, object.MinGroupChunkSize); err != nil {
		return nil, fmt.Errorf("writing group header %q: %w", name, err)
	}
	if err := g.addLink(message.NewHardLink(name, addr)); err != nil {
		return nil, err
	}
	child := g.newChild(name, addr)
	child.msgs = msgs
	child.loaded = true
	return child, nil
}

func (g *Group) newChild(name string, addr uint64) *Group {
	fileRef := g.file.retain()
	return &Group{Object: Object{
		file:   g.file,
		parent: g,
		name:   name,
		addr:   addr,
		mpi:    g.mpi,
		handle: NewHandle(fileRef.Release),
	}}
}

// Close releases the group handle.
func (g *Group) Close() error {
	if !g.handle.Valid() {
		return ErrClosed
	}
	return g.handle.Release()
}

// Members returns the names of the group's children in storage order.
func (g *Group) Members() ([]string, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	if err := g.ensureLoaded(); err != nil {
		return nil, err
	}
	var names []string
	for _, link := range g.links() {
		names = append(names, link.Name)
	}
	return names, nil
}

// Stat describes the named child without opening it.
func (g *Group) Stat(name string) (ObjectInfo, error) {
	if err := g.checkOpen(); err != nil {
		return ObjectInfo{}, err
	}
	if err := g.ensureLoaded(); err != nil {
		return ObjectInfo{}, err
	}
	link := g.findLink(name)
	if link == nil {
		return ObjectInfo{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	hdr, err := object.Read(g.file.reader, link.ObjectAddress)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("reading %q: %w", name, err)
	}
	info := ObjectInfo{Name: name, Kind: KindGroup}
	if space := hdr.Dataspace(); space != nil {
		info.Kind = KindDataset
		info.Dims = space.Dimensions
		if dt := hdr.Datatype(); dt != nil {
			info.ElementSize = int(dt.Size)
		}
	}
	for _, msg := range hdr.GetMessages(message.TypeAttribute) {
		if attr, ok := msg.(*message.Attribute); ok {
			info.Attrs = append(info.Attrs, attr.Name)
		}
	}
	return info, nil
}

// updateChildLink repoints the link for name at a new header address and
// rewrites this group's header, propagating up to the root.
func (g *Group) updateChildLink(name string, addr uint64) error {
	if err := g.ensureLoaded(); err != nil {
		return err
	}
	link := g.findLink(name)
	if link == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	link.ObjectAddress = addr
	return g.rewriteHeader()
}

// WriteDataset creates a rank-1 dataset under g, writes data to it, and
// returns the open dataset.
func WriteDataset[T Element](g *Group, name string, data []T) (*Dataset[T], error) {
	d, err := CreateDataset[T](g, name, []uint64{uint64(len(data))})
	if err != nil {
		return nil, err
	}
	if err := d.Write(data); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// WriteDatasetMatrix creates a rank-2 dataset under g from a matrix, writes
// it, and returns the open dataset.
func WriteDatasetMatrix[T Element](g *Group, name string, m Matrix[T]) (*Dataset[T], error) {
	d, err := CreateDataset[T](g, name, []uint64{uint64(m.Rows()), uint64(m.Cols())})
	if err != nil {
		return nil, err
	}
	if err := d.WriteMatrix(m); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
