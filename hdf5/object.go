package hdf5

import (
	"fmt"

	"github.com/pcafrica/dealii/internal/message"
	"github.com/pcafrica/dealii/internal/object"
)

// Object is the state shared by every named entity in a file: its name, the
// file it belongs to, the address of its header, and the handle guarding it.
type Object struct {
	file   *File
	parent *Group // nil for the root group
	name   string
	addr   uint64
	mpi    bool
	handle *Handle

	msgs   []message.Message
	loaded bool
}

// Attributed is satisfied by every object attributes can be attached to:
// files, groups, and datasets.
type Attributed interface {
	object() *Object
}

func (o *Object) object() *Object { return o }

// Name returns the name the object is linked under. For a file it is the
// file path.
func (o *Object) Name() string { return o.name }

// MPI reports whether transfers on this object are collective.
func (o *Object) MPI() bool { return o.mpi }

// Handle returns the handle guarding the object.
func (o *Object) Handle() *Handle { return o.handle }

func (o *Object) checkOpen() error {
	if !o.handle.Valid() {
		return ErrClosed
	}
	return nil
}

func (o *Object) checkWritable() error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	if !o.file.writable {
		return ErrReadOnly
	}
	return nil
}

func (o *Object) ensureLoaded() error {
	if o.loaded {
		return nil
	}
	hdr, err := object.Read(o.file.reader, o.addr)
	if err != nil {
		return fmt.Errorf("reading object header for %q: %w", o.name, err)
	}
	o.msgs = hdr.Messages
	o.loaded = true
	return nil
}

func (o *Object) links() []*message.Link {
	var links []*message.Link
	for _, msg := range o.msgs {
		if link, ok := msg.(*message.Link); ok {
			links = append(links, link)
		}
	}
	return links
}

func (o *Object) findLink(name string) *message.Link {
	for _, msg := range o.msgs {
		if link, ok := msg.(*message.Link); ok && link.Name == name {
			return link
		}
	}
	return nil
}

func (o *Object) attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range o.msgs {
		if attr, ok := msg.(*message.Attribute); ok {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

func (o *Object) findAttribute(name string) *message.Attribute {
	for _, msg := range o.msgs {
		if attr, ok := msg.(*message.Attribute); ok && attr.Name == name {
			return attr
		}
	}
	return nil
}

// setAttribute replaces or appends an attribute message and rewrites the
// header.
func (o *Object) setAttribute(attr *message.Attribute) error {
	if err := o.ensureLoaded(); err != nil {
		return err
	}
	replaced := false
	for i, msg := range o.msgs {
		if a, ok := msg.(*message.Attribute); ok && a.Name == attr.Name {
			o.msgs[i] = attr
			replaced = true
			break
		}
	}
	if !replaced {
		o.msgs = append(o.msgs, attr)
	}
	return o.rewriteHeader()
}

// addLink appends a hard link and rewrites the header.
func (o *Object) addLink(link *message.Link) error {
	if err := o.ensureLoaded(); err != nil {
		return err
	}
	o.msgs = append(o.msgs, link)
	return o.rewriteHeader()
}

// rebuildMessages regroups the object's messages into canonical header
// order. Returns the messages and the minimum chunk size for the header.
func (o *Object) rebuildMessages() ([]message.Message, int) {
	var (
		links  []*message.Link
		attrs  []*message.Attribute
		space  *message.Dataspace
		dtype  *message.Datatype
		layout *message.DataLayout
	)
	for _, msg := range o.msgs {
		switch m := msg.(type) {
		case *message.Link:
			links = append(links, m)
		case *message.Attribute:
			attrs = append(attrs, m)
		case *message.Dataspace:
			space = m
		case *message.Datatype:
			dtype = m
		case *message.DataLayout:
			layout = m
		}
	}
	if space != nil && dtype != nil && layout != nil {
		return object.NewDatasetHeader(space, dtype, layout, attrs), 0
	}
	return object.NewGroupHeader(links, attrs), object.MinGroupChunkSize
}

// rewriteHeader writes the header to a newly allocated block and patches the
// reference to it, either the parent group's link or the superblock root
// group address. Storage is append-only, so the old header block is simply
// abandoned.
func (o *Object) rewriteHeader() error {
	msgs, minChunk := o.rebuildMessages()
	size := object.HeaderSizeWithMinChunk(o.file.writer, msgs, minChunk)
	addr := o.file.allocate(int64(size))
	if _, err := object.WriteHeaderWithMinChunk(o.file.writer.At(int64(addr)), msgs, minChunk); err != nil {
		return fmt.Errorf("rewriting header for %q: %w", o.name, err)
	}
	o.addr = addr
	o.msgs = msgs
	if o.parent == nil {
		o.file.sb.RootGroupAddress = addr
		return nil
	}
	return o.parent.updateChildLink(o.name, addr)
}

// AttrNames returns the names of the object's attributes in storage order.
func (o *Object) AttrNames() ([]string, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	if err := o.ensureLoaded(); err != nil {
		return nil, err
	}
	var names []string
	for _, attr := range o.attributes() {
		names = append(names, attr.Name)
	}
	return names, nil
}
