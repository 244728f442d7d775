package hdf5

// Dataspace tracks the extent of a dataset and the selection active during a
// transfer. Its handle is released by the owning dataset's Close, after the
// dataset handle itself.
type Dataspace struct {
	dims   []uint64
	kind   selectionKind
	coords []uint64 // flattened, selectElements
	offset []uint64 // selectHyperslab
	count  []uint64 // selectHyperslab
	handle *Handle
}

type selectionKind int

const (
	selectAll selectionKind = iota
	selectElements
	selectHyperslab
	selectNone
)

func newDataspace(dims []uint64) *Dataspace {
	s := &Dataspace{dims: dims, kind: selectAll}
	s.handle = NewHandle(func() error {
		s.dims = nil
		s.reset()
		return nil
	})
	return s
}

// Dims returns the dataspace extent.
func (s *Dataspace) Dims() []uint64 { return s.dims }

// Handle returns the handle guarding the dataspace.
func (s *Dataspace) Handle() *Handle { return s.handle }

func (s *Dataspace) selectElementList(coords []uint64) {
	s.kind = selectElements
	s.coords = coords
}

func (s *Dataspace) selectSlab(offset, count []uint64) {
	s.kind = selectHyperslab
	s.offset = offset
	s.count = count
}

func (s *Dataspace) selectNothing() {
	s.kind = selectNone
}

func (s *Dataspace) reset() {
	s.kind = selectAll
	s.coords = nil
	s.offset = nil
	s.count = nil
}
