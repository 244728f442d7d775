package hdf5

import (
	"fmt"
	"os"

	"github.com/pcafrica/dealii/internal/alloc"
	binpkg "github.com/pcafrica/dealii/internal/binary"
	"github.com/pcafrica/dealii/internal/heap"
	"github.com/pcafrica/dealii/internal/object"
	"github.com/pcafrica/dealii/internal/superblock"
)

// Mode selects how NewFile accesses the file.
type Mode int

const (
	// ModeCreate truncates or creates the file and writes a fresh
	// superblock and empty root group.
	ModeCreate Mode = iota
	// ModeOpen opens an existing file for reading and writing.
	ModeOpen
	// ModeReadOnly opens an existing file for reading.
	ModeReadOnly
)

// File is an open HDF5 file. Its embedded Group is the root group. The
// file's backing storage stays open until the file and every object opened
// from it have been closed.
type File struct {
	Group

	path      string
	osFile    *os.File
	reader    *binpkg.Reader
	writer    *binpkg.Writer
	sb        *superblock.Superblock
	allocator *alloc.Allocator
	comm      Communicator
	writable  bool
	strings   *heap.GlobalHeapWriter
}

// NewFile opens or creates the file at path. When a communicator is
// supplied via WithCommunicator, every rank must call NewFile with the same
// arguments and data transfers on the file become collective.
func NewFile(path string, mode Mode, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(&options)
	}

	var ctx *accessContext
	if options.comm != nil {
		ctx = newAccessContext(options.comm)
		defer ctx.release()
	}

	f := &File{path: path, comm: options.comm}
	var err error
	switch mode {
	case ModeCreate:
		err = f.create(options)
	case ModeOpen:
		err = f.open(true)
	case ModeReadOnly:
		err = f.open(false)
	default:
		return nil, fmt.Errorf("hdf5: unknown file mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	f.Object = Object{
		file:   f,
		name:   path,
		addr:   f.sb.RootGroupAddress,
		mpi:    options.comm != nil,
		handle: NewHandle(f.dispose),
	}
	if mode == ModeCreate {
		f.msgs = object.NewEmptyGroupHeader()
		f.loaded = true
	}
	if f.writable {
		f.strings = heap.NewGlobalHeapWriter(f.writer, f.allocate)
	}
	return f, nil
}

func (f *File) create(options fileOptions) error {
	osFile, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.path, err)
	}
	sb := superblock.New(options.offsetSize, options.lengthSize)
	cfg := sb.ReaderConfig()
	writer := binpkg.NewWriter(osFile, cfg)

	rootMsgs := object.NewEmptyGroupHeader()
	rootAddr := uint64(sb.Size())
	headerSize := object.HeaderSizeWithMinChunk(writer, rootMsgs, object.MinGroupChunkSize)
	sb.RootGroupAddress = rootAddr
	sb.EOFAddress = rootAddr + uint64(headerSize)

	if _, err := sb.Write(writer.At(0)); err != nil {
		osFile.Close()
		return fmt.Errorf("writing superblock: %w", err)
	}
	if _, err := object.WriteHeaderWithMinChunk(writer.At(int64(rootAddr)), rootMsgs, object.MinGroupChunkSize); err != nil {
		osFile.Close()
		return fmt.Errorf("writing root group: %w", err)
	}

	f.osFile = osFile
	f.reader = binpkg.NewReader(osFile, cfg)
	f.writer = writer
	f.sb = sb
	f.allocator = alloc.New(sb.EOFAddress)
	f.writable = true
	return nil
}

func (f *File) open(writable bool) error {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	osFile, err := os.OpenFile(f.path, flag, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.path, err)
	}
	sb, err := superblock.Read(osFile)
	if err != nil {
		osFile.Close()
		return fmt.Errorf("reading superblock of %s: %w", f.path, err)
	}
	cfg := sb.ReaderConfig()

	f.osFile = osFile
	f.reader = binpkg.NewReader(osFile, cfg)
	f.sb = sb
	f.allocator = alloc.New(sb.EOFAddress)
	f.writable = writable
	if writable {
		f.writer = binpkg.NewWriter(osFile, cfg)
	}
	return nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Flush writes the superblock with the current end-of-file address and syncs
// the underlying file.
func (f *File) Flush() error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	f.sb.EOFAddress = f.allocator.EOFAddr()
	if _, err := f.sb.Write(f.writer.At(f.sb.FileOffset)); err != nil {
		return fmt.Errorf("flushing superblock: %w", err)
	}
	return f.osFile.Sync()
}

// Close releases the file handle. The underlying file is finalized once
// every group and dataset opened from it has also been closed.
func (f *File) Close() error {
	if !f.handle.Valid() {
		return ErrClosed
	}
	return f.handle.Release()
}

// dispose runs when the last handle referencing the file is released.
func (f *File) dispose() error {
	var err error
	if f.writable {
		f.sb.EOFAddress = f.allocator.EOFAddr()
		if _, werr := f.sb.Write(f.writer.At(f.sb.FileOffset)); werr != nil {
			err = fmt.Errorf("finalizing superblock: %w", werr)
		} else if serr := f.osFile.Sync(); serr != nil {
			err = serr
		}
	}
	if cerr := f.osFile.Close(); err == nil {
		err = cerr
	}
	return err
}

func (f *File) retain() *Handle { return f.handle.Retain() }

func (f *File) allocate(size int64) uint64 { return f.allocator.Alloc(uint64(size)) }
