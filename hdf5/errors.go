package hdf5

import "errors"

// Recoverable errors, returned from operations that can fail because of the
// state of the file on disk. Test with errors.Is.
var (
	// ErrClosed is returned when an operation is attempted on an object
	// whose handle has already been released.
	ErrClosed = errors.New("hdf5: object is closed")

	// ErrNotFound is returned when a named object or attribute does not
	// exist.
	ErrNotFound = errors.New("hdf5: name not found")

	// ErrExists is returned when creating an object under a name that is
	// already linked.
	ErrExists = errors.New("hdf5: name already exists")

	// ErrNotGroup is returned when opening a name as a group and the
	// stored object is a dataset.
	ErrNotGroup = errors.New("hdf5: object is not a group")

	// ErrTypeMismatch is returned when the stored datatype is not
	// compatible with the requested element type.
	ErrTypeMismatch = errors.New("hdf5: stored datatype does not match requested type")

	// ErrUnsupportedLayout is returned when a dataset uses a storage
	// layout other than contiguous.
	ErrUnsupportedLayout = errors.New("hdf5: unsupported storage layout")

	// ErrReadOnly is returned when a write is attempted on a file opened
	// in read-only mode.
	ErrReadOnly = errors.New("hdf5: file is read-only")
)

// Contract violations. These indicate a programming error in the caller and
// are thrown via thrower rather than returned; they surface as panics unless
// recovered with thrower.RecoverError.
var (
	// ErrNotDataset reports that a name opened as a dataset refers to a
	// group.
	ErrNotDataset = errors.New("hdf5: object is not a dataset")

	// ErrHandleReleased reports a second Release or a Retain on a handle
	// wrapper that was already released.
	ErrHandleReleased = errors.New("hdf5: handle already released")

	// ErrDimensionMismatch reports data whose shape does not match the
	// dataset or attribute extent.
	ErrDimensionMismatch = errors.New("hdf5: dimension mismatch")

	// ErrSelectionOutOfBounds reports a selection that reaches outside
	// the dataset extent.
	ErrSelectionOutOfBounds = errors.New("hdf5: selection outside dataset extent")
)
