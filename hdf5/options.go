package hdf5

type fileOptions struct {
	offsetSize int
	lengthSize int
	comm       Communicator
}

func defaultFileOptions() fileOptions {
	return fileOptions{offsetSize: 8, lengthSize: 8}
}

// FileOption configures NewFile.
type FileOption func(*fileOptions)

// WithCommunicator makes every data transfer on the file collective over
// comm. All ranks must open the file with the same options and participate
// in every write call.
func WithCommunicator(comm Communicator) FileOption {
	return func(o *fileOptions) { o.comm = comm }
}

// WithOffsetSize sets the width in bytes of file offsets when creating a
// file. Valid values are 2, 4, and 8.
func WithOffsetSize(n int) FileOption {
	return func(o *fileOptions) { o.offsetSize = n }
}

// WithLengthSize sets the width in bytes of lengths when creating a file.
// Valid values are 2, 4, and 8.
func WithLengthSize(n int) FileOption {
	return func(o *fileOptions) { o.lengthSize = n }
}
