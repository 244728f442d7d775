package hdf5

// Communicator is the process group used for collective I/O. Implementations
// wrap an MPI communicator; Barrier must not return until every rank has
// entered it.
type Communicator interface {
	Rank() int
	Size() int
	Barrier()
}

// SelfComm is a communicator containing only the local process. Barriers are
// no-ops.
type SelfComm struct{}

func (SelfComm) Rank() int { return 0 }
func (SelfComm) Size() int { return 1 }
func (SelfComm) Barrier()  {}

// accessContext carries the communicator while a file is being opened or
// created. It is released as soon as the file object exists, matching the
// lifetime of a file-access property list.
type accessContext struct {
	comm   Communicator
	handle *Handle
}

func newAccessContext(comm Communicator) *accessContext {
	return &accessContext{comm: comm, handle: NewHandle(nil)}
}

func (c *accessContext) release() {
	_ = c.handle.Release()
}

// transferContext governs one collective data transfer. Releasing it runs a
// barrier so that no rank leaves the write call before all ranks have
// entered it.
type transferContext struct {
	handle *Handle
}

func newTransferContext(comm Communicator) *transferContext {
	return &transferContext{
		handle: NewHandle(func() error {
			comm.Barrier()
			return nil
		}),
	}
}

func (c *transferContext) release() {
	if c == nil {
		return
	}
	_ = c.handle.Release()
}
