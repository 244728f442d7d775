package hdf5

import "github.com/batchatco/go-thrower"

// Handle is a reference-counted guard around one storage resource. Retain
// returns a new wrapper sharing the same count; the release callback runs
// once, when the last wrapper is released. Releasing or retaining through a
// wrapper that was already released is a contract violation.
type Handle struct {
	state *handleState
}

type handleState struct {
	refs    int
	release func() error
}

// NewHandle returns a handle with a reference count of one. release may be
// nil for handles that alias a resource they do not own.
func NewHandle(release func() error) *Handle {
	return &Handle{state: &handleState{refs: 1, release: release}}
}

// Retain adds a reference and returns a new wrapper for it. The caller
// releases the returned wrapper independently of h.
func (h *Handle) Retain() *Handle {
	if h == nil || h.state == nil {
		thrower.Throw(ErrHandleReleased)
	}
	h.state.refs++
	return &Handle{state: h.state}
}

// Release drops this wrapper's reference. When the count reaches zero the
// release callback runs and its error is returned.
func (h *Handle) Release() error {
	if h == nil || h.state == nil {
		thrower.Throw(ErrHandleReleased)
	}
	s := h.state
	h.state = nil
	s.refs--
	if s.refs > 0 || s.release == nil {
		return nil
	}
	release := s.release
	s.release = nil
	return release()
}

// Valid reports whether this wrapper still holds a reference.
func (h *Handle) Valid() bool {
	return h != nil && h.state != nil
}
