// Package hdf5 provides an object-oriented interface to HDF5 files.
//
// Files, groups, and datasets share a reference-counted Handle that ties the
// lifetime of on-disk resources to the objects using them: a file's backing
// storage is finalized only after every group and dataset opened from it has
// been closed. Scalar attributes of numeric, boolean, string, and matrix
// kinds can be attached to any object.
//
// When a Communicator is supplied, data transfers are collective: every rank
// participates in each write call, including ranks with no data to
// contribute, which call WriteNone.
package hdf5
