package hdf5

import (
	"fmt"

	"github.com/batchatco/go-thrower"
)

// Matrix is a rank-2 container stored in row-major order. Data returns the
// backing slice of length Rows*Cols.
type Matrix[T Element] interface {
	Rows() int
	Cols() int
	Data() []T
}

// FullMatrix is a dense row-major matrix.
type FullMatrix[T Element] struct {
	rows, cols int
	data       []T
}

// NewFullMatrix returns a zero-valued rows-by-cols matrix.
func NewFullMatrix[T Element](rows, cols int) *FullMatrix[T] {
	if rows < 0 || cols < 0 {
		thrower.Throw(fmt.Errorf("%w: negative matrix extent %dx%d", ErrDimensionMismatch, rows, cols))
	}
	return &FullMatrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

func (m *FullMatrix[T]) Rows() int { return m.rows }
func (m *FullMatrix[T]) Cols() int { return m.cols }
func (m *FullMatrix[T]) Data() []T { return m.data }

// At returns the element at row i, column j.
func (m *FullMatrix[T]) At(i, j int) T {
	return m.data[i*m.cols+j]
}

// Set stores v at row i, column j.
func (m *FullMatrix[T]) Set(i, j int, v T) {
	m.data[i*m.cols+j] = v
}
