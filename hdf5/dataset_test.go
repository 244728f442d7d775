package hdf5_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcafrica/dealii/hdf5"
)

func roundTripDataset[T hdf5.Element](t *testing.T, values []T) {
	t.Helper()
	f, path := createFile(t)

	d, err := hdf5.WriteDataset(&f.Group, "data", values)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, f.Close())

	f, err = hdf5.NewFile(path, hdf5.ModeReadOnly)
	require.NoError(t, err)
	defer f.Close()

	d, err = hdf5.OpenDataset[T](&f.Group, "data")
	require.NoError(t, err)
	defer d.Close()
	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestDatasetRoundTripAllTypes(t *testing.T) {
	t.Run("float32", func(t *testing.T) { roundTripDataset(t, []float32{1.5, -2.25, 0}) })
	t.Run("float64", func(t *testing.T) { roundTripDataset(t, []float64{3.14159, -1e300, 0}) })
	t.Run("complex64", func(t *testing.T) { roundTripDataset(t, []complex64{1 + 2i, -3 - 4i}) })
	t.Run("complex128", func(t *testing.T) { roundTripDataset(t, []complex128{1.5 + 2.5i, -1e100 - 1e-100i}) })
	t.Run("int32", func(t *testing.T) { roundTripDataset(t, []int32{-1, 0, 1 << 30}) })
	t.Run("uint32", func(t *testing.T) { roundTripDataset(t, []uint32{0, 1, 1<<32 - 1}) })
	t.Run("int64", func(t *testing.T) { roundTripDataset(t, []int64{-1 << 62, 0, 1 << 62}) })
	t.Run("uint64", func(t *testing.T) { roundTripDataset(t, []uint64{0, 1<<64 - 1}) })
}

func TestMatrixDataset(t *testing.T) {
	f, path := createFile(t)

	m := hdf5.NewFullMatrix[float64](2, 3)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, float64(10*i+j))
		}
	}
	d, err := hdf5.WriteDatasetMatrix(&f.Group, "m", m)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, f.Close())

	f, err = hdf5.NewFile(path, hdf5.ModeReadOnly)
	require.NoError(t, err)
	defer f.Close()

	d, err = hdf5.OpenDataset[float64](&f.Group, "m")
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, []uint64{2, 3}, d.Dims())

	got, err := d.ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, 3, got.Cols())
	assert.Equal(t, 12.0, got.At(1, 2))
	assert.Equal(t, m.Data(), got.Data())
}

func TestSelectionWrite(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[int32](&f.Group, "s", []uint64{2, 4})
	require.NoError(t, err)
	defer d.Close()

	// Element (0,1) and element (1,3).
	err = d.WriteSelection([]int32{11, 42}, []uint64{0, 1, 1, 3})
	require.NoError(t, err)

	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 11, 0, 0, 0, 0, 0, 42}, got, "unselected elements must stay zero")
}

func TestHyperslabWrite(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[float64](&f.Group, "h", []uint64{4, 4})
	require.NoError(t, err)
	defer d.Close()

	err = d.WriteHyperslab([]float64{1, 2, 3, 4}, []uint64{1, 1}, []uint64{2, 2})
	require.NoError(t, err)

	got, err := d.ReadMatrix()
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.At(1, 1))
	assert.Equal(t, 2.0, got.At(1, 2))
	assert.Equal(t, 3.0, got.At(2, 1))
	assert.Equal(t, 4.0, got.At(2, 2))
	assert.Equal(t, 0.0, got.At(0, 0))
	assert.Equal(t, 0.0, got.At(3, 3))
}

func TestHyperslabMatrixWrite(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[int64](&f.Group, "h", []uint64{3, 3})
	require.NoError(t, err)
	defer d.Close()

	m := hdf5.NewFullMatrix[int64](2, 2)
	m.Set(0, 0, 5)
	m.Set(1, 1, 6)
	require.NoError(t, d.WriteHyperslabMatrix(m, []uint64{0, 1}))

	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5, 0, 0, 0, 6, 0, 0, 0}, got)
}

func TestRankOneHyperslab(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[uint32](&f.Group, "v", []uint64{6})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.WriteHyperslab([]uint32{7, 8}, []uint64{2}, []uint64{2}))
	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 7, 8, 0, 0}, got)
}

func TestOpenDatasetErrors(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	g, err := f.CreateGroup("grp")
	require.NoError(t, err)
	defer g.Close()
	d, err := hdf5.WriteDataset(&f.Group, "d", []float64{1})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = hdf5.OpenDataset[float64](&f.Group, "missing")
	assert.ErrorIs(t, err, hdf5.ErrNotFound)

	_, err = hdf5.OpenDataset[float32](&f.Group, "d")
	assert.ErrorIs(t, err, hdf5.ErrTypeMismatch)
	_, err = hdf5.OpenDataset[int64](&f.Group, "d")
	assert.ErrorIs(t, err, hdf5.ErrTypeMismatch)

	// Opening a group through the dataset API is a contract violation.
	assert.Panics(t, func() {
		_, _ = hdf5.OpenDataset[float64](&f.Group, "grp")
	})
}

func TestDatasetContractViolations(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[float64](&f.Group, "d", []uint64{2, 2})
	require.NoError(t, err)
	defer d.Close()

	assert.Panics(t, func() { _ = d.Write([]float64{1, 2, 3}) }, "wrong element count")
	assert.Panics(t, func() {
		m := hdf5.NewFullMatrix[float64](3, 3)
		_ = d.WriteMatrix(m)
	}, "wrong matrix extent")
	assert.Panics(t, func() {
		_ = d.WriteSelection([]float64{1}, []uint64{0})
	}, "coordinate list not rank-sized")
	assert.Panics(t, func() {
		_ = d.WriteSelection([]float64{1}, []uint64{5, 0})
	}, "coordinate outside extent")
	assert.Panics(t, func() {
		_ = d.WriteHyperslab([]float64{1, 2}, []uint64{1, 1}, []uint64{1, 2})
	}, "slab reaching past the extent")
	assert.Panics(t, func() {
		_, _ = hdf5.CreateDataset[float64](&f.Group, "r0", nil)
	}, "rank zero extent")
}

func TestCreateDatasetDuplicate(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[int32](&f.Group, "d", []uint64{1})
	require.NoError(t, err)
	defer d.Close()
	_, err = hdf5.CreateDataset[int32](&f.Group, "d", []uint64{1})
	assert.ErrorIs(t, err, hdf5.ErrExists)
}

func TestDatasetCloseReleasesHandles(t *testing.T) {
	f, _ := createFile(t)
	defer f.Close()

	d, err := hdf5.CreateDataset[int32](&f.Group, "d", []uint64{1})
	require.NoError(t, err)
	space := d.Dataspace()
	require.True(t, space.Handle().Valid())
	require.NoError(t, d.Close())
	assert.False(t, d.Handle().Valid())
	assert.False(t, space.Handle().Valid())
	assert.ErrorIs(t, d.Close(), hdf5.ErrClosed)
	assert.ErrorIs(t, d.Write([]int32{1}), hdf5.ErrClosed)
}

type countingComm struct {
	barriers int
}

func (c *countingComm) Rank() int { return 0 }
func (c *countingComm) Size() int { return 1 }
func (c *countingComm) Barrier() { c.barriers++ }

func TestCollectiveWritesBarrierPerCall(t *testing.T) {
	comm := &countingComm{}
	path := createFilePath(t)
	f, err := hdf5.NewFile(path, hdf5.ModeCreate, hdf5.WithCommunicator(comm))
	require.NoError(t, err)
	defer f.Close()

	d, err := hdf5.CreateDataset[float64](&f.Group, "d", []uint64{4})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Write([]float64{1, 2, 3, 4}))
	assert.Equal(t, 1, comm.barriers)

	// Ranks without data still enter the collective call.
	require.NoError(t, d.WriteNone())
	require.NoError(t, d.WriteNone())
	require.NoError(t, d.WriteNone())
	assert.Equal(t, 4, comm.barriers)

	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)
	assert.Equal(t, 5, comm.barriers, "reads are collective too")
}

func TestWriteNoneLeavesDataUntouched(t *testing.T) {
	comm := &countingComm{}
	f, err := hdf5.NewFile(createFilePath(t), hdf5.ModeCreate, hdf5.WithCommunicator(comm))
	require.NoError(t, err)
	defer f.Close()

	d, err := hdf5.WriteDataset(&f.Group, "d", []int32{9, 9})
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.WriteNone())

	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, []int32{9, 9}, got)
}
