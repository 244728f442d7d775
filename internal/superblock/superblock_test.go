package superblock

import (
	"bytes"
	"testing"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

func TestWriteReadRoundTrip(t *testing.T) {
	sb := New(8, 8)
	sb.RootGroupAddress = 0x30
	sb.EOFAddress = 0x200

	buf := binpkg.NewBuffer(64)
	w := binpkg.NewWriter(buf, sb.ReaderConfig())
	n, err := sb.Write(w)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != int64(sb.Size()) {
		t.Errorf("wrote %d bytes, Size says %d", n, sb.Size())
	}

	got, err := Read(bytes.NewReader(buf.Bytes(n)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Version != sb.Version {
		t.Errorf("version = %d, want %d", got.Version, sb.Version)
	}
	if got.OffsetSize != 8 || got.LengthSize != 8 {
		t.Errorf("sizes = %d/%d", got.OffsetSize, got.LengthSize)
	}
	if got.RootGroupAddress != 0x30 {
		t.Errorf("root group at %#x", got.RootGroupAddress)
	}
	if got.EOFAddress != 0x200 {
		t.Errorf("EOF at %#x", got.EOFAddress)
	}
	if got.FileOffset != 0 {
		t.Errorf("found at offset %d", got.FileOffset)
	}
}

func TestSmallOffsetSizes(t *testing.T) {
	sb := New(4, 4)
	sb.RootGroupAddress = 0x30
	sb.EOFAddress = 0x1000

	buf := binpkg.NewBuffer(64)
	w := binpkg.NewWriter(buf, sb.ReaderConfig())
	n, err := sb.Write(w)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes(n)))
	if err != nil {
		t.Fatal(err)
	}
	if got.OffsetSize != 4 || got.RootGroupAddress != 0x30 {
		t.Errorf("parsed = %+v", got)
	}
}

func TestReadAtSecondaryOffset(t *testing.T) {
	sb := New(8, 8)
	sb.RootGroupAddress = 0x230
	sb.EOFAddress = 0x400

	buf := binpkg.NewBuffer(1024)
	w := binpkg.NewWriter(buf, sb.ReaderConfig())
	if _, err := sb.Write(w.At(512)); err != nil {
		t.Fatal(err)
	}
	got, err := Read(bytes.NewReader(buf.Bytes(1024)))
	if err != nil {
		t.Fatal(err)
	}
	if got.FileOffset != 512 {
		t.Errorf("found at offset %d, want 512", got.FileOffset)
	}
	if got.RootGroupAddress != 0x230 {
		t.Errorf("root group at %#x", got.RootGroupAddress)
	}
}

func TestReadRejectsNonHDF5(t *testing.T) {
	if _, err := Read(bytes.NewReader(make([]byte, 4096))); err == nil {
		t.Error("zero file read without error")
	}
	if _, err := Read(bytes.NewReader([]byte("not an hdf5 file"))); err == nil {
		t.Error("short garbage read without error")
	}
}
