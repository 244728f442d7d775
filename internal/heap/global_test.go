package heap

import (
	"bytes"
	"testing"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

func TestGlobalHeapRoundTrip(t *testing.T) {
	buf := binpkg.NewBuffer(512)
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(buf, cfg)

	next := uint64(64)
	ghw := NewGlobalHeapWriter(w, func(size int64) uint64 {
		addr := next
		next += uint64(size)
		return addr
	})

	i1 := ghw.AddString("temperature")
	i2 := ghw.AddString("άδεια") // multi-byte UTF-8
	i3 := ghw.AddBytes([]byte{1, 2, 3, 4})
	if i1 == i2 || i2 == i3 {
		t.Fatal("indices not distinct")
	}

	addr, ids, err := ghw.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d heap IDs", len(ids))
	}
	for _, id := range ids {
		if id.CollectionAddress != addr {
			t.Errorf("heap ID points at %#x, collection at %#x", id.CollectionAddress, addr)
		}
	}

	r := binpkg.NewReader(bytes.NewReader(buf.Bytes(int64(next))), cfg)
	gh, err := ReadGlobalHeap(r, addr)
	if err != nil {
		t.Fatalf("read heap: %v", err)
	}
	s1, err := gh.GetBytes(i1)
	if err != nil || string(s1) != "temperature" {
		t.Errorf("object %d = %q, err %v", i1, s1, err)
	}
	s2, err := gh.GetBytes(i2)
	if err != nil || string(s2) != "άδεια" {
		t.Errorf("object %d = %q, err %v", i2, s2, err)
	}
	raw, err := gh.GetObject(i3)
	if err != nil || !bytes.Equal(raw, []byte{1, 2, 3, 4}) {
		t.Errorf("object %d = %v, err %v", i3, raw, err)
	}
}

func TestGlobalHeapIDRoundTrip(t *testing.T) {
	buf := binpkg.NewBuffer(16)
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(buf, cfg)
	id := GlobalHeapID{CollectionAddress: 0xABCD, ObjectIndex: 3}
	if err := WriteGlobalHeapID(w, id); err != nil {
		t.Fatal(err)
	}
	if w.Pos() != int64(GlobalHeapIDSize(cfg.OffsetSize)) {
		t.Errorf("wrote %d bytes", w.Pos())
	}
	got, err := ParseGlobalHeapID(buf.Bytes(w.Pos()), cfg.OffsetSize)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("got %+v, want %+v", got, id)
	}
}

func TestMissingObject(t *testing.T) {
	buf := binpkg.NewBuffer(256)
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(buf, cfg)
	ghw := NewGlobalHeapWriter(w, func(size int64) uint64 { return 16 })
	ghw.AddString("x")
	if _, _, err := ghw.Flush(); err != nil {
		t.Fatal(err)
	}
	r := binpkg.NewReader(bytes.NewReader(buf.Bytes(256)), cfg)
	gh, err := ReadGlobalHeap(r, 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gh.GetObject(99); err == nil {
		t.Error("missing object fetched without error")
	}
}
