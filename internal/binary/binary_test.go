package binary

import (
	"bytes"
	stdbinary "encoding/binary"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	buf := NewBuffer(64)
	cfg := DefaultConfig()
	w := NewWriter(buf, cfg)

	if err := w.WriteUint8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint64(0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteOffset(0x1000); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBytes([]byte("OHDR")); err != nil {
		t.Fatal(err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes(w.Pos())), cfg)
	if v, _ := r.ReadUint8(); v != 0xAB {
		t.Errorf("uint8 = %#x", v)
	}
	if v, _ := r.ReadUint16(); v != 0x1234 {
		t.Errorf("uint16 = %#x", v)
	}
	if v, _ := r.ReadUint32(); v != 0xDEADBEEF {
		t.Errorf("uint32 = %#x", v)
	}
	if v, _ := r.ReadUint64(); v != 0x0102030405060708 {
		t.Errorf("uint64 = %#x", v)
	}
	if v, _ := r.ReadOffset(); v != 0x1000 {
		t.Errorf("offset = %#x", v)
	}
	sig, err := r.ReadBytes(4)
	if err != nil || string(sig) != "OHDR" {
		t.Errorf("bytes = %q, err = %v", sig, err)
	}
}

func TestVariableWidthFields(t *testing.T) {
	for _, size := range []int{2, 4, 8} {
		cfg := Config{ByteOrder: stdbinary.LittleEndian, OffsetSize: size, LengthSize: size}
		buf := NewBuffer(16)
		w := NewWriter(buf, cfg)
		want := uint64(0xFFFF) >> 1
		if err := w.WriteOffset(want); err != nil {
			t.Fatal(err)
		}
		if w.Pos() != int64(size) {
			t.Errorf("size %d: wrote %d bytes", size, w.Pos())
		}
		r := NewReader(bytes.NewReader(buf.Bytes(w.Pos())), cfg)
		got, err := r.ReadOffset()
		if err != nil || got != want {
			t.Errorf("size %d: got %#x, err %v", size, got, err)
		}
	}
}

func TestUndefinedOffset(t *testing.T) {
	cfg := Config{ByteOrder: stdbinary.LittleEndian, OffsetSize: 4, LengthSize: 4}
	buf := NewBuffer(8)
	w := NewWriter(buf, cfg)
	if err := w.WriteUndefinedOffset(); err != nil {
		t.Fatal(err)
	}
	r := NewReader(bytes.NewReader(buf.Bytes(4)), cfg)
	v, err := r.ReadOffset()
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsUndefinedOffset(v) {
		t.Errorf("%#x not recognized as undefined", v)
	}
	if r.IsUndefinedOffset(0) {
		t.Error("zero recognized as undefined")
	}
}

func TestReaderAtAndSkip(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	r := NewReader(bytes.NewReader(data), DefaultConfig())
	sub := r.At(4)
	if v, _ := sub.ReadUint8(); v != 4 {
		t.Errorf("At(4) read %d", v)
	}
	sub.Skip(2)
	if v, _ := sub.ReadUint8(); v != 7 {
		t.Errorf("after skip read %d", v)
	}
	// Peek must not advance.
	p := r.At(0)
	if _, err := p.Peek(4); err != nil {
		t.Fatal(err)
	}
	if p.Pos() != 0 {
		t.Errorf("peek advanced to %d", p.Pos())
	}
}

func TestEncodeDecodeUint(t *testing.T) {
	buf := make([]byte, 8)
	for _, size := range []int{1, 2, 4, 8} {
		want := uint64(0x7F) | uint64(size)<<3
		EncodeUint(buf, want, size, stdbinary.LittleEndian)
		if got := DecodeUint(buf, size, stdbinary.LittleEndian); got != want {
			t.Errorf("size %d: %#x != %#x", size, got, want)
		}
	}
}

func TestLookup3Checksum(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte{0x89, 'H', 'D', 'F'},
		[]byte("OHDR with a payload longer than twelve bytes"),
	}
	for _, in := range inputs {
		sum := Lookup3Checksum(in)
		if !VerifyLookup3(in, sum) {
			t.Errorf("checksum of %q does not verify", in)
		}
		if Lookup3Checksum(in) != sum {
			t.Errorf("checksum of %q not stable", in)
		}
	}
	a := Lookup3Checksum([]byte("aaaa"))
	b := Lookup3Checksum([]byte("aaab"))
	if a == b {
		t.Error("distinct inputs collide")
	}
}

func TestBufferGrows(t *testing.T) {
	buf := NewBuffer(4)
	if _, err := buf.WriteAt([]byte{1, 2, 3, 4}, 10); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes(14)
	if got[10] != 1 || got[13] != 4 {
		t.Errorf("bytes = %v", got)
	}
	for i := 0; i < 10; i++ {
		if got[i] != 0 {
			t.Errorf("gap byte %d = %d", i, got[i])
		}
	}
}
