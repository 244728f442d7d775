package hdf5

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pcafrica/dealii/internal/message"
)

func TestComplexByteLayout(t *testing.T) {
	raw := encodeElements([]complex128{complex(1.5, -2.5)})
	if len(raw) != 16 {
		t.Fatalf("complex128 encodes to %d bytes", len(raw))
	}
	re := math.Float64frombits(binary.LittleEndian.Uint64(raw[0:8]))
	im := math.Float64frombits(binary.LittleEndian.Uint64(raw[8:16]))
	if re != 1.5 || im != -2.5 {
		t.Errorf("layout = (%v, %v), want real part first", re, im)
	}

	raw = encodeElements([]complex64{complex(3, 4)})
	if len(raw) != 8 {
		t.Fatalf("complex64 encodes to %d bytes", len(raw))
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4])) != 3 {
		t.Error("real part not at offset 0")
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(raw[4:8])) != 4 {
		t.Error("imaginary part not at half size")
	}
}

func TestComplexDescriptorIsCompound(t *testing.T) {
	td := newTypeDescriptor[complex128]()
	dt := td.Message()
	if !dt.IsCompound() || dt.Size != 16 {
		t.Fatalf("descriptor = %+v", dt)
	}
	if len(dt.Members) != 2 {
		t.Fatalf("got %d members", len(dt.Members))
	}
	if dt.Members[0].Name != "r" || dt.Members[0].ByteOffset != 0 {
		t.Errorf("member 0 = %+v", dt.Members[0])
	}
	if dt.Members[1].Name != "i" || dt.Members[1].ByteOffset != 8 {
		t.Errorf("member 1 = %+v", dt.Members[1])
	}
	if err := td.Close(); err != nil {
		t.Fatal(err)
	}
	if td.Message() != nil {
		t.Error("owned descriptor not disposed on release")
	}
}

func TestAliasDescriptorSurvivesClose(t *testing.T) {
	td := newTypeDescriptor[float64]()
	if err := td.Close(); err != nil {
		t.Fatal(err)
	}
	// Alias handles do not own the library constant.
	if td.Message() == nil || td.Message().Class != message.ClassFloatPoint {
		t.Error("alias descriptor disposed its datatype")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []int64{-5, 0, 1 << 40}
	out := decodeElements[int64](encodeElements(in), len(in))
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: %d != %d", i, out[i], in[i])
		}
	}
}
