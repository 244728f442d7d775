package message

import (
	"bytes"
	"testing"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

func roundTrip(t *testing.T, msg Serializable) Message {
	t.Helper()
	buf := binpkg.NewBuffer(64)
	cfg := binpkg.DefaultConfig()
	w := binpkg.NewWriter(buf, cfg)
	if err := msg.Serialize(w); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if got, want := w.Pos(), int64(msg.SerializedSize(w)); got != want {
		t.Fatalf("wrote %d bytes, SerializedSize says %d", got, want)
	}
	data := buf.Bytes(w.Pos())
	r := binpkg.NewReader(bytes.NewReader(data), cfg)
	parsed, err := Parse(msg.Type(), data, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return parsed
}

func TestDataspaceRoundTrip(t *testing.T) {
	ds := NewDataspace([]uint64{3, 4, 5})
	parsed, ok := roundTrip(t, ds).(*Dataspace)
	if !ok {
		t.Fatal("parsed message is not a dataspace")
	}
	if parsed.Rank != 3 {
		t.Errorf("rank = %d", parsed.Rank)
	}
	if len(parsed.Dimensions) != 3 || parsed.Dimensions[0] != 3 || parsed.Dimensions[2] != 5 {
		t.Errorf("dims = %v", parsed.Dimensions)
	}
	if parsed.NumElements() != 60 {
		t.Errorf("num elements = %d", parsed.NumElements())
	}
}

func TestScalarDataspace(t *testing.T) {
	parsed, ok := roundTrip(t, NewScalarDataspace()).(*Dataspace)
	if !ok {
		t.Fatal("parsed message is not a dataspace")
	}
	if !parsed.IsScalar() {
		t.Error("not scalar after round trip")
	}
	if parsed.NumElements() != 1 {
		t.Errorf("num elements = %d", parsed.NumElements())
	}
}

func TestFixedPointRoundTrip(t *testing.T) {
	dt := NewFixedPointDatatype(4, true, OrderLE)
	parsed, ok := roundTrip(t, dt).(*Datatype)
	if !ok {
		t.Fatal("parsed message is not a datatype")
	}
	if !parsed.IsInteger() || parsed.Size != 4 || !parsed.Signed {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	for _, size := range []uint32{4, 8} {
		parsed, ok := roundTrip(t, NewFloatDatatype(size, OrderLE)).(*Datatype)
		if !ok {
			t.Fatal("parsed message is not a datatype")
		}
		if !parsed.IsFloat() || parsed.Size != size {
			t.Errorf("size %d: parsed = %+v", size, parsed)
		}
	}
}

func TestVarLenStringRoundTrip(t *testing.T) {
	dt := NewVarLenStringDatatype(CharsetUTF8)
	parsed, ok := roundTrip(t, dt).(*Datatype)
	if !ok {
		t.Fatal("parsed message is not a datatype")
	}
	if parsed.Class != ClassVarLen || !parsed.IsVarLenString {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.CharSet != CharsetUTF8 {
		t.Errorf("charset = %d", parsed.CharSet)
	}
}

func TestCompoundRoundTrip(t *testing.T) {
	inner := NewFloatDatatype(8, OrderLE)
	dt := NewCompoundDatatype(16, []CompoundMember{
		{Name: "r", ByteOffset: 0, Type: inner},
		{Name: "i", ByteOffset: 8, Type: inner},
	})
	parsed, ok := roundTrip(t, dt).(*Datatype)
	if !ok {
		t.Fatal("parsed message is not a datatype")
	}
	if !parsed.IsCompound() || parsed.Size != 16 || len(parsed.Members) != 2 {
		t.Fatalf("parsed = %+v", parsed)
	}
	if parsed.Members[0].Name != "r" || parsed.Members[0].ByteOffset != 0 {
		t.Errorf("member 0 = %+v", parsed.Members[0])
	}
	if parsed.Members[1].Name != "i" || parsed.Members[1].ByteOffset != 8 {
		t.Errorf("member 1 = %+v", parsed.Members[1])
	}
	if !parsed.Members[1].Type.IsFloat() {
		t.Error("member type lost")
	}
}

func TestHardLinkRoundTrip(t *testing.T) {
	link := NewHardLink("particles", 0xBEEF)
	parsed, ok := roundTrip(t, link).(*Link)
	if !ok {
		t.Fatal("parsed message is not a link")
	}
	if !parsed.IsHard() || parsed.Name != "particles" || parsed.ObjectAddress != 0xBEEF {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	attr := NewScalarAttribute("count", NewFixedPointDatatype(4, false, OrderLE), []byte{42, 0, 0, 0})
	parsed, ok := roundTrip(t, attr).(*Attribute)
	if !ok {
		t.Fatal("parsed message is not an attribute")
	}
	if parsed.Name != "count" {
		t.Errorf("name = %q", parsed.Name)
	}
	if !parsed.Dataspace.IsScalar() {
		t.Error("dataspace not scalar")
	}
	if !bytes.Equal(parsed.Data, []byte{42, 0, 0, 0}) {
		t.Errorf("data = %v", parsed.Data)
	}
}

func TestContiguousLayoutRoundTrip(t *testing.T) {
	layout := NewContiguousLayout(0x800, 4096)
	parsed, ok := roundTrip(t, layout).(*DataLayout)
	if !ok {
		t.Fatal("parsed message is not a layout")
	}
	if !parsed.IsContiguous() || parsed.Address != 0x800 || parsed.Size != 4096 {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestParseUnknownType(t *testing.T) {
	cfg := binpkg.DefaultConfig()
	r := binpkg.NewReader(bytes.NewReader(nil), cfg)
	msg, err := Parse(TypeFillValue, []byte{1, 2, 3}, r)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := msg.(*Unknown)
	if !ok {
		t.Fatal("unhandled type not wrapped in Unknown")
	}
	if u.Type() != TypeFillValue || len(u.Data()) != 3 {
		t.Errorf("unknown = %+v", u)
	}
}
