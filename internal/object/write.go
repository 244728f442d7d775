package object

import (
	"github.com/pcafrica/dealii/internal/binary"
	"github.com/pcafrica/dealii/internal/message"
)

// MinGroupChunkSize is the minimum chunk size for group object headers,
// matching what h5py emits.
const MinGroupChunkSize = 120

// WriteHeader writes a V2 object header at the current writer position,
// buffering it to compute the checksum. Returns the total bytes written.
func WriteHeader(w *binary.Writer, messages []message.Message) (int64, error) {
	return WriteHeaderWithMinChunk(w, messages, 0)
}

// WriteHeaderWithMinChunk writes a V2 object header padded with a NIL
// message up to a minimum chunk size. The chunk size field covers the
// messages only; the checksum follows them.
func WriteHeaderWithMinChunk(w *binary.Writer, messages []message.Message, minChunkSize int) (int64, error) {
	startPos := w.Pos()

	var messagesSize int
	for _, msg := range messages {
		messagesSize += messageHeaderSize(w, msg)
		if s, ok := msg.(message.Serializable); ok {
			messagesSize += s.SerializedSize(w)
		}
	}

	chunkSize := paddedChunkSize(messagesSize, minChunkSize)
	paddingSize := chunkSize - messagesSize

	chunkSizeFieldSize := chunkSizeFieldBytes(int64(chunkSize))
	flags := uint8(chunkSizeFieldSize - 1)

	headerSize := 4 + 1 + 1 + chunkSizeFieldSize + chunkSize + 4

	buf := binary.NewBuffer(headerSize)
	bw := binary.NewWriter(buf, w.Config())

	if err := bw.WriteBytes(SignatureV2); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(2); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(flags); err != nil {
		return 0, err
	}
	if err := bw.WriteUintN(uint64(chunkSize), chunkSizeFieldSize); err != nil {
		return 0, err
	}

	for _, msg := range messages {
		if err := writeV2Message(bw, msg); err != nil {
			return 0, err
		}
	}

	if paddingSize > 0 {
		// NIL message: type(1) + size(2) + flags(1) + zeros.
		nilDataSize := paddingSize - 4
		if err := bw.WriteUint8(0x00); err != nil {
			return 0, err
		}
		if err := bw.WriteUint16(uint16(nilDataSize)); err != nil {
			return 0, err
		}
		if err := bw.WriteUint8(0x00); err != nil {
			return 0, err
		}
		if err := bw.WriteZeros(nilDataSize); err != nil {
			return 0, err
		}
	}

	checksum := binary.Lookup3Checksum(buf.Bytes(bw.Pos()))
	if err := bw.WriteUint32(checksum); err != nil {
		return 0, err
	}

	if err := w.WriteBytes(buf.Bytes(bw.Pos())); err != nil {
		return 0, err
	}

	return w.Pos() - startPos, nil
}

func writeV2Message(w *binary.Writer, msg message.Message) error {
	s, ok := msg.(message.Serializable)
	if !ok {
		return nil
	}

	dataSize := s.SerializedSize(w)
	if dataSize > 0xFFFF {
		// Extended form with a 32-bit size.
		if err := w.WriteUint8(0xFF); err != nil {
			return err
		}
		if err := w.WriteUint8(uint8(msg.Type())); err != nil {
			return err
		}
		if err := w.WriteUint32(uint32(dataSize)); err != nil {
			return err
		}
	} else {
		if err := w.WriteUint8(uint8(msg.Type())); err != nil {
			return err
		}
		if err := w.WriteUint16(uint16(dataSize)); err != nil {
			return err
		}
	}

	if err := w.WriteUint8(0); err != nil { // message flags
		return err
	}
	return s.Serialize(w)
}

func messageHeaderSize(w *binary.Writer, msg message.Message) int {
	s, ok := msg.(message.Serializable)
	if !ok {
		return 0
	}
	if s.SerializedSize(w) > 0xFFFF {
		return 7
	}
	return 4
}

func chunkSizeFieldBytes(size int64) int {
	switch {
	case size <= 0xFF:
		return 1
	case size <= 0xFFFF:
		return 2
	case size <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// HeaderSize returns the total on-disk size of a V2 object header.
func HeaderSize(w *binary.Writer, messages []message.Message) int {
	return HeaderSizeWithMinChunk(w, messages, 0)
}

// HeaderSizeWithMinChunk returns the total on-disk size of a V2 object
// header with a minimum chunk size applied.
func HeaderSizeWithMinChunk(w *binary.Writer, messages []message.Message, minChunkSize int) int {
	var messagesSize int
	for _, msg := range messages {
		messagesSize += messageHeaderSize(w, msg)
		if s, ok := msg.(message.Serializable); ok {
			messagesSize += s.SerializedSize(w)
		}
	}

	chunkSize := paddedChunkSize(messagesSize, minChunkSize)
	return 4 + 1 + 1 + chunkSizeFieldBytes(int64(chunkSize)) + chunkSize + 4
}

// paddedChunkSize applies the minimum chunk size, leaving room for the
// 4-byte NIL message header whenever any padding is needed at all.
func paddedChunkSize(messagesSize, minChunkSize int) int {
	if minChunkSize <= 0 || messagesSize >= minChunkSize {
		return messagesSize
	}
	if minChunkSize-messagesSize < 4 {
		return messagesSize + 4
	}
	return minChunkSize
}

// NewEmptyGroupHeader creates the messages for an empty group object header.
func NewEmptyGroupHeader() []message.Message {
	return []message.Message{
		message.NewLinkInfo(),
		message.NewGroupInfo(),
	}
}

// NewGroupHeader creates the messages for a group object header holding the
// given links and attributes.
func NewGroupHeader(links []*message.Link, attrs []*message.Attribute) []message.Message {
	messages := make([]message.Message, 0, len(links)+len(attrs)+2)
	messages = append(messages, message.NewLinkInfo(), message.NewGroupInfo())
	for _, link := range links {
		messages = append(messages, link)
	}
	for _, attr := range attrs {
		messages = append(messages, attr)
	}
	return messages
}

// NewDatasetHeader creates the messages for a dataset object header.
func NewDatasetHeader(dataspace *message.Dataspace, datatype *message.Datatype, layout *message.DataLayout, attrs []*message.Attribute) []message.Message {
	messages := []message.Message{dataspace, datatype, layout}
	for _, attr := range attrs {
		messages = append(messages, attr)
	}
	return messages
}
