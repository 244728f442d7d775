// Package superblock handles the HDF5 superblock, the entry point of every
// HDF5 file: format version, offset/length sizes, and the root group address.
package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	binpkg "github.com/pcafrica/dealii/internal/binary"
)

// Signature is the HDF5 file signature: 0x89 H D F \r \n 0x1a \n.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// The signature may sit at the start of the file or at one of these
// power-of-two offsets (user blocks).
var superblockOffsets = []int64{0, 512, 1024, 2048}

// Errors.
var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock contains the essential HDF5 file metadata (versions 2 and 3;
// both share the same layout).
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress                uint64
	SuperblockExtensionAddress uint64
	EOFAddress                 uint64
	RootGroupAddress           uint64

	ByteOrder  binary.ByteOrder
	FileOffset int64
}

/*
Version 2/3 superblock layout:

	0      8   signature
	8      1   version (2 or 3)
	9      1   size of offsets
	10     1   size of lengths
	11     1   file consistency flags
	12     O   base address
	12+O   O   superblock extension address
	12+2O  O   EOF address
	12+3O  O   root group object header address
	12+4O  4   checksum (lookup3)
*/

// Read locates and parses the superblock from an HDF5 file.
func Read(r io.ReaderAt) (*Superblock, error) {
	sigBuf := make([]byte, 8)

	for _, offset := range superblockOffsets {
		if _, err := r.ReadAt(sigBuf, offset); err != nil {
			if err == io.EOF {
				continue
			}
			return nil, err
		}
		if !bytes.Equal(sigBuf, Signature) {
			continue
		}

		verBuf := make([]byte, 1)
		if _, err := r.ReadAt(verBuf, offset+8); err != nil {
			return nil, err
		}
		if verBuf[0] != 2 && verBuf[0] != 3 {
			return nil, ErrUnsupportedVersion
		}

		sb, err := readV2V3(r, offset)
		if err != nil {
			return nil, err
		}
		sb.FileOffset = offset
		sb.ByteOrder = binary.LittleEndian
		return sb, nil
	}

	return nil, ErrNotHDF5
}

func readV2V3(r io.ReaderAt, offset int64) (*Superblock, error) {
	header := make([]byte, 4)
	if _, err := r.ReadAt(header, offset+8); err != nil {
		return nil, err
	}

	sb := &Superblock{
		Version:              header[0],
		OffsetSize:           header[1],
		LengthSize:           header[2],
		FileConsistencyFlags: header[3],
	}

	osize := int(sb.OffsetSize)
	pos := offset + 12
	addrBuf := make([]byte, osize)

	for _, field := range []*uint64{
		&sb.BaseAddress,
		&sb.SuperblockExtensionAddress,
		&sb.EOFAddress,
		&sb.RootGroupAddress,
	} {
		if _, err := r.ReadAt(addrBuf, pos); err != nil {
			return nil, err
		}
		*field = binpkg.DecodeUint(addrBuf, osize, binary.LittleEndian)
		pos += int64(osize)
	}

	checksumData := make([]byte, pos-offset)
	if _, err := r.ReadAt(checksumData, offset); err != nil {
		return nil, err
	}
	checksumBuf := make([]byte, 4)
	if _, err := r.ReadAt(checksumBuf, pos); err != nil {
		return nil, err
	}
	stored := binary.LittleEndian.Uint32(checksumBuf)
	if !binpkg.VerifyLookup3(checksumData, stored) {
		return nil, ErrInvalidSuperblock
	}

	return sb, nil
}

// ReaderConfig returns a binary.Config matching this superblock.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  sb.ByteOrder,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Write writes the superblock at the current writer position. Returns the
// total bytes written.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	startPos := w.Pos()

	headerSize := 12 + 4*w.OffsetSize()
	buf := binpkg.NewBuffer(headerSize + 4)
	bw := binpkg.NewWriter(buf, w.Config())

	if err := bw.WriteBytes(Signature); err != nil {
		return 0, err
	}

	version := sb.Version
	if version < 2 {
		version = 2
	}
	for _, b := range []uint8{version, sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags} {
		if err := bw.WriteUint8(b); err != nil {
			return 0, err
		}
	}

	if err := bw.WriteOffset(sb.BaseAddress); err != nil {
		return 0, err
	}
	extAddr := sb.SuperblockExtensionAddress
	if extAddr == 0 {
		extAddr = bw.UndefinedOffset()
	}
	if err := bw.WriteOffset(extAddr); err != nil {
		return 0, err
	}
	if err := bw.WriteOffset(sb.EOFAddress); err != nil {
		return 0, err
	}
	if err := bw.WriteOffset(sb.RootGroupAddress); err != nil {
		return 0, err
	}

	checksum := binpkg.Lookup3Checksum(buf.Bytes(bw.Pos()))
	if err := bw.WriteUint32(checksum); err != nil {
		return 0, err
	}

	if err := w.WriteBytes(buf.Bytes(bw.Pos())); err != nil {
		return 0, err
	}

	return w.Pos() - startPos, nil
}

// Size returns the on-disk size of the superblock.
func (sb *Superblock) Size() int {
	offsetSize := int(sb.OffsetSize)
	if offsetSize == 0 {
		offsetSize = 8
	}
	return 12 + 4*offsetSize + 4
}

// New creates a version 3 superblock with the given offset and length sizes.
func New(offsetSize, lengthSize int) *Superblock {
	return &Superblock{
		Version:    3,
		OffsetSize: uint8(offsetSize),
		LengthSize: uint8(lengthSize),
		ByteOrder:  binary.LittleEndian,
	}
}
