// Package superblock decrypts and decodes the fixed 96-byte squashfs
// superblock at the start of the image.
package superblock

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"time"

	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// SuperblockReader wraps a decoded superblock with accessor methods.
type SuperblockReader struct {
	Superblock *types.SuperblockT
}

// NewSuperblockReader decrypts the first 96 bytes of the image with the
// engine at logical offset 0 and parses the fixed-layout fields. A magic
// mismatch after decryption means either a wrong key or a foreign format;
// the two cases cannot be told apart and report as one error kind.
func NewSuperblockReader(ciphertext []byte, engine *crypto.Engine, endian binary.ByteOrder) (*SuperblockReader, error) {
	if len(ciphertext) < types.SuperblockSize {
		return nil, fmt.Errorf("%w: %d bytes available for superblock, need %d",
			types.ErrTruncatedImage, len(ciphertext), types.SuperblockSize)
	}

	data := make([]byte, types.SuperblockSize)
	copy(data, ciphertext[:types.SuperblockSize])
	engine.DecryptAt(0, data)

	sb, err := parseSuperblock(data, endian)
	if err != nil {
		return nil, err
	}
	return &SuperblockReader{Superblock: sb}, nil
}

// parseSuperblock decodes the plaintext field layout and validates it.
func parseSuperblock(data []byte, endian binary.ByteOrder) (*types.SuperblockT, error) {
	sb := &types.SuperblockT{}

	sb.Magic = endian.Uint32(data[0:4])
	sb.InodeCount = endian.Uint32(data[4:8])
	sb.ModTime = endian.Uint32(data[8:12])
	sb.BlockSize = endian.Uint32(data[12:16])
	sb.FragmentCount = endian.Uint32(data[16:20])
	sb.CompressionID = endian.Uint16(data[20:22])
	sb.BlockLog = endian.Uint16(data[22:24])
	sb.Flags = endian.Uint16(data[24:26])
	sb.IDCount = endian.Uint16(data[26:28])
	sb.VersionMajor = endian.Uint16(data[28:30])
	sb.VersionMinor = endian.Uint16(data[30:32])
	sb.RootInodeRef = endian.Uint64(data[32:40])
	sb.BytesUsed = endian.Uint64(data[40:48])
	sb.IDTableStart = endian.Uint64(data[48:56])
	sb.XattrTableStart = endian.Uint64(data[56:64])
	sb.InodeTableStart = endian.Uint64(data[64:72])
	sb.DirTableStart = endian.Uint64(data[72:80])
	sb.FragTableStart = endian.Uint64(data[80:88])
	sb.ExportTableStart = endian.Uint64(data[88:96])

	if sb.Magic != types.SquashfsMagic {
		return nil, fmt.Errorf("%w: magic 0x%08X", types.ErrInvalidKeyOrFormat, sb.Magic)
	}
	if sb.VersionMajor != types.VersionMajor || sb.VersionMinor != types.VersionMinor {
		return nil, fmt.Errorf("%w: %d.%d", types.ErrUnsupportedVersion, sb.VersionMajor, sb.VersionMinor)
	}
	if sb.BlockSize == 0 || bits.OnesCount32(sb.BlockSize) != 1 {
		return nil, fmt.Errorf("%w: block size %d is not a power of two", types.ErrCorruptMetadata, sb.BlockSize)
	}
	if uint32(1)<<sb.BlockLog != sb.BlockSize {
		return nil, fmt.Errorf("%w: block log %d does not match block size %d",
			types.ErrCorruptMetadata, sb.BlockLog, sb.BlockSize)
	}

	return sb, nil
}

// RootInodeRef returns the unpacked root inode reference.
func (r *SuperblockReader) RootInodeRef() types.MetadataRef {
	return types.RefFromInodeRef(r.Superblock.RootInodeRef)
}

// BlockSize returns the data block size in bytes.
func (r *SuperblockReader) BlockSize() uint32 {
	return r.Superblock.BlockSize
}

// CompressionID returns the superblock's compression identifier.
func (r *SuperblockReader) CompressionID() uint16 {
	return r.Superblock.CompressionID
}

// InodeCount returns the number of inodes in the image.
func (r *SuperblockReader) InodeCount() uint32 {
	return r.Superblock.InodeCount
}

// ModificationTime returns the image modification timestamp.
func (r *SuperblockReader) ModificationTime() time.Time {
	return time.Unix(int64(r.Superblock.ModTime), 0)
}

// Flags returns the decoded superblock flag bits.
func (r *SuperblockReader) Flags() types.SuperblockFlags {
	return types.DecodeFlags(r.Superblock.Flags)
}

// Version returns the on-disk format version.
func (r *SuperblockReader) Version() (major, minor uint16) {
	return r.Superblock.VersionMajor, r.Superblock.VersionMinor
}
