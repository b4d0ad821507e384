package services

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

var testKey = []byte{
	0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
	0x58, 0x59, 0x5a, 0x5b, 0x5c, 0x5d, 0x5e, 0x5f,
}

// miniImage builds an encrypted image holding a root directory with two
// children: an empty regular file and a subdirectory containing one
// symlink. All metadata blocks are stored uncompressed; the whole image
// is RC4-encrypted from offset 0.
//
// Inode table layout (one block):
//
//	offset  0  file.txt  inode 2
//	offset 32  link      inode 3
//	offset 64  sub       inode 4
//	offset 96  root      inode 5
func miniImage(t *testing.T, mutateSuperblock func([]byte)) []byte {
	t.Helper()
	le := binary.LittleEndian

	inodeHeader := func(typ types.InodeType, mode uint16, number uint32) []byte {
		b := make([]byte, 16)
		le.PutUint16(b[0:2], uint16(typ))
		le.PutUint16(b[2:4], mode)
		le.PutUint32(b[8:12], 1700000000)
		le.PutUint32(b[12:16], number)
		return b
	}
	u32 := func(vals ...uint32) []byte {
		b := make([]byte, 4*len(vals))
		for i, v := range vals {
			le.PutUint32(b[i*4:], v)
		}
		return b
	}
	u16 := func(vals ...uint16) []byte {
		b := make([]byte, 2*len(vals))
		for i, v := range vals {
			le.PutUint16(b[i*2:], v)
		}
		return b
	}

	// Inode table payload.
	var inodes []byte
	inodes = append(inodes, inodeHeader(types.InodeBasicFile, 0o644, 2)...)
	inodes = append(inodes, u32(0, types.InvalidFragmentIndex, 0, 0)...)

	inodes = append(inodes, inodeHeader(types.InodeBasicSymlink, 0o777, 3)...)
	inodes = append(inodes, u32(1, 8)...)
	inodes = append(inodes, "file.txt"...)

	inodes = append(inodes, inodeHeader(types.InodeBasicDirectory, 0o755, 4)...)
	inodes = append(inodes, u32(0, 2)...)  // start block, nlink
	inodes = append(inodes, u16(27, 39)...) // size, offset
	inodes = append(inodes, u32(5)...)     // parent

	inodes = append(inodes, inodeHeader(types.InodeBasicDirectory, 0o755, 5)...)
	inodes = append(inodes, u32(0, 3)...)
	inodes = append(inodes, u16(42, 0)...)
	inodes = append(inodes, u32(6)...)

	require.Len(t, inodes, 128)

	// Directory table payload: root listing then sub listing.
	dirEntry := func(offset uint16, delta int16, typ types.InodeType, name string) []byte {
		b := u16(offset, uint16(delta), uint16(typ), uint16(len(name)-1))
		return append(b, name...)
	}

	var dirs []byte
	dirs = append(dirs, u32(1, 0, 2)...) // 2 entries, start block 0, base inode 2
	dirs = append(dirs, dirEntry(0, 0, types.InodeBasicFile, "file.txt")...)
	dirs = append(dirs, dirEntry(64, 2, types.InodeBasicDirectory, "sub")...)

	dirs = append(dirs, u32(0, 0, 3)...) // 1 entry, start block 0, base inode 3
	dirs = append(dirs, dirEntry(32, 0, types.InodeBasicSymlink, "link")...)

	require.Len(t, dirs, 63)

	metaBlock := func(payload []byte) []byte {
		b := u16(uint16(len(payload)) | types.MetadataUncompressedFlag)
		return append(b, payload...)
	}

	inodeTableStart := uint64(types.SuperblockSize)
	dirTableStart := inodeTableStart + uint64(len(inodes)) + 2
	bytesUsed := dirTableStart + uint64(len(dirs)) + 2

	sb := make([]byte, types.SuperblockSize)
	le.PutUint32(sb[0:4], types.SquashfsMagic)
	le.PutUint32(sb[4:8], 4)          // inode count
	le.PutUint32(sb[8:12], 1700000000)
	le.PutUint32(sb[12:16], 131072)   // block size
	le.PutUint16(sb[20:22], types.CompressionGzip)
	le.PutUint16(sb[22:24], 17) // block log
	le.PutUint16(sb[26:28], 1)  // id count
	le.PutUint16(sb[28:30], types.VersionMajor)
	le.PutUint16(sb[30:32], types.VersionMinor)
	le.PutUint64(sb[32:40], 96) // root ref: block 0, offset 96
	le.PutUint64(sb[40:48], bytesUsed)
	le.PutUint64(sb[48:56], bytesUsed) // id table
	le.PutUint64(sb[56:64], 0xFFFFFFFFFFFFFFFF)
	le.PutUint64(sb[64:72], inodeTableStart)
	le.PutUint64(sb[72:80], dirTableStart)
	le.PutUint64(sb[80:88], bytesUsed) // frag table
	le.PutUint64(sb[88:96], 0xFFFFFFFFFFFFFFFF)

	if mutateSuperblock != nil {
		mutateSuperblock(sb)
	}

	image := append([]byte{}, sb...)
	image = append(image, metaBlock(inodes)...)
	image = append(image, metaBlock(dirs)...)

	engine, err := crypto.NewEngine(testKey)
	require.NoError(t, err)
	engine.DecryptAt(0, image)
	return image
}

func openMini(t *testing.T, image []byte) *ImageSession {
	t.Helper()
	session, err := OpenImage(bytes.NewReader(image), uint64(len(image)), testKey)
	require.NoError(t, err)
	return session
}

func TestListMiniImage(t *testing.T) {
	session := openMini(t, miniImage(t, nil))
	lister, err := NewFileSystemLister(session)
	require.NoError(t, err)

	entries, err := lister.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "/file.txt", entries[0].Path)
	assert.Equal(t, "file", entries[0].Type)
	assert.Equal(t, uint64(0), entries[0].Size)
	assert.Equal(t, uint16(0o644), entries[0].Mode)

	assert.Equal(t, "/sub", entries[1].Path)
	assert.Equal(t, "directory", entries[1].Type)

	assert.Equal(t, "/sub/link", entries[2].Path)
	assert.Equal(t, "symlink", entries[2].Type)
	assert.Equal(t, "file.txt", entries[2].SymlinkTarget)
}

func TestListIsRestartableAndIdempotent(t *testing.T) {
	session := openMini(t, miniImage(t, nil))
	lister, err := NewFileSystemLister(session)
	require.NoError(t, err)

	first, err := lister.List()
	require.NoError(t, err)
	second, err := lister.List()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// An independent session over the same bytes must agree too.
	other := openMini(t, miniImage(t, nil))
	otherLister, err := NewFileSystemLister(other)
	require.NoError(t, err)
	third, err := otherLister.List()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	session := openMini(t, miniImage(t, nil))
	lister, err := NewFileSystemLister(session)
	require.NoError(t, err)

	wantErr := assert.AnError
	var seen int
	err = lister.Walk(func(types.PathEntry) error {
		seen++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, seen)
}

func TestResolveInode(t *testing.T) {
	session := openMini(t, miniImage(t, nil))
	lister, err := NewFileSystemLister(session)
	require.NoError(t, err)

	_, err = lister.List()
	require.NoError(t, err)

	ref, err := lister.ResolveInode(5)
	require.NoError(t, err)
	assert.Equal(t, types.MetadataRef{Block: 0, Offset: 96}, ref)

	ref, err = lister.ResolveInode(3)
	require.NoError(t, err)
	assert.Equal(t, types.MetadataRef{Block: 0, Offset: 32}, ref)

	_, err = lister.ResolveInode(99)
	assert.ErrorIs(t, err, types.ErrUnresolvedInodeReference)
}

func TestMismatchedEntryInodeNumber(t *testing.T) {
	// Shift the root listing's base inode number so every entry points at
	// a record whose own number disagrees.
	image := miniImage(t, nil)

	// Rebuild with a corrupted directory base: decrypt, patch, re-encrypt.
	engine, err := crypto.NewEngine(testKey)
	require.NoError(t, err)
	engine.DecryptAt(0, image)

	dirTableStart := binary.LittleEndian.Uint64(image[72:80])
	// Directory payload begins after the 2-byte block header; the base
	// inode number is bytes 8..12 of the first run header.
	base := dirTableStart + 2 + 8
	binary.LittleEndian.PutUint32(image[base:base+4], 70)

	reEnc, err := crypto.NewEngine(testKey)
	require.NoError(t, err)
	reEnc.DecryptAt(0, image)

	session := openMini(t, image)
	lister, err := NewFileSystemLister(session)
	require.NoError(t, err)

	_, err = lister.List()
	assert.ErrorIs(t, err, types.ErrUnresolvedInodeReference)
}
