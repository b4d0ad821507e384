// Package inodes decodes the variable-length inode records of the inode
// table into typed values.
package inodes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-sqfs/internal/parsers/metadata"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// Inode headers are 16 bytes; the type-specific layout follows.
const inodeHeaderSize = 16

// maxBlockListLen bounds a file inode's block list; anything larger than
// this cannot come from a well-formed image.
const maxBlockListLen = 1 << 24

// ReadInode decodes the inode record at the cursor position. The record
// starts with a 16-bit type tag; the tag selects the fixed layout that
// follows. blockSize is needed to size regular files' block lists.
func ReadInode(cur *metadata.Cursor, blockSize uint32, endian binary.ByteOrder) (*types.Inode, error) {
	hdr, err := cur.Read(inodeHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("reading inode header: %w", err)
	}

	in := &types.Inode{
		Header: types.InodeHeaderT{
			Type:    types.InodeType(endian.Uint16(hdr[0:2])),
			Mode:    endian.Uint16(hdr[2:4]),
			UIDIdx:  endian.Uint16(hdr[4:6]),
			GIDIdx:  endian.Uint16(hdr[6:8]),
			ModTime: endian.Uint32(hdr[8:12]),
			Number:  endian.Uint32(hdr[12:16]),
		},
	}

	switch in.Header.Type {
	case types.InodeBasicDirectory:
		err = readBasicDir(cur, in, endian)
	case types.InodeExtDirectory:
		err = readExtDir(cur, in, endian)
	case types.InodeBasicFile:
		err = readBasicFile(cur, in, blockSize, endian)
	case types.InodeExtFile:
		err = readExtFile(cur, in, blockSize, endian)
	case types.InodeBasicSymlink, types.InodeExtSymlink:
		err = readSymlink(cur, in, endian)
	case types.InodeBasicBlockDev, types.InodeBasicCharDev:
		err = readBasicDevice(cur, in, endian)
	case types.InodeExtBlockDev, types.InodeExtCharDev:
		err = readExtDevice(cur, in, endian)
	case types.InodeBasicFifo, types.InodeBasicSocket:
		err = readBasicIPC(cur, in, endian)
	case types.InodeExtFifo, types.InodeExtSocket:
		err = readExtIPC(cur, in, endian)
	default:
		return nil, fmt.Errorf("%w: unrecognized inode type tag %d", types.ErrCorruptMetadata, in.Header.Type)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func readBasicDir(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(16)
	if err != nil {
		return fmt.Errorf("reading directory inode %d: %w", in.Header.Number, err)
	}
	in.Dir = &types.DirInodeData{
		StartBlock: endian.Uint32(data[0:4]),
		NLink:      endian.Uint32(data[4:8]),
		Size:       uint32(endian.Uint16(data[8:10])),
		Offset:     endian.Uint16(data[10:12]),
		Parent:     endian.Uint32(data[12:16]),
	}
	return nil
}

func readExtDir(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(24)
	if err != nil {
		return fmt.Errorf("reading extended directory inode %d: %w", in.Header.Number, err)
	}
	in.Dir = &types.DirInodeData{
		NLink:      endian.Uint32(data[0:4]),
		Size:       endian.Uint32(data[4:8]),
		StartBlock: endian.Uint32(data[8:12]),
		Parent:     endian.Uint32(data[12:16]),
		IndexCount: endian.Uint16(data[16:18]),
		Offset:     endian.Uint16(data[18:20]),
		XattrIdx:   endian.Uint32(data[20:24]),
	}
	return nil
}

func readBasicFile(cur *metadata.Cursor, in *types.Inode, blockSize uint32, endian binary.ByteOrder) error {
	data, err := cur.Read(16)
	if err != nil {
		return fmt.Errorf("reading file inode %d: %w", in.Header.Number, err)
	}
	file := &types.FileInodeData{
		StartBlock: uint64(endian.Uint32(data[0:4])),
		FragIdx:    endian.Uint32(data[4:8]),
		FragOffset: endian.Uint32(data[8:12]),
		Size:       uint64(endian.Uint32(data[12:16])),
	}
	if err := readBlockList(cur, file, blockSize, endian); err != nil {
		return fmt.Errorf("reading file inode %d block list: %w", in.Header.Number, err)
	}
	in.File = file
	return nil
}

func readExtFile(cur *metadata.Cursor, in *types.Inode, blockSize uint32, endian binary.ByteOrder) error {
	data, err := cur.Read(40)
	if err != nil {
		return fmt.Errorf("reading extended file inode %d: %w", in.Header.Number, err)
	}
	file := &types.FileInodeData{
		StartBlock: endian.Uint64(data[0:8]),
		Size:       endian.Uint64(data[8:16]),
		Sparse:     endian.Uint64(data[16:24]),
		NLink:      endian.Uint32(data[24:28]),
		FragIdx:    endian.Uint32(data[28:32]),
		FragOffset: endian.Uint32(data[32:36]),
		XattrIdx:   endian.Uint32(data[36:40]),
	}
	if err := readBlockList(cur, file, blockSize, endian); err != nil {
		return fmt.Errorf("reading extended file inode %d block list: %w", in.Header.Number, err)
	}
	in.File = file
	return nil
}

// readBlockList sizes and decodes the u32 block-size list that trails
// both file layouts. Files ending in a fragment round the count down;
// fragment-free files round up.
func readBlockList(cur *metadata.Cursor, file *types.FileInodeData, blockSize uint32, endian binary.ByteOrder) error {
	count := file.Size / uint64(blockSize)
	if file.FragIdx == types.InvalidFragmentIndex && file.Size%uint64(blockSize) != 0 {
		count++
	}
	if count > maxBlockListLen {
		return fmt.Errorf("%w: block list of %d entries", types.ErrCorruptMetadata, count)
	}
	if count == 0 {
		return nil
	}

	data, err := cur.Read(int(count) * 4)
	if err != nil {
		return err
	}
	file.BlockSizes = make([]uint32, count)
	for i := range file.BlockSizes {
		file.BlockSizes[i] = endian.Uint32(data[i*4 : i*4+4])
	}
	return nil
}

func readSymlink(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(8)
	if err != nil {
		return fmt.Errorf("reading symlink inode %d: %w", in.Header.Number, err)
	}
	link := &types.SymlinkInodeData{
		NLink: endian.Uint32(data[0:4]),
	}
	targetSize := endian.Uint32(data[4:8])
	if targetSize > types.MetadataBlockSize {
		return fmt.Errorf("%w: symlink target of %d bytes", types.ErrCorruptMetadata, targetSize)
	}
	link.Target, err = cur.Read(int(targetSize))
	if err != nil {
		return fmt.Errorf("reading symlink inode %d target: %w", in.Header.Number, err)
	}
	if in.Header.Type == types.InodeExtSymlink {
		xattr, err := cur.Read(4)
		if err != nil {
			return fmt.Errorf("reading symlink inode %d: %w", in.Header.Number, err)
		}
		link.XattrIdx = endian.Uint32(xattr)
	}
	in.Symlink = link
	return nil
}

func readBasicDevice(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(8)
	if err != nil {
		return fmt.Errorf("reading device inode %d: %w", in.Header.Number, err)
	}
	in.Device = &types.DeviceInodeData{
		NLink:  endian.Uint32(data[0:4]),
		Device: endian.Uint32(data[4:8]),
	}
	return nil
}

func readExtDevice(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(12)
	if err != nil {
		return fmt.Errorf("reading extended device inode %d: %w", in.Header.Number, err)
	}
	in.Device = &types.DeviceInodeData{
		NLink:    endian.Uint32(data[0:4]),
		Device:   endian.Uint32(data[4:8]),
		XattrIdx: endian.Uint32(data[8:12]),
	}
	return nil
}

func readBasicIPC(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(4)
	if err != nil {
		return fmt.Errorf("reading ipc inode %d: %w", in.Header.Number, err)
	}
	in.IPC = &types.IPCInodeData{NLink: endian.Uint32(data)}
	return nil
}

func readExtIPC(cur *metadata.Cursor, in *types.Inode, endian binary.ByteOrder) error {
	data, err := cur.Read(8)
	if err != nil {
		return fmt.Errorf("reading extended ipc inode %d: %w", in.Header.Number, err)
	}
	in.IPC = &types.IPCInodeData{
		NLink:    endian.Uint32(data[0:4]),
		XattrIdx: endian.Uint32(data[4:8]),
	}
	return nil
}
