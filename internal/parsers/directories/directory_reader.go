// Package directories decodes directory table listings into ordered
// entry sequences.
package directories

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-sqfs/internal/parsers/metadata"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

const directoryHeaderSize = 12

// A single header may be followed by at most 256 entries.
const maxEntriesPerHeader = 256

const maxNameLen = 256

// ReadDirectory decodes the listing of a directory inode whose table data
// occupies size bytes at the cursor position. The on-disk size counts 3
// virtual bytes for "." and ".." that have no table representation.
// Entries are returned in on-disk order, which is insertion order.
func ReadDirectory(cur *metadata.Cursor, size uint32, endian binary.ByteOrder) ([]types.DirectoryEntryT, error) {
	if size <= 3 {
		return nil, nil
	}
	remaining := int(size - 3)

	var entries []types.DirectoryEntryT
	for cur.Consumed() < remaining {
		if remaining-cur.Consumed() < directoryHeaderSize {
			return nil, fmt.Errorf("%w: %d trailing directory bytes cannot hold a header",
				types.ErrCorruptMetadata, remaining-cur.Consumed())
		}
		hdrData, err := cur.Read(directoryHeaderSize)
		if err != nil {
			return nil, fmt.Errorf("reading directory header: %w", err)
		}
		hdr := types.DirectoryHeaderT{
			Count:       endian.Uint32(hdrData[0:4]),
			StartBlock:  endian.Uint32(hdrData[4:8]),
			InodeNumber: endian.Uint32(hdrData[8:12]),
		}
		if hdr.Count >= maxEntriesPerHeader {
			return nil, fmt.Errorf("%w: directory header declares %d entries",
				types.ErrCorruptMetadata, hdr.Count+1)
		}

		for i := uint32(0); i <= hdr.Count; i++ {
			entry, err := readEntry(cur, &hdr, remaining, endian)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
	if cur.Consumed() != remaining {
		return nil, fmt.Errorf("%w: directory run overran its declared size by %d bytes",
			types.ErrCorruptMetadata, cur.Consumed()-remaining)
	}

	return entries, nil
}

// readEntry decodes one entry: in-block inode offset, signed inode number
// delta against the header base, type tag, and the name.
func readEntry(cur *metadata.Cursor, hdr *types.DirectoryHeaderT, remaining int, endian binary.ByteOrder) (types.DirectoryEntryT, error) {
	const fixed = 8
	if remaining-cur.Consumed() < fixed {
		return types.DirectoryEntryT{}, fmt.Errorf("%w: truncated directory entry run", types.ErrCorruptMetadata)
	}
	data, err := cur.Read(fixed)
	if err != nil {
		return types.DirectoryEntryT{}, fmt.Errorf("reading directory entry: %w", err)
	}

	offset := endian.Uint16(data[0:2])
	delta := int16(endian.Uint16(data[2:4]))
	entryType := types.InodeType(endian.Uint16(data[4:6]))
	nameLen := int(endian.Uint16(data[6:8])) + 1

	if nameLen > maxNameLen {
		return types.DirectoryEntryT{}, fmt.Errorf("%w: directory entry name of %d bytes",
			types.ErrCorruptMetadata, nameLen)
	}
	if remaining-cur.Consumed() < nameLen {
		return types.DirectoryEntryT{}, fmt.Errorf("%w: truncated directory entry name", types.ErrCorruptMetadata)
	}
	name, err := cur.Read(nameLen)
	if err != nil {
		return types.DirectoryEntryT{}, fmt.Errorf("reading directory entry name: %w", err)
	}

	return types.DirectoryEntryT{
		StartBlock:  hdr.StartBlock,
		Offset:      offset,
		InodeNumber: uint32(int64(hdr.InodeNumber) + int64(delta)),
		Type:        entryType,
		Name:        string(name),
	}, nil
}
