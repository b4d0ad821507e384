// Package metadata reads the self-delimited, individually compressed
// metadata blocks that hold packed inode and directory records.
package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/deploymenttheory/go-sqfs/internal/compression"
	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// BlockReader decrypts and decompresses metadata blocks on demand. Blocks
// are cached by absolute offset; a block's plaintext is a pure function of
// its ciphertext and the key, so the cache never invalidates.
type BlockReader struct {
	image      io.ReaderAt
	imageSize  uint64
	engine     *crypto.Engine
	decompress compression.Decompressor
	endian     binary.ByteOrder

	mu    sync.Mutex
	cache map[uint64]cachedBlock
}

type cachedBlock struct {
	payload []byte
	next    uint64
}

// NewBlockReader creates a reader over the image for the compression id
// named by the superblock.
func NewBlockReader(image io.ReaderAt, imageSize uint64, engine *crypto.Engine, compressionID uint16, endian binary.ByteOrder) (*BlockReader, error) {
	decompress, err := compression.ForID(compressionID)
	if err != nil {
		return nil, err
	}
	return &BlockReader{
		image:      image,
		imageSize:  imageSize,
		engine:     engine,
		decompress: decompress,
		endian:     endian,
		cache:      make(map[uint64]cachedBlock),
	}, nil
}

// BlockAt returns the decompressed payload of the metadata block at
// absolute byte offset off, together with the absolute offset immediately
// following the block on disk. The returned slice is owned by the cache
// and must not be modified.
func (br *BlockReader) BlockAt(off uint64) ([]byte, uint64, error) {
	br.mu.Lock()
	if cb, ok := br.cache[off]; ok {
		br.mu.Unlock()
		return cb.payload, cb.next, nil
	}
	br.mu.Unlock()

	payload, next, err := br.readBlock(off)
	if err != nil {
		return nil, 0, err
	}

	br.mu.Lock()
	br.cache[off] = cachedBlock{payload: payload, next: next}
	br.mu.Unlock()

	return payload, next, nil
}

// readBlock decrypts the 2-byte header at off, then exactly the declared
// number of payload bytes, and decompresses unless the header's
// uncompressed bit is set.
func (br *BlockReader) readBlock(off uint64) ([]byte, uint64, error) {
	if off+2 > br.imageSize {
		return nil, 0, fmt.Errorf("%w: metadata block header at offset %d", types.ErrTruncatedImage, off)
	}

	hdr := make([]byte, 2)
	if _, err := br.image.ReadAt(hdr, int64(off)); err != nil {
		return nil, 0, fmt.Errorf("reading metadata block header at offset %d: %w", off, err)
	}
	br.engine.DecryptAt(off, hdr)

	word := br.endian.Uint16(hdr)
	length := uint64(word &^ types.MetadataUncompressedFlag)
	uncompressed := word&types.MetadataUncompressedFlag != 0

	if length == 0 || length > types.MetadataBlockSize {
		return nil, 0, fmt.Errorf("%w: metadata block at offset %d declares %d payload bytes",
			types.ErrCorruptMetadata, off, length)
	}
	if off+2+length > br.imageSize {
		return nil, 0, fmt.Errorf("%w: metadata block at offset %d needs %d payload bytes past end of image",
			types.ErrTruncatedImage, off, length)
	}

	payload := make([]byte, length)
	if _, err := br.image.ReadAt(payload, int64(off+2)); err != nil {
		return nil, 0, fmt.Errorf("reading metadata block payload at offset %d: %w", off+2, err)
	}
	br.engine.DecryptAt(off+2, payload)

	if !uncompressed {
		out, err := br.decompress(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: decompressing metadata block at offset %d: %v",
				types.ErrCorruptMetadata, off, err)
		}
		payload = out
	}
	if len(payload) > types.MetadataBlockSize {
		return nil, 0, fmt.Errorf("%w: metadata block at offset %d decompresses to %d bytes",
			types.ErrCorruptMetadata, off, len(payload))
	}

	return payload, off + 2 + length, nil
}
