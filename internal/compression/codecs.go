// Package compression maps squashfs compression identifiers to
// decompressors. Codecs are pure functions over byte slices; which codec
// applies to a block is decided by the superblock's compression field.
package compression

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// Decompressor decompresses one complete compressed payload.
type Decompressor func(data []byte) ([]byte, error)

// ForID returns the decompressor registered for a superblock compression
// id, or types.ErrUnsupportedCompression for ids the tool cannot decode
// (lzo, lz4, zstd) or does not recognize.
func ForID(id uint16) (Decompressor, error) {
	switch id {
	case types.CompressionGzip:
		return decompressZlib, nil
	case types.CompressionLzma:
		return decompressLzma, nil
	case types.CompressionXz:
		return decompressXz, nil
	case types.CompressionLzo, types.CompressionLz4, types.CompressionZstd:
		return nil, fmt.Errorf("%w: %d", types.ErrUnsupportedCompression, id)
	default:
		return nil, fmt.Errorf("%w: unknown id %d", types.ErrUnsupportedCompression, id)
	}
}

// decompressZlib handles the squashfs "gzip" codec, which is zlib framing.
func decompressZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return out, nil
}

func decompressLzma(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	return out, nil
}

func decompressXz(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	return out, nil
}
