package services

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/parsers/metadata"
	"github.com/deploymenttheory/go-sqfs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// ImageSession binds one encrypted image to one key: the cipher engine,
// the validated superblock and the metadata block reader. The superblock
// is read-only after construction.
type ImageSession struct {
	SessionID  string
	image      io.ReaderAt
	closer     io.Closer
	size       uint64
	endian     binary.ByteOrder
	engine     *crypto.Engine
	superblock *superblock.SuperblockReader
	blocks     *metadata.BlockReader
}

// OpenImage decrypts and validates the superblock of a byte-addressable
// image under the given 16-byte key and prepares metadata block access.
func OpenImage(image io.ReaderAt, size uint64, key []byte) (*ImageSession, error) {
	engine, err := crypto.NewEngine(key)
	if err != nil {
		return nil, err
	}

	endian := binary.ByteOrder(binary.LittleEndian)

	if size < types.SuperblockSize {
		return nil, fmt.Errorf("%w: image is %d bytes, superblock needs %d",
			types.ErrTruncatedImage, size, types.SuperblockSize)
	}
	raw := make([]byte, types.SuperblockSize)
	if _, err := image.ReadAt(raw, 0); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	sb, err := superblock.NewSuperblockReader(raw, engine, endian)
	if err != nil {
		return nil, err
	}
	if sb.Superblock.BytesUsed > size {
		return nil, fmt.Errorf("%w: superblock claims %d bytes used, image holds %d",
			types.ErrTruncatedImage, sb.Superblock.BytesUsed, size)
	}

	blocks, err := metadata.NewBlockReader(image, size, engine, sb.CompressionID(), endian)
	if err != nil {
		return nil, err
	}

	return &ImageSession{
		SessionID:  uuid.New().String(),
		image:      image,
		size:       size,
		endian:     endian,
		engine:     engine,
		superblock: sb,
		blocks:     blocks,
	}, nil
}

// OpenImageFile opens an image file from disk and establishes a session.
// Close releases the file handle.
func OpenImageFile(path string, key []byte) (*ImageSession, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	session, err := OpenImage(file, uint64(info.Size()), key)
	if err != nil {
		file.Close()
		return nil, err
	}
	session.closer = file
	return session, nil
}

// Close releases the underlying image source, if the session owns one.
func (s *ImageSession) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Superblock returns the validated superblock reader.
func (s *ImageSession) Superblock() *superblock.SuperblockReader {
	return s.superblock
}

// BlockReader returns the session's metadata block reader.
func (s *ImageSession) BlockReader() *metadata.BlockReader {
	return s.blocks
}
