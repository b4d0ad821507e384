package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/deploymenttheory/go-sqfs/internal/crypto"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

var testKey = []byte{
	0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27,
	0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f,
}

// appendBlock appends a metadata block (2-byte header + payload) to the
// plaintext image under construction.
func appendBlock(image []byte, payload []byte, compressed bool) []byte {
	word := uint16(len(payload))
	if !compressed {
		word |= types.MetadataUncompressedFlag
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], word)
	image = append(image, hdr[:]...)
	return append(image, payload...)
}

// encryptImage XORs a whole plaintext image with the keystream from
// offset 0 and wraps it as a random-access source.
func encryptImage(t *testing.T, plaintext []byte) *bytes.Reader {
	t.Helper()
	engine, err := crypto.NewEngine(testKey)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	buf := append([]byte{}, plaintext...)
	engine.DecryptAt(0, buf)
	return bytes.NewReader(buf)
}

func newReader(t *testing.T, image *bytes.Reader, size uint64) *BlockReader {
	t.Helper()
	engine, err := crypto.NewEngine(testKey)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	br, err := NewBlockReader(image, size, engine, types.CompressionGzip, binary.LittleEndian)
	if err != nil {
		t.Fatalf("NewBlockReader: %v", err)
	}
	return br
}

func TestUncompressedBlock(t *testing.T) {
	payload := []byte("uncompressed inode records")
	plain := appendBlock(nil, payload, false)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	got, next, err := br.BlockAt(0)
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: %q", got)
	}
	if want := uint64(2 + len(payload)); next != want {
		t.Errorf("next offset = %d, want %d", next, want)
	}
}

func TestCompressedBlock(t *testing.T) {
	payload := bytes.Repeat([]byte("squashfs "), 200)

	var comp bytes.Buffer
	w := zlib.NewWriter(&comp)
	w.Write(payload)
	w.Close()

	plain := appendBlock(nil, comp.Bytes(), true)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	got, _, err := br.BlockAt(0)
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decompressed payload mismatch")
	}
}

func TestBlockCacheReturnsSamePayload(t *testing.T) {
	payload := []byte("cache me")
	plain := appendBlock(nil, payload, false)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	first, _, err := br.BlockAt(0)
	if err != nil {
		t.Fatalf("first BlockAt: %v", err)
	}
	second, _, err := br.BlockAt(0)
	if err != nil {
		t.Fatalf("second BlockAt: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("cached read differs from first read")
	}
}

func TestTruncatedPayload(t *testing.T) {
	// Header declares 100 payload bytes but the image ends after 10.
	plain := appendBlock(nil, make([]byte, 100), false)
	plain = plain[:12]
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	_, _, err := br.BlockAt(0)
	if !errors.Is(err, types.ErrTruncatedImage) {
		t.Errorf("err = %v, want ErrTruncatedImage", err)
	}
}

func TestHeaderPastEndOfImage(t *testing.T) {
	plain := appendBlock(nil, []byte("x"), false)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	_, _, err := br.BlockAt(uint64(len(plain)) - 1)
	if !errors.Is(err, types.ErrTruncatedImage) {
		t.Errorf("err = %v, want ErrTruncatedImage", err)
	}
}

func TestZeroLengthBlock(t *testing.T) {
	plain := appendBlock(nil, nil, false)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	_, _, err := br.BlockAt(0)
	if !errors.Is(err, types.ErrCorruptMetadata) {
		t.Errorf("err = %v, want ErrCorruptMetadata", err)
	}
}

func TestCorruptCompressedBlock(t *testing.T) {
	plain := appendBlock(nil, []byte{0xFF, 0xFE, 0xFD, 0xFC}, true)
	image := encryptImage(t, plain)

	br := newReader(t, image, uint64(len(plain)))
	_, _, err := br.BlockAt(0)
	if !errors.Is(err, types.ErrCorruptMetadata) {
		t.Errorf("err = %v, want ErrCorruptMetadata", err)
	}
}
