package types

import "errors"

// Decode error kinds. Every failure surfaced by a decode layer wraps
// exactly one of these sentinels so callers can classify with errors.Is.
// Decoding never retries and never recovers partial results: once any
// layer fails, no downstream byte of the image can be trusted.
var (
	// ErrInvalidKeyOrFormat is returned when the superblock magic does not
	// match after decryption. A wrong key and a non-squashfs image are
	// indistinguishable at this point and are reported as one kind.
	ErrInvalidKeyOrFormat = errors.New("invalid key or not a squashfs image")

	// ErrUnsupportedVersion is returned for any on-disk version other than 4.0.
	ErrUnsupportedVersion = errors.New("unsupported squashfs version")

	// ErrUnsupportedCompression is returned when the superblock names a
	// compression id with no registered decompressor.
	ErrUnsupportedCompression = errors.New("unsupported compression id")

	// ErrTruncatedImage is returned when a declared length would read past
	// the end of the image.
	ErrTruncatedImage = errors.New("truncated image")

	// ErrCorruptMetadata is returned for malformed block headers, bad type
	// tags, failed decompression and truncated entry runs.
	ErrCorruptMetadata = errors.New("corrupt metadata")

	// ErrUnresolvedInodeReference is returned when a directory entry names
	// an inode number that does not match any decodable inode record.
	ErrUnresolvedInodeReference = errors.New("unresolved inode reference")
)
