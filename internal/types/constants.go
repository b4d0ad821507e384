package types

// SquashfsMagic is the little-endian superblock magic ("hsqs").
const SquashfsMagic uint32 = 0x73717368

// SuperblockSize is the fixed on-disk size of the squashfs superblock.
const SuperblockSize = 96

// MetadataBlockSize is the maximum decompressed size of a metadata block.
const MetadataBlockSize = 8192

// MetadataUncompressedFlag marks a metadata block stored without compression
// in the 16-bit block header; the low 15 bits carry the on-disk payload length.
const MetadataUncompressedFlag uint16 = 0x8000

// Supported on-disk format version.
const (
	VersionMajor uint16 = 4
	VersionMinor uint16 = 0
)

// Compression identifiers from the superblock.
const (
	CompressionGzip uint16 = 1
	CompressionLzma uint16 = 2
	CompressionLzo  uint16 = 3
	CompressionXz   uint16 = 4
	CompressionLz4  uint16 = 5
	CompressionZstd uint16 = 6
)

// Superblock flag bits.
const (
	FlagUncompressedInodes    uint16 = 0x0001
	FlagUncompressedData      uint16 = 0x0002
	FlagUncompressedFragments uint16 = 0x0008
	FlagNoFragments           uint16 = 0x0010
	FlagAlwaysFragments       uint16 = 0x0020
	FlagDedup                 uint16 = 0x0040
	FlagExportable            uint16 = 0x0080
	FlagUncompressedXattrs    uint16 = 0x0100
	FlagNoXattrs              uint16 = 0x0200
	FlagCompressorOptions     uint16 = 0x0400
	FlagUncompressedIDs       uint16 = 0x0800
)

// InvalidFragmentIndex marks a file inode that uses no fragment.
const InvalidFragmentIndex uint32 = 0xFFFFFFFF

// InodeType is the 16-bit discriminator tag leading every inode record.
type InodeType uint16

const (
	InodeBasicDirectory InodeType = 1
	InodeBasicFile      InodeType = 2
	InodeBasicSymlink   InodeType = 3
	InodeBasicBlockDev  InodeType = 4
	InodeBasicCharDev   InodeType = 5
	InodeBasicFifo      InodeType = 6
	InodeBasicSocket    InodeType = 7
	InodeExtDirectory   InodeType = 8
	InodeExtFile        InodeType = 9
	InodeExtSymlink     InodeType = 10
	InodeExtBlockDev    InodeType = 11
	InodeExtCharDev     InodeType = 12
	InodeExtFifo        InodeType = 13
	InodeExtSocket      InodeType = 14
)

// String returns the filesystem object kind for the tag, collapsing the
// basic/extended distinction.
func (t InodeType) String() string {
	switch t {
	case InodeBasicDirectory, InodeExtDirectory:
		return "directory"
	case InodeBasicFile, InodeExtFile:
		return "file"
	case InodeBasicSymlink, InodeExtSymlink:
		return "symlink"
	case InodeBasicBlockDev, InodeExtBlockDev:
		return "block device"
	case InodeBasicCharDev, InodeExtCharDev:
		return "char device"
	case InodeBasicFifo, InodeExtFifo:
		return "fifo"
	case InodeBasicSocket, InodeExtSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// IsDirectory reports whether the tag names either directory variant.
func (t InodeType) IsDirectory() bool {
	return t == InodeBasicDirectory || t == InodeExtDirectory
}
