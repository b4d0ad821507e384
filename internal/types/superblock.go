package types

// SuperblockT mirrors the fixed 96-byte squashfs 4.0 superblock layout.
// All fields are little-endian on disk.
type SuperblockT struct {
	Magic            uint32
	InodeCount       uint32
	ModTime          uint32
	BlockSize        uint32
	FragmentCount    uint32
	CompressionID    uint16
	BlockLog         uint16
	Flags            uint16
	IDCount          uint16
	VersionMajor     uint16
	VersionMinor     uint16
	RootInodeRef     uint64
	BytesUsed        uint64
	IDTableStart     uint64
	XattrTableStart  uint64
	InodeTableStart  uint64
	DirTableStart    uint64
	FragTableStart   uint64
	ExportTableStart uint64
}

// MetadataRef locates a record inside a metadata table: Block is the byte
// offset of the owning metadata block relative to the table start, Offset
// the byte offset of the record inside the decompressed block.
type MetadataRef struct {
	Block  uint32
	Offset uint16
}

// RefFromInodeRef unpacks the packed 64-bit inode reference used by the
// superblock root pointer: bits 16..47 carry the block offset, the low 16
// bits the in-block offset.
func RefFromInodeRef(ref uint64) MetadataRef {
	return MetadataRef{
		Block:  uint32((ref >> 16) & 0xFFFFFFFF),
		Offset: uint16(ref & 0xFFFF),
	}
}

// SuperblockFlags is the decoded view of the superblock flag bits.
type SuperblockFlags struct {
	UncompressedInodes    bool
	UncompressedData      bool
	UncompressedFragments bool
	NoFragments           bool
	AlwaysFragments       bool
	Dedup                 bool
	Exportable            bool
	UncompressedXattrs    bool
	NoXattrs              bool
	CompressorOptions     bool
	UncompressedIDs       bool
}

// DecodeFlags expands the packed flag bits.
func DecodeFlags(flags uint16) SuperblockFlags {
	return SuperblockFlags{
		UncompressedInodes:    flags&FlagUncompressedInodes != 0,
		UncompressedData:      flags&FlagUncompressedData != 0,
		UncompressedFragments: flags&FlagUncompressedFragments != 0,
		NoFragments:           flags&FlagNoFragments != 0,
		AlwaysFragments:       flags&FlagAlwaysFragments != 0,
		Dedup:                 flags&FlagDedup != 0,
		Exportable:            flags&FlagExportable != 0,
		UncompressedXattrs:    flags&FlagUncompressedXattrs != 0,
		NoXattrs:              flags&FlagNoXattrs != 0,
		CompressorOptions:     flags&FlagCompressorOptions != 0,
		UncompressedIDs:       flags&FlagUncompressedIDs != 0,
	}
}
