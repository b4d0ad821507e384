package types

// DirectoryHeaderT precedes each run of directory entries. Count holds the
// number of entries in the run minus one; StartBlock is the metadata block
// offset (relative to the inode table start) shared by the run's inodes;
// InodeNumber is the base the entries' deltas apply to.
type DirectoryHeaderT struct {
	Count       uint32
	StartBlock  uint32
	InodeNumber uint32
}

// DirectoryEntryT is one decoded directory entry in on-disk order. Offset
// addresses the child inode inside the decompressed metadata block named
// by the owning header's StartBlock; InodeNumber is already resolved from
// the header base plus the entry's signed delta.
type DirectoryEntryT struct {
	StartBlock  uint32
	Offset      uint16
	InodeNumber uint32
	Type        InodeType
	Name        string
}

// InodeRef returns the metadata reference addressing the entry's inode.
func (e *DirectoryEntryT) InodeRef() MetadataRef {
	return MetadataRef{Block: e.StartBlock, Offset: e.Offset}
}
