package types

// InodeHeaderT is the 16-byte header shared by every inode record.
type InodeHeaderT struct {
	Type    InodeType
	Mode    uint16
	UIDIdx  uint16
	GIDIdx  uint16
	ModTime uint32
	Number  uint32
}

// DirInodeData carries the directory-specific inode fields. Basic and
// extended directory records decode into the same shape; fields absent
// from the basic layout stay zero.
type DirInodeData struct {
	StartBlock uint32
	NLink      uint32
	Size       uint32
	Offset     uint16
	Parent     uint32
	IndexCount uint16
	XattrIdx   uint32
}

// FileInodeData carries the regular-file inode fields for both layouts.
type FileInodeData struct {
	StartBlock uint64
	FragIdx    uint32
	FragOffset uint32
	Size       uint64
	Sparse     uint64
	NLink      uint32
	XattrIdx   uint32
	BlockSizes []uint32
}

// SymlinkInodeData carries the symlink target.
type SymlinkInodeData struct {
	NLink    uint32
	Target   []byte
	XattrIdx uint32
}

// DeviceInodeData carries block/char device numbers.
type DeviceInodeData struct {
	NLink    uint32
	Device   uint32
	XattrIdx uint32
}

// IPCInodeData covers fifo and socket inodes.
type IPCInodeData struct {
	NLink    uint32
	XattrIdx uint32
}

// Inode is the tagged-variant decoding of one inode record. Exactly one
// of the variant pointers is non-nil, selected by Header.Type.
type Inode struct {
	Header  InodeHeaderT
	Dir     *DirInodeData
	File    *FileInodeData
	Symlink *SymlinkInodeData
	Device  *DeviceInodeData
	IPC     *IPCInodeData
}

// IsDirectory reports whether the inode is a directory of either layout.
func (in *Inode) IsDirectory() bool {
	return in.Header.Type.IsDirectory()
}

// Size returns the logical size of the object: byte length for files,
// directory table length for directories, target length for symlinks and
// zero for device and IPC nodes.
func (in *Inode) Size() uint64 {
	switch {
	case in.File != nil:
		return in.File.Size
	case in.Dir != nil:
		return uint64(in.Dir.Size)
	case in.Symlink != nil:
		return uint64(len(in.Symlink.Target))
	default:
		return 0
	}
}
