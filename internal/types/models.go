package types

// PathEntry is one row of a structural listing: a fully resolved path and
// the object's type, size and permission bits. Entries are derived fresh
// per listing and never persisted.
type PathEntry struct {
	Path          string
	Type          string
	Size          uint64
	Mode          uint16
	InodeNumber   uint32
	SymlinkTarget string
}
