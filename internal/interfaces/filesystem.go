// Package interfaces defines the narrow contracts exposed by the decode
// services to their consumers.
package interfaces

import "github.com/deploymenttheory/go-sqfs/internal/types"

// TreeLister walks the directory tree of an opened image and yields path
// entries in on-disk, depth-first order. Each Walk restarts from the root;
// a traversal is not resumable mid-sequence.
type TreeLister interface {
	Walk(fn func(types.PathEntry) error) error
	List() ([]types.PathEntry, error)
}

// InodeResolver maps inode numbers to their metadata table locations. The
// mapping is built incrementally while inodes decode, so a number is only
// resolvable after its record has been visited.
type InodeResolver interface {
	ResolveInode(number uint32) (types.MetadataRef, error)
}
