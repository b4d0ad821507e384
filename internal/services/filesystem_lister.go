package services

import (
	"fmt"
	"path"
	"sync"

	"github.com/deploymenttheory/go-sqfs/internal/interfaces"
	"github.com/deploymenttheory/go-sqfs/internal/parsers/directories"
	"github.com/deploymenttheory/go-sqfs/internal/parsers/inodes"
	"github.com/deploymenttheory/go-sqfs/internal/types"
)

var (
	_ interfaces.TreeLister    = (*FileSystemLister)(nil)
	_ interfaces.InodeResolver = (*FileSystemLister)(nil)
)

// maxWalkDepth bounds directory recursion. The format guarantees a tree,
// so any path deeper than this is treated as corruption rather than
// followed indefinitely.
const maxWalkDepth = 512

// FileSystemLister walks an image's directory tree from the root inode
// and yields one PathEntry per filesystem object in on-disk, depth-first
// order. It also accumulates the inode number index as records decode.
type FileSystemLister struct {
	session *ImageSession

	mu    sync.Mutex
	index map[uint32]types.MetadataRef
}

// NewFileSystemLister creates a lister over an open session.
func NewFileSystemLister(session *ImageSession) (*FileSystemLister, error) {
	if session == nil {
		return nil, fmt.Errorf("image session cannot be nil")
	}
	return &FileSystemLister{
		session: session,
		index:   make(map[uint32]types.MetadataRef),
	}, nil
}

// Walk traverses the tree depth-first, calling fn for every object below
// the root directory in on-disk order. The traversal restarts from the
// root on every call and stops at the first error, either fn's or a
// decode failure.
func (l *FileSystemLister) Walk(fn func(types.PathEntry) error) error {
	sb := l.session.Superblock()
	rootRef := sb.RootInodeRef()

	root, err := l.decodeInode(rootRef)
	if err != nil {
		return fmt.Errorf("decoding root inode: %w", err)
	}
	if !root.IsDirectory() {
		return fmt.Errorf("%w: root inode type %d is not a directory",
			types.ErrCorruptMetadata, root.Header.Type)
	}

	return l.walkDirectory(root, "/", 1, fn)
}

// List collects the full traversal into a slice.
func (l *FileSystemLister) List() ([]types.PathEntry, error) {
	var entries []types.PathEntry
	err := l.Walk(func(e types.PathEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ResolveInode returns the metadata reference recorded for an inode
// number during traversal.
func (l *FileSystemLister) ResolveInode(number uint32) (types.MetadataRef, error) {
	l.mu.Lock()
	ref, ok := l.index[number]
	l.mu.Unlock()
	if !ok {
		return types.MetadataRef{}, fmt.Errorf("%w: inode %d", types.ErrUnresolvedInodeReference, number)
	}
	return ref, nil
}

// decodeInode reads the inode record at ref and records its number in the
// index.
func (l *FileSystemLister) decodeInode(ref types.MetadataRef) (*types.Inode, error) {
	sb := l.session.Superblock()
	cur := l.session.BlockReader().CursorAt(sb.Superblock.InodeTableStart, ref)

	in, err := inodes.ReadInode(cur, sb.BlockSize(), l.session.endian)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.index[in.Header.Number] = ref
	l.mu.Unlock()

	return in, nil
}

// walkDirectory yields each child of dir and recurses into child
// directories. Symlinks, devices and IPC nodes are leaves.
func (l *FileSystemLister) walkDirectory(dir *types.Inode, dirPath string, depth int, fn func(types.PathEntry) error) error {
	if depth > maxWalkDepth {
		return fmt.Errorf("%w: directory nesting exceeds %d at %s",
			types.ErrCorruptMetadata, maxWalkDepth, dirPath)
	}

	sb := l.session.Superblock()
	cur := l.session.BlockReader().CursorAt(
		sb.Superblock.DirTableStart,
		types.MetadataRef{Block: dir.Dir.StartBlock, Offset: dir.Dir.Offset},
	)

	entries, err := directories.ReadDirectory(cur, dir.Dir.Size, l.session.endian)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dirPath, err)
	}

	for i := range entries {
		entry := &entries[i]

		child, err := l.decodeInode(entry.InodeRef())
		if err != nil {
			return fmt.Errorf("decoding inode for %s: %w", path.Join(dirPath, entry.Name), err)
		}
		if child.Header.Number != entry.InodeNumber {
			return fmt.Errorf("%w: entry %q names inode %d but the record at its location is inode %d",
				types.ErrUnresolvedInodeReference, entry.Name, entry.InodeNumber, child.Header.Number)
		}

		childPath := path.Join(dirPath, entry.Name)
		pe := types.PathEntry{
			Path:        childPath,
			Type:        child.Header.Type.String(),
			Size:        child.Size(),
			Mode:        child.Header.Mode,
			InodeNumber: child.Header.Number,
		}
		if child.Symlink != nil {
			pe.SymlinkTarget = string(child.Symlink.Target)
		}
		if err := fn(pe); err != nil {
			return err
		}

		if child.IsDirectory() {
			if err := l.walkDirectory(child, childPath, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
