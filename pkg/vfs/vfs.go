// Package vfs implements the in-memory filesystem presented to honeypot
// sessions. It is a flat inode table: every file, directory and symlink is
// an inode, directories hold name -> inode entries. Nothing ever touches
// the host filesystem.
package vfs

import (
	"strings"
	"sync"
	"time"
)

// Ino is an inode number. The root directory is always inode 1.
type Ino uint64

// RootIno is the inode number of the filesystem root.
const RootIno Ino = 1

// FileKind discriminates inode content types.
type FileKind int

const (
	KindRegular FileKind = iota
	KindDirectory
	KindSymlink
)

func (k FileKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// DirEntry is a single name inside a directory.
type DirEntry struct {
	Name string
	Ino  Ino
}

// content is the per-kind payload of an inode.
type content interface {
	kind() FileKind
}

type dirContent struct {
	entries []DirEntry
}

type fileContent struct {
	data []byte
}

type symlinkContent struct {
	target string
}

func (dirContent) kind() FileKind     { return KindDirectory }
func (fileContent) kind() FileKind    { return KindRegular }
func (symlinkContent) kind() FileKind { return KindSymlink }

// inode is the internal mutable representation.
type inode struct {
	mode    uint32
	uid     uint32
	gid     uint32
	nlink   uint32
	atime   time.Time
	mtime   time.Time
	ctime   time.Time
	content content
}

// FileInfo is an immutable snapshot of an inode's attributes.
type FileInfo struct {
	Ino        Ino
	Kind       FileKind
	Mode       uint32 // permission bits plus setuid/setgid/sticky
	UID        uint32
	GID        uint32
	Nlink      uint32
	Size       int64
	Atime      time.Time
	Mtime      time.Time
	Ctime      time.Time
	LinkTarget string // only set for symlinks
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool { return fi.Kind == KindDirectory }

// FileSystem is a thread-safe in-memory inode filesystem.
type FileSystem struct {
	mu     sync.RWMutex
	inodes map[Ino]*inode
	next   Ino
}

// New creates a filesystem containing only an empty root directory
// owned by root with mode 0755.
func New() *FileSystem {
	now := time.Now()
	fs := &FileSystem{
		inodes: make(map[Ino]*inode),
		next:   RootIno + 1,
	}
	fs.inodes[RootIno] = &inode{
		mode:    0o755,
		nlink:   1,
		atime:   now,
		mtime:   now,
		ctime:   now,
		content: &dirContent{},
	}
	return fs
}

// ResolveAbsolutePath normalizes an absolute path into its components.
// Empty components and "." are dropped; ".." pops the previous component
// and is absorbed at the root.
func ResolveAbsolutePath(path string) []string {
	parts := make([]string, 0, 8)
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	return parts
}

// alloc reserves a fresh inode number. Caller holds the write lock.
func (fs *FileSystem) alloc() Ino {
	ino := fs.next
	fs.next++
	return ino
}

// lookupLocked walks the path from the root, following symlinks for every
// intermediate component. If followFinal is true the final component is
// resolved through symlinks as well. Caller holds at least the read lock.
func (fs *FileSystem) lookupLocked(path string, followFinal bool) (Ino, *inode, error) {
	parts := ResolveAbsolutePath(path)

	cur := RootIno
	node := fs.inodes[cur]
	if node == nil {
		return 0, nil, ErrNotFound
	}

	for i, name := range parts {
		dir, ok := node.content.(*dirContent)
		if !ok {
			return 0, nil, ErrNotDirectory
		}

		entry, ok := dir.find(name)
		if !ok {
			return 0, nil, ErrNotFound
		}

		cur = entry
		node = fs.inodes[cur]
		if node == nil {
			return 0, nil, ErrNotFound
		}

		final := i == len(parts)-1
		if _, isLink := node.content.(*symlinkContent); isLink && (!final || followFinal) {
			resolved, resolvedNode, err := fs.followSymlinkLocked(cur)
			if err != nil {
				return 0, nil, err
			}
			cur, node = resolved, resolvedNode
		}
	}

	return cur, node, nil
}

// followSymlinkLocked resolves a symlink inode to its final target,
// detecting cycles with a visited set. Caller holds at least the read lock.
func (fs *FileSystem) followSymlinkLocked(start Ino) (Ino, *inode, error) {
	visited := map[Ino]struct{}{start: {}}

	cur := start
	node := fs.inodes[cur]
	for {
		link, ok := node.content.(*symlinkContent)
		if !ok {
			return cur, node, nil
		}

		target := link.target
		if !strings.HasPrefix(target, "/") {
			// Relative targets resolve against the link's parent. The parent
			// is not tracked on the inode, so rebuild from the root entries.
			parent, ok := fs.parentOfLocked(cur)
			if !ok {
				return 0, nil, ErrNotFound
			}
			target = parent + "/" + target
		}

		next, nextNode, err := fs.lookupLocked(target, false)
		if err != nil {
			return 0, nil, err
		}
		if _, seen := visited[next]; seen {
			return 0, nil, ErrSymlinkLoop
		}
		visited[next] = struct{}{}
		cur, node = next, nextNode
	}
}

// parentOfLocked finds the absolute path of the directory containing ino.
// Linear scan over the inode table; the honeypot tree is small.
func (fs *FileSystem) parentOfLocked(target Ino) (string, bool) {
	type frame struct {
		ino  Ino
		path string
	}

	stack := []frame{{RootIno, ""}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir, ok := fs.inodes[f.ino].content.(*dirContent)
		if !ok {
			continue
		}
		for _, e := range dir.entries {
			if e.Ino == target {
				if f.path == "" {
					return "/", true
				}
				return f.path, true
			}
			if child := fs.inodes[e.Ino]; child != nil {
				if _, isDir := child.content.(*dirContent); isDir {
					stack = append(stack, frame{e.Ino, f.path + "/" + e.Name})
				}
			}
		}
	}
	return "", false
}

func (d *dirContent) find(name string) (Ino, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e.Ino, true
		}
	}
	return 0, false
}

func (d *dirContent) insert(name string, ino Ino) {
	d.entries = append(d.entries, DirEntry{Name: name, Ino: ino})
}

func (d *dirContent) remove(name string) bool {
	for i, e := range d.entries {
		if e.Name == name {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// splitParent separates a path into its parent components and final name.
func splitParent(path string) (parent []string, name string, err error) {
	parts := ResolveAbsolutePath(path)
	if len(parts) == 0 {
		return nil, "", ErrInvalidPath
	}
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}

// resolveDirLocked walks parent components and returns the directory inode.
func (fs *FileSystem) resolveDirLocked(parts []string) (*dirContent, error) {
	cur := fs.inodes[RootIno]
	for _, name := range parts {
		dir, ok := cur.content.(*dirContent)
		if !ok {
			return nil, ErrNotDirectory
		}
		next, ok := dir.find(name)
		if !ok {
			return nil, ErrNotFound
		}
		cur = fs.inodes[next]

		// Intermediate symlinks to directories are legal.
		if _, isLink := cur.content.(*symlinkContent); isLink {
			_, node, err := fs.followSymlinkLocked(next)
			if err != nil {
				return nil, err
			}
			cur = node
		}
	}

	dir, ok := cur.content.(*dirContent)
	if !ok {
		return nil, ErrNotDirectory
	}
	return dir, nil
}

// createLocked inserts a fresh inode under path with the given content.
func (fs *FileSystem) createLocked(path string, mode, uid, gid uint32, c content) (Ino, error) {
	parentParts, name, err := splitParent(path)
	if err != nil {
		return 0, err
	}

	dir, err := fs.resolveDirLocked(parentParts)
	if err != nil {
		return 0, err
	}

	if _, exists := dir.find(name); exists {
		return 0, ErrAlreadyExists
	}

	now := time.Now()
	ino := fs.alloc()
	fs.inodes[ino] = &inode{
		mode:    mode,
		uid:     uid,
		gid:     gid,
		nlink:   1,
		atime:   now,
		mtime:   now,
		ctime:   now,
		content: c,
	}
	dir.insert(name, ino)
	return ino, nil
}

// CreateDirectory creates an empty directory at path.
func (fs *FileSystem) CreateDirectory(path string, mode, uid, gid uint32) (Ino, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createLocked(path, mode, uid, gid, &dirContent{})
}

// CreateFile creates a regular file at path holding data.
func (fs *FileSystem) CreateFile(path string, data []byte, mode, uid, gid uint32) (Ino, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	return fs.createLocked(path, mode, uid, gid, &fileContent{data: buf})
}

// CreateSymlink creates a symbolic link at path pointing at target.
// The target is not required to exist.
func (fs *FileSystem) CreateSymlink(path, target string, uid, gid uint32) (Ino, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createLocked(path, 0o777, uid, gid, &symlinkContent{target: target})
}

// CreateHardLink makes path a second name for the inode at targetPath.
func (fs *FileSystem) CreateHardLink(path, targetPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	targetIno, targetNode, err := fs.lookupLocked(targetPath, false)
	if err != nil {
		return err
	}
	if _, isDir := targetNode.content.(*dirContent); isDir {
		return ErrIsDirectory
	}

	parentParts, name, err := splitParent(path)
	if err != nil {
		return err
	}
	dir, err := fs.resolveDirLocked(parentParts)
	if err != nil {
		return err
	}
	if _, exists := dir.find(name); exists {
		return ErrAlreadyExists
	}

	dir.insert(name, targetIno)
	targetNode.nlink++
	return nil
}

// RemoveFile unlinks a non-directory entry.
func (fs *FileSystem) RemoveFile(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentParts, name, err := splitParent(path)
	if err != nil {
		return err
	}
	dir, err := fs.resolveDirLocked(parentParts)
	if err != nil {
		return err
	}

	ino, ok := dir.find(name)
	if !ok {
		return ErrNotFound
	}
	node := fs.inodes[ino]
	if _, isDir := node.content.(*dirContent); isDir {
		return ErrIsDirectory
	}

	dir.remove(name)
	if node.nlink > 0 {
		node.nlink--
	}
	if node.nlink == 0 {
		delete(fs.inodes, ino)
	}
	return nil
}

// Lookup resolves a path to its inode number, following all symlinks.
func (fs *FileSystem) Lookup(path string) (Ino, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	ino, _, err := fs.lookupLocked(path, true)
	return ino, err
}

// Stat returns attributes for path. When followFinal is false a trailing
// symlink is described instead of its target (lstat semantics).
func (fs *FileSystem) Stat(path string, followFinal bool) (FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	ino, node, err := fs.lookupLocked(path, followFinal)
	if err != nil {
		return FileInfo{}, err
	}
	return fs.infoLocked(ino, node), nil
}

// StatIno returns attributes for a known inode number.
func (fs *FileSystem) StatIno(ino Ino) (FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	node := fs.inodes[ino]
	if node == nil {
		return FileInfo{}, ErrNotFound
	}
	return fs.infoLocked(ino, node), nil
}

func (fs *FileSystem) infoLocked(ino Ino, node *inode) FileInfo {
	fi := FileInfo{
		Ino:   ino,
		Kind:  node.content.kind(),
		Mode:  node.mode,
		UID:   node.uid,
		GID:   node.gid,
		Nlink: node.nlink,
		Atime: node.atime,
		Mtime: node.mtime,
		Ctime: node.ctime,
	}
	switch c := node.content.(type) {
	case *fileContent:
		fi.Size = int64(len(c.data))
	case *dirContent:
		fi.Size = 4096
		fi.Nlink = 2 + uint32(fs.countSubdirsLocked(c))
	case *symlinkContent:
		fi.Size = int64(len(c.target))
		fi.LinkTarget = c.target
	}
	return fi
}

func (fs *FileSystem) countSubdirsLocked(dir *dirContent) int {
	n := 0
	for _, e := range dir.entries {
		if child := fs.inodes[e.Ino]; child != nil {
			if _, ok := child.content.(*dirContent); ok {
				n++
			}
		}
	}
	return n
}

// ReadFile returns a copy of the file's content, following symlinks.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, node, err := fs.lookupLocked(path, true)
	if err != nil {
		return nil, err
	}

	file, ok := node.content.(*fileContent)
	if !ok {
		return nil, ErrIsDirectory
	}

	out := make([]byte, len(file.data))
	copy(out, file.data)
	return out, nil
}

// WriteAt writes data into the file at the given offset, zero-extending
// the file if the offset lies beyond the current end.
func (fs *FileSystem) WriteAt(path string, data []byte, off int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, node, err := fs.lookupLocked(path, true)
	if err != nil {
		return err
	}

	file, ok := node.content.(*fileContent)
	if !ok {
		return ErrIsDirectory
	}

	end := off + int64(len(data))
	if int64(len(file.data)) < end {
		grown := make([]byte, end)
		copy(grown, file.data)
		file.data = grown
	}
	copy(file.data[off:end], data)
	node.mtime = time.Now()
	return nil
}

// ListDirectory returns the entries of the directory at path. A path
// pointing at a symlink to a directory lists the target.
func (fs *FileSystem) ListDirectory(path string) ([]DirEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, node, err := fs.lookupLocked(path, true)
	if err != nil {
		return nil, err
	}

	dir, ok := node.content.(*dirContent)
	if !ok {
		return nil, ErrNotDirectory
	}

	out := make([]DirEntry, len(dir.entries))
	copy(out, dir.entries)
	return out, nil
}

// IsDir reports whether path resolves to a directory.
func (fs *FileSystem) IsDir(path string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, node, err := fs.lookupLocked(path, true)
	if err != nil {
		return false, err
	}
	_, ok := node.content.(*dirContent)
	return ok, nil
}

// MkdirAll creates every missing directory along path. Existing
// directories are left untouched.
func (fs *FileSystem) MkdirAll(path string, mode, uid, gid uint32) error {
	parts := ResolveAbsolutePath(path)

	cur := ""
	for _, name := range parts {
		cur += "/" + name
		_, err := fs.CreateDirectory(cur, mode, uid, gid)
		if err != nil && err != ErrAlreadyExists {
			return err
		}
	}
	return nil
}
