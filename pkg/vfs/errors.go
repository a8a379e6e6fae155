package vfs

import "errors"

// Domain errors returned by filesystem operations. Callers are expected to
// match with errors.Is and translate to protocol or shell specific output.
var (
	// ErrNotFound indicates a path component does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotDirectory indicates a non-final path component is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory indicates a file operation was attempted on a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrAlreadyExists indicates the target name is already taken.
	ErrAlreadyExists = errors.New("file exists")

	// ErrInvalidPath indicates an empty or otherwise unusable path.
	ErrInvalidPath = errors.New("invalid path")

	// ErrSymlinkLoop indicates a cycle was detected while following symlinks.
	ErrSymlinkLoop = errors.New("too many levels of symbolic links")

	// ErrNotSymlink indicates FollowSymlink was called on a non-symlink inode.
	ErrNotSymlink = errors.New("not a symbolic link")
)
