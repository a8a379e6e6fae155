package vfs

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
)

// LoadTarGz populates the filesystem from a gzip-compressed tarball.
// Directories, regular files, symlinks and hard links are imported with
// the mode, ownership and modification time from their tar headers; any
// other entry type is skipped with a debug log. Missing intermediate
// directories are created with mode 0755.
func (fs *FileSystem) LoadTarGz(r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		path := "/" + hdr.Name
		mode := uint32(hdr.Mode) & 0o7777
		uid := uint32(hdr.Uid)
		gid := uint32(hdr.Gid)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(path, mode, uid, gid); err != nil {
				return fmt.Errorf("create directory %s: %w", path, err)
			}

		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("read file %s: %w", path, err)
			}
			if err := fs.ensureParents(path); err != nil {
				return fmt.Errorf("create parents of %s: %w", path, err)
			}
			if _, err := fs.CreateFile(path, data, mode, uid, gid); err != nil && !errors.Is(err, ErrAlreadyExists) {
				return fmt.Errorf("create file %s: %w", path, err)
			}

		case tar.TypeSymlink:
			if err := fs.ensureParents(path); err != nil {
				return fmt.Errorf("create parents of %s: %w", path, err)
			}
			if _, err := fs.CreateSymlink(path, hdr.Linkname, uid, gid); err != nil && !errors.Is(err, ErrAlreadyExists) {
				return fmt.Errorf("create symlink %s: %w", path, err)
			}

		case tar.TypeLink:
			if err := fs.ensureParents(path); err != nil {
				return fmt.Errorf("create parents of %s: %w", path, err)
			}
			if err := fs.CreateHardLink(path, "/"+hdr.Linkname); err != nil && !errors.Is(err, ErrAlreadyExists) {
				return fmt.Errorf("create hard link %s: %w", path, err)
			}

		default:
			logger.Debug("Skipping unsupported tar entry",
				"path", hdr.Name, "type", hdr.Typeflag)
			continue
		}

		if !hdr.ModTime.IsZero() {
			// Best effort; a broken entry should not abort the import.
			_ = fs.Chtimes(path, hdr.AccessTime, hdr.ModTime)
		}
	}
}

// ensureParents creates all missing parent directories of path.
func (fs *FileSystem) ensureParents(path string) error {
	parts := ResolveAbsolutePath(path)
	if len(parts) <= 1 {
		return nil
	}

	cur := ""
	for _, name := range parts[:len(parts)-1] {
		cur += "/" + name
		if _, err := fs.CreateDirectory(cur, 0o755, 0, 0); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// Chtimes updates access and modification times of the inode at path.
// Zero time values leave the corresponding field unchanged.
func (fs *FileSystem) Chtimes(path string, atime, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, node, err := fs.lookupLocked(path, false)
	if err != nil {
		return err
	}
	if !atime.IsZero() {
		node.atime = atime
	}
	if !mtime.IsZero() {
		node.mtime = mtime
	}
	return nil
}
