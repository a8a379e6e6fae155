package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAbsolutePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"root", "/", []string{}},
		{"empty", "", []string{}},
		{"simple", "/home/user", []string{"home", "user"}},
		{"trailing slash", "/home/user/", []string{"home", "user"}},
		{"double slash", "/home//user", []string{"home", "user"}},
		{"dot segments", "/home/./user/.", []string{"home", "user"}},
		{"dotdot pops", "/home/user/../admin", []string{"home", "admin"}},
		{"dotdot at root absorbed", "/../../etc", []string{"etc"}},
		{"everything at once", "//home/.//user/../../var//log/", []string{"var", "log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAbsolutePath(tt.path))
		})
	}
}

func TestCreateDirectory(t *testing.T) {
	fs := New()

	ino, err := fs.CreateDirectory("/etc", 0o755, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, ino, RootIno)

	ok, err := fs.IsDir("/etc")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = fs.CreateDirectory("/etc", 0o755, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = fs.CreateDirectory("/missing/sub", 0o755, 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = fs.CreateDirectory("/", 0o755, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCreateFile(t *testing.T) {
	fs := New()
	_, err := fs.CreateDirectory("/etc", 0o755, 0, 0)
	require.NoError(t, err)

	_, err = fs.CreateFile("/etc/passwd", []byte("root:x:0:0::/root:/bin/bash\n"), 0o644, 0, 0)
	require.NoError(t, err)

	data, err := fs.ReadFile("/etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "root:x:0:0::/root:/bin/bash\n", string(data))

	// Duplicate name is rejected even with different content.
	_, err = fs.CreateFile("/etc/passwd", []byte("other"), 0o644, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// A file is not a valid parent directory.
	_, err = fs.CreateFile("/etc/passwd/sub", nil, 0o644, 0, 0)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestReadFileOnDirectory(t *testing.T) {
	fs := New()
	_, err := fs.CreateDirectory("/tmp", 0o777, 0, 0)
	require.NoError(t, err)

	_, err = fs.ReadFile("/tmp")
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestSymlinkResolution(t *testing.T) {
	fs := New()
	require.NoError(t, fs.MkdirAll("/usr/bin", 0o755, 0, 0))
	_, err := fs.CreateFile("/usr/bin/python3", []byte("\x7fELF"), 0o755, 0, 0)
	require.NoError(t, err)

	_, err = fs.CreateSymlink("/usr/bin/python", "/usr/bin/python3", 0, 0)
	require.NoError(t, err)

	data, err := fs.ReadFile("/usr/bin/python")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x7fELF"), data)

	// lstat describes the link itself.
	fi, err := fs.Stat("/usr/bin/python", false)
	require.NoError(t, err)
	assert.Equal(t, KindSymlink, fi.Kind)
	assert.Equal(t, "/usr/bin/python3", fi.LinkTarget)

	// stat follows to the target.
	fi, err = fs.Stat("/usr/bin/python", true)
	require.NoError(t, err)
	assert.Equal(t, KindRegular, fi.Kind)
}

func TestSymlinkThroughDirectory(t *testing.T) {
	fs := New()
	require.NoError(t, fs.MkdirAll("/var/log", 0o755, 0, 0))
	_, err := fs.CreateFile("/var/log/syslog", []byte("boot\n"), 0o640, 0, 0)
	require.NoError(t, err)

	_, err = fs.CreateSymlink("/logs", "/var/log", 0, 0)
	require.NoError(t, err)

	data, err := fs.ReadFile("/logs/syslog")
	require.NoError(t, err)
	assert.Equal(t, "boot\n", string(data))
}

func TestSymlinkLoop(t *testing.T) {
	fs := New()
	_, err := fs.CreateSymlink("/a", "/b", 0, 0)
	require.NoError(t, err)
	_, err = fs.CreateSymlink("/b", "/a", 0, 0)
	require.NoError(t, err)

	_, err = fs.ReadFile("/a")
	assert.ErrorIs(t, err, ErrSymlinkLoop)
}

func TestDanglingSymlink(t *testing.T) {
	fs := New()
	_, err := fs.CreateSymlink("/broken", "/nowhere", 0, 0)
	require.NoError(t, err)

	_, err = fs.ReadFile("/broken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHardLink(t *testing.T) {
	fs := New()
	_, err := fs.CreateFile("/original", []byte("data"), 0o644, 1000, 1000)
	require.NoError(t, err)

	require.NoError(t, fs.CreateHardLink("/copy", "/original"))

	fi, err := fs.Stat("/copy", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), fi.Nlink)

	orig, err := fs.Stat("/original", false)
	require.NoError(t, err)
	assert.Equal(t, orig.Ino, fi.Ino)

	// Removing one name keeps the other alive.
	require.NoError(t, fs.RemoveFile("/original"))
	data, err := fs.ReadFile("/copy")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	fi, err = fs.Stat("/copy", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), fi.Nlink)
}

func TestHardLinkToDirectoryRejected(t *testing.T) {
	fs := New()
	_, err := fs.CreateDirectory("/dir", 0o755, 0, 0)
	require.NoError(t, err)

	err = fs.CreateHardLink("/link", "/dir")
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestRemoveFile(t *testing.T) {
	fs := New()
	_, err := fs.CreateFile("/todo", []byte("x"), 0o644, 0, 0)
	require.NoError(t, err)

	require.NoError(t, fs.RemoveFile("/todo"))
	_, err = fs.ReadFile("/todo")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, fs.RemoveFile("/todo"), ErrNotFound)

	_, err = fs.CreateDirectory("/d", 0o755, 0, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, fs.RemoveFile("/d"), ErrIsDirectory)
}

func TestListDirectory(t *testing.T) {
	fs := New()
	require.NoError(t, fs.MkdirAll("/home/user", 0o755, 1000, 1000))
	_, err := fs.CreateFile("/home/user/.bashrc", []byte("# ~/.bashrc\n"), 0o644, 1000, 1000)
	require.NoError(t, err)

	entries, err := fs.ListDirectory("/home/user")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".bashrc", entries[0].Name)

	_, err = fs.ListDirectory("/home/user/.bashrc")
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = fs.ListDirectory("/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteAtZeroExtends(t *testing.T) {
	fs := New()
	_, err := fs.CreateFile("/upload", nil, 0o644, 1000, 1000)
	require.NoError(t, err)

	require.NoError(t, fs.WriteAt("/upload", []byte("abc"), 0))
	require.NoError(t, fs.WriteAt("/upload", []byte("xyz"), 6))

	data, err := fs.ReadFile("/upload")
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 'x', 'y', 'z'}, data)

	// Overlapping write replaces in place.
	require.NoError(t, fs.WriteAt("/upload", []byte("ABC"), 0))
	data, err = fs.ReadFile("/upload")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data[:3]))
	assert.Len(t, data, 9)
}

func TestDirectoryNlinkCountsSubdirs(t *testing.T) {
	fs := New()
	require.NoError(t, fs.MkdirAll("/parent/a", 0o755, 0, 0))
	require.NoError(t, fs.MkdirAll("/parent/b", 0o755, 0, 0))
	_, err := fs.CreateFile("/parent/file", nil, 0o644, 0, 0)
	require.NoError(t, err)

	fi, err := fs.Stat("/parent", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), fi.Nlink) // . + .. + two subdirs
}

func TestRootStat(t *testing.T) {
	fs := New()
	fi, err := fs.Stat("/", true)
	require.NoError(t, err)
	assert.Equal(t, RootIno, fi.Ino)
	assert.True(t, fi.IsDir())
	assert.Equal(t, uint32(0o755), fi.Mode)
}
