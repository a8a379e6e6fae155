package vfs

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTarGz assembles a gzip tarball from the given entries.
func buildTarGz(t *testing.T, write func(tw *tar.Writer)) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	write(tw)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return &buf
}

func TestLoadTarGz(t *testing.T) {
	mtime := time.Date(2021, 4, 12, 9, 30, 0, 0, time.UTC)

	archive := buildTarGz(t, func(tw *tar.Writer) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "etc/",
			Typeflag: tar.TypeDir,
			Mode:     0o755,
			ModTime:  mtime,
		}))
		content := []byte("127.0.0.1 localhost\n")
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "etc/hosts",
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Uid:      0,
			Gid:      0,
			Size:     int64(len(content)),
			ModTime:  mtime,
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)

		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "etc/localtime",
			Typeflag: tar.TypeSymlink,
			Linkname: "/usr/share/zoneinfo/UTC",
			ModTime:  mtime,
		}))

		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "etc/hosts.bak",
			Typeflag: tar.TypeLink,
			Linkname: "etc/hosts",
			ModTime:  mtime,
		}))

		// FIFO entries are unsupported and must be skipped, not fail.
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "run/initctl",
			Typeflag: tar.TypeFifo,
			ModTime:  mtime,
		}))
	})

	fs := New()
	require.NoError(t, fs.LoadTarGz(archive))

	data, err := fs.ReadFile("/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\n", string(data))

	fi, err := fs.Stat("/etc/hosts", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(0o644), fi.Mode)
	assert.True(t, fi.Mtime.Equal(mtime))

	link, err := fs.Stat("/etc/localtime", false)
	require.NoError(t, err)
	assert.Equal(t, KindSymlink, link.Kind)
	assert.Equal(t, "/usr/share/zoneinfo/UTC", link.LinkTarget)

	hard, err := fs.Stat("/etc/hosts.bak", false)
	require.NoError(t, err)
	assert.Equal(t, fi.Ino, hard.Ino)
	assert.Equal(t, uint32(2), hard.Nlink)

	// The FIFO never made it in.
	_, err = fs.Stat("/run/initctl", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadTarGzCreatesMissingParents(t *testing.T) {
	archive := buildTarGz(t, func(tw *tar.Writer) {
		content := []byte("deep")
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "var/lib/app/state",
			Typeflag: tar.TypeReg,
			Mode:     0o600,
			Size:     int64(len(content)),
			ModTime:  time.Now(),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	})

	fs := New()
	require.NoError(t, fs.LoadTarGz(archive))

	ok, err := fs.IsDir("/var/lib/app")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := fs.ReadFile("/var/lib/app/state")
	require.NoError(t, err)
	assert.Equal(t, "deep", string(data))
}

func TestLoadTarGzRejectsGarbage(t *testing.T) {
	fs := New()
	err := fs.LoadTarGz(bytes.NewReader([]byte("definitely not gzip")))
	assert.Error(t, err)
}
