// Package sftp serves a fake SFTP subsystem on top of the in-memory
// filesystem. Uploads are captured in full, fingerprinted and recorded;
// downloads return zeros so nothing real ever leaves the box.
package sftp

import (
	"context"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/sftp"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/metrics"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

// Serve runs one SFTP session over rw until the client disconnects or
// ctx is cancelled. It blocks for the lifetime of the session.
func Serve(ctx context.Context, rw io.ReadWriteCloser, rec *recorder.Recorder, fs *vfs.FileSystem, m *metrics.Metrics, authID string) error {
	h := &handler{rec: rec, fs: fs, metrics: m, authID: authID}
	server := sftp.NewRequestServer(rw, sftp.Handlers{
		FileGet:  h,
		FilePut:  h,
		FileCmd:  h,
		FileList: h,
	})

	done := make(chan error, 1)
	go func() { done <- server.Serve() }()

	select {
	case <-ctx.Done():
		_ = server.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		if err == io.EOF {
			return nil
		}
		return err
	}
}

// handler implements the four sftp.Handlers interfaces against the
// shared virtual filesystem.
type handler struct {
	rec     *recorder.Recorder
	fs      *vfs.FileSystem
	metrics *metrics.Metrics
	authID  string
}

// Fileread pretends to serve any requested file but only ever returns
// zeros. The size comes from the virtual filesystem when the path
// exists, and a plausible default otherwise.
func (h *handler) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	logger.Debug("sftp read", logger.KeyPath, r.Filepath, logger.KeyAuthID, h.authID)

	size := int64(1024)
	if info, err := h.fs.Stat(r.Filepath, true); err == nil {
		size = info.Size
	}
	return zeroReaderAt{size: size}, nil
}

// Filewrite captures the upload into a buffer; the recording happens
// when the client closes the handle and the payload is complete.
func (h *handler) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	logger.Info("sftp upload started", logger.KeyPath, r.Filepath, logger.KeyAuthID, h.authID)
	return &uploadFile{handler: h, path: r.Filepath}, nil
}

func (h *handler) Filecmd(r *sftp.Request) error {
	switch r.Method {
	case "Mkdir":
		logger.Info("sftp mkdir", logger.KeyPath, r.Filepath, logger.KeyAuthID, h.authID)
		return h.fs.MkdirAll(r.Filepath, 0o755, 1000, 1000)

	case "Remove", "Rmdir":
		// Report success without touching anything; the evidence stays.
		logger.Info("sftp remove ignored", logger.KeyPath, r.Filepath, logger.KeyAuthID, h.authID)
		return nil

	case "Rename":
		logger.Info("sftp rename ignored",
			logger.KeyPath, r.Filepath, "target", r.Target, logger.KeyAuthID, h.authID)
		return nil

	case "Setstat":
		logger.Debug("sftp setstat ignored", logger.KeyPath, r.Filepath)
		return nil

	default:
		return sftp.ErrSSHFxOpUnsupported
	}
}

func (h *handler) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	switch r.Method {
	case "List":
		logger.Debug("sftp list", logger.KeyPath, r.Filepath, logger.KeyAuthID, h.authID)

		isDir, err := h.fs.IsDir(r.Filepath)
		if err != nil {
			// Unknown directories still list something believable.
			return listerat(fakeDirListing()), nil
		}
		if !isDir {
			return nil, syscall.ENOTDIR
		}

		entries, err := h.fs.ListDirectory(r.Filepath)
		if err != nil {
			return nil, err
		}
		infos := make([]os.FileInfo, 0, len(entries))
		for _, entry := range entries {
			info, err := h.fs.StatIno(entry.Ino)
			if err != nil {
				continue
			}
			infos = append(infos, fileInfo{name: entry.Name, info: info})
		}
		return listerat(infos), nil

	case "Stat":
		info, err := h.fs.Stat(r.Filepath, true)
		if err != nil {
			// Fake attributes keep probes for /etc/passwd and friends
			// looking plausible.
			return listerat{fileInfo{
				name: baseName(r.Filepath),
				info: vfs.FileInfo{Kind: vfs.KindRegular, Mode: 0o644, Size: 1024, Mtime: time.Now()},
			}}, nil
		}
		return listerat{fileInfo{name: baseName(r.Filepath), info: info}}, nil

	default:
		return nil, sftp.ErrSSHFxOpUnsupported
	}
}

// uploadFile buffers one upload until the handle closes, then hashes,
// analyzes, stores and records the payload.
type uploadFile struct {
	handler *handler
	path    string

	mu   sync.Mutex
	buf  []byte
	done bool
}

func (f *uploadFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	end := off + int64(len(p))
	if int64(len(f.buf)) < end {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}
	copy(f.buf[off:end], p)
	return len(p), nil
}

// Close finalizes the upload. The request server calls it once the
// client closes the file handle.
func (f *uploadFile) Close() error {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return nil
	}
	f.done = true
	data := f.buf
	f.mu.Unlock()

	h := f.handler
	result := analyzeUpload(f.path, data)

	if _, err := h.fs.CreateFile(f.path, data, 0o644, 1000, 1000); err != nil {
		logger.Debug("failed to store upload in filesystem", logger.KeyPath, f.path, "error", err)
	}

	upload := recorder.UploadedFile{
		AuthID:         h.authID,
		Path:           f.path,
		SHA256:         result.SHA256,
		ClaimedMIME:    result.ClaimedMIME,
		DetectedMIME:   result.DetectedMIME,
		FormatMismatch: result.FormatMismatch,
		Entropy:        result.Entropy,
		Size:           int64(len(data)),
		Data:           data,
		Timestamp:      time.Now(),
	}
	if err := h.rec.RecordFileUpload(context.Background(), upload); err != nil {
		logger.Error("failed to record file upload", logger.KeyPath, f.path, "error", err)
	}
	h.metrics.RecordUpload(int64(len(data)))

	logger.Info("sftp upload recorded",
		logger.KeyPath, f.path,
		logger.KeyAuthID, h.authID,
		"size", len(data),
		"sha256", result.SHA256,
		"entropy", result.Entropy)
	return nil
}

// zeroReaderAt yields size bytes of zeros.
type zeroReaderAt struct {
	size int64
}

func (z zeroReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= z.size {
		return 0, io.EOF
	}
	n := len(p)
	if remaining := z.size - off; int64(n) > remaining {
		n = int(remaining)
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

// listerat adapts a FileInfo slice to sftp.ListerAt, modeled after
// strings.Reader's ReadAt.
type listerat []os.FileInfo

func (l listerat) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(ls, l[offset:])
	if n < len(ls) {
		return n, io.EOF
	}
	return n, nil
}

// fileInfo adapts a vfs stat result to os.FileInfo.
type fileInfo struct {
	name string
	info vfs.FileInfo
}

func (f fileInfo) Name() string { return f.name }
func (f fileInfo) Size() int64  { return f.info.Size }

func (f fileInfo) Mode() os.FileMode {
	mode := os.FileMode(f.info.Mode & 0o777)
	switch f.info.Kind {
	case vfs.KindDirectory:
		mode |= os.ModeDir
	case vfs.KindSymlink:
		mode |= os.ModeSymlink
	}
	return mode
}

func (f fileInfo) ModTime() time.Time { return f.info.Mtime }
func (f fileInfo) IsDir() bool        { return f.info.Kind == vfs.KindDirectory }
func (f fileInfo) Sys() any           { return nil }

// fakeDirListing is what directory probes outside the virtual tree see.
func fakeDirListing() []os.FileInfo {
	now := time.Now()
	return []os.FileInfo{
		fileInfo{name: "config", info: vfs.FileInfo{Kind: vfs.KindDirectory, Mode: 0o755, Mtime: now}},
		fileInfo{name: "data", info: vfs.FileInfo{Kind: vfs.KindDirectory, Mode: 0o755, Mtime: now}},
	}
}

func baseName(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
