package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

func newTestContext(t *testing.T, username string) *Context {
	t.Helper()

	fs := vfs.New()
	require.NoError(t, fs.MkdirAll("/home/"+username, 0o755, 1000, 1000))
	require.NoError(t, fs.MkdirAll("/root", 0o700, 0, 0))
	require.NoError(t, fs.MkdirAll("/etc", 0o755, 0, 0))
	require.NoError(t, fs.MkdirAll("/tmp", 0o1777, 0, 0))
	require.NoError(t, fs.MkdirAll("/var/www", 0o755, 33, 33))

	_, err := fs.CreateFile("/etc/hostname", []byte("web-prod-03\n"), 0o644, 0, 0)
	require.NoError(t, err)
	_, err = fs.CreateFile("/etc/passwd", []byte("root:x:0:0:root:/root:/bin/bash\n"), 0o644, 0, 0)
	require.NoError(t, err)

	return NewContext(username, "web-prod-03", fs)
}

func TestPromptAbbreviatesHome(t *testing.T) {
	ctx := newTestContext(t, "alice")
	assert.Equal(t, "alice@web-prod-03:~$ ", ctx.Prompt())

	ctx.Chdir("/home/alice/src")
	assert.Equal(t, "alice@web-prod-03:~/src$ ", ctx.Prompt())

	ctx.Chdir("/etc")
	assert.Equal(t, "alice@web-prod-03:/etc$ ", ctx.Prompt())
}

func TestRootHomeDirectory(t *testing.T) {
	ctx := newTestContext(t, "root")
	assert.Equal(t, "/root", ctx.Home())
	assert.Equal(t, "root@web-prod-03:~$ ", ctx.Prompt())
}

func TestAbsPath(t *testing.T) {
	ctx := newTestContext(t, "alice")
	ctx.Chdir("/home/alice")

	tests := []struct {
		in   string
		want string
	}{
		{"", "/home/alice"},
		{"~", "/home/alice"},
		{"~/docs", "/home/alice/docs"},
		{"/etc/passwd", "/etc/passwd"},
		{"notes.txt", "/home/alice/notes.txt"},
		{"../bob", "/home/bob"},
		{"../../etc/./passwd", "/etc/passwd"},
		{"../../../..", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ctx.AbsPath(tt.in), "input %q", tt.in)
	}
}

func TestChdirTracksEnvironment(t *testing.T) {
	ctx := newTestContext(t, "alice")
	ctx.Chdir("/etc")
	ctx.Chdir("/tmp")

	assert.Equal(t, "/tmp", ctx.Cwd)
	assert.Equal(t, "/etc", ctx.PrevCwd)
	assert.Equal(t, "/tmp", ctx.Env["PWD"])
	assert.Equal(t, "/etc", ctx.Env["OLDPWD"])
}

func TestNewContextEnvironment(t *testing.T) {
	ctx := newTestContext(t, "alice")

	assert.Equal(t, "alice", ctx.Env["USER"])
	assert.Equal(t, "/home/alice", ctx.Env["HOME"])
	assert.Equal(t, "/bin/bash", ctx.Env["SHELL"])
	assert.Contains(t, ctx.Env["PATH"], "/usr/local/bin")
}
