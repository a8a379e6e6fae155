package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchEmptyLine(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("   ", ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDispatchUnknownCommand(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("nmap -sV 10.0.0.1", ctx)
	require.NoError(t, err)
	assert.Equal(t, "bash: nmap: command not found\r\n", out)
}

func TestDispatchPipeGrep(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("ps aux | grep sshd", ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "sshd")
	assert.NotContains(t, out, "kthreadd")
	assert.NotContains(t, out, "USER")
}

func TestDispatchPipeNonGrepPassesThrough(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("whoami | awk '{print $1}'", ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice\r\n", out)
}

func TestDispatchPipeGrepAfterSkippedStage(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("ps aux | sort | grep sshd", ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "sshd")
	assert.NotContains(t, out, "kthreadd")
}

func TestDispatchExit(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("exit", ctx)
	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, "logout\r\n", out)

	_, err = r.Dispatch("logout", ctx)
	assert.ErrorIs(t, err, ErrExit)
}

func TestDispatchStatefulBeforePlain(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := newTestContext(t, "alice")

	out, err := r.Dispatch("cd /etc", ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "/etc", ctx.Cwd)
}
