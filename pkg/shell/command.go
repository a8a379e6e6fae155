// Package shell implements the fake interactive shell presented to
// authenticated honeypot sessions. Commands never execute anything on the
// host; every one of them fabricates plausible output from session state
// and the in-memory filesystem.
package shell

import "errors"

// ErrExit is returned by commands that end the session (exit, logout).
// The session layer disconnects the client when it sees this error.
var ErrExit = errors.New("session exit requested")

// Command is one fake shell command. Output uses CRLF line endings
// because it is written straight to the SSH channel.
type Command interface {
	// Name is the primary command name.
	Name() string

	// Aliases are additional names that resolve to this command.
	Aliases() []string

	// Help is the output of --help.
	Help() string

	// Version is the output of --version.
	Version() string

	// Execute runs the command with the raw argument string (everything
	// after the command name, untrimmed of inner whitespace).
	Execute(args string, ctx *Context) (string, error)
}

// handleStandardFlags implements the shared --help/--version behavior.
// Returns the canned output and true when one of the flags is present.
func handleStandardFlags(cmd Command, args string) (string, bool) {
	if containsFlag(args, "--help") {
		return cmd.Help(), true
	}
	if containsFlag(args, "--version") {
		return cmd.Version(), true
	}
	return "", false
}

// containsFlag reports whether the whitespace-separated args contain flag.
func containsFlag(args, flag string) bool {
	for _, f := range fields(args) {
		if f == flag {
			return true
		}
	}
	return false
}
