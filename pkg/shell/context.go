package shell

import (
	"strings"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

// Context carries the per-session shell state shared by all commands.
type Context struct {
	Username string
	Hostname string
	Cwd      string
	PrevCwd  string
	Env      map[string]string
	FS       *vfs.FileSystem
}

// NewContext creates the shell state for a fresh session. The working
// directory starts at the user's home.
func NewContext(username, hostname string, fs *vfs.FileSystem) *Context {
	home := homeDir(username)
	return &Context{
		Username: username,
		Hostname: hostname,
		Cwd:      home,
		PrevCwd:  home,
		Env: map[string]string{
			"USER":     username,
			"HOME":     home,
			"PWD":      home,
			"HOSTNAME": hostname,
			"SHELL":    "/bin/bash",
			"PATH":     "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:/usr/games:/usr/local/games:/snap/bin",
		},
		FS: fs,
	}
}

func homeDir(username string) string {
	if username == "root" {
		return "/root"
	}
	return "/home/" + username
}

// Home returns the session user's home directory.
func (c *Context) Home() string {
	return homeDir(c.Username)
}

// Prompt renders the bash-style prompt, abbreviating the home directory
// to "~".
func (c *Context) Prompt() string {
	display := c.Cwd
	home := c.Home()
	if display == home {
		display = "~"
	} else if strings.HasPrefix(display, home+"/") {
		display = "~" + display[len(home):]
	}
	return c.Username + "@" + c.Hostname + ":" + display + "$ "
}

// AbsPath resolves path against the working directory and normalizes it.
// "~" expands to the session user's home.
func (c *Context) AbsPath(path string) string {
	switch {
	case path == "" || path == "~":
		path = c.Home()
	case strings.HasPrefix(path, "~/"):
		path = c.Home() + path[1:]
	case !strings.HasPrefix(path, "/"):
		path = c.Cwd + "/" + path
	}

	parts := vfs.ResolveAbsolutePath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// Chdir updates the working directory, PWD and OLDPWD.
func (c *Context) Chdir(path string) {
	c.PrevCwd = c.Cwd
	c.Cwd = path
	c.Env["OLDPWD"] = c.PrevCwd
	c.Env["PWD"] = path
}
