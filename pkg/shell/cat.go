package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

type catCommand struct{}

func (catCommand) Name() string      { return "cat" }
func (catCommand) Aliases() []string { return nil }

func (catCommand) Help() string {
	return "Usage: cat [OPTION]... [FILE]...\r\n" +
		"Concatenate FILE(s) to standard output.\r\n\r\n" +
		"  -n, --number             number all output lines\r\n" +
		"      --help     display this help and exit\r\n" +
		"      --version  output version information and exit\r\n"
}

func (catCommand) Version() string {
	return "cat (GNU coreutils) 8.30\r\n"
}

func (c catCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	number := false
	var paths []string
	for _, a := range fields(args) {
		switch {
		case a == "-n" || a == "--number":
			number = true
		case strings.HasPrefix(a, "-") && len(a) > 1:
			// Unknown flags are silently ignored; real intruders
			// rarely notice and erroring out is more suspicious.
		default:
			paths = append(paths, a)
		}
	}

	if len(paths) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, p := range paths {
		data, err := ctx.FS.ReadFile(ctx.AbsPath(p))
		switch {
		case errors.Is(err, vfs.ErrIsDirectory):
			fmt.Fprintf(&b, "cat: %s: Is a directory\r\n", p)
			continue
		case err != nil:
			fmt.Fprintf(&b, "cat: %s: No such file or directory\r\n", p)
			continue
		}
		b.WriteString(renderFile(data, number))
	}
	return b.String(), nil
}

// renderFile converts stored file bytes to terminal output, normalizing
// line endings to CRLF and optionally numbering lines like cat -n.
func renderFile(data []byte, number bool) string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !number {
		return strings.ReplaceAll(text, "\n", "\r\n")
	}

	var b strings.Builder
	trailing := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "%6d\t%s", i+1, line)
		if i < len(lines)-1 || trailing {
			b.WriteString("\r\n")
		}
	}
	return b.String()
}
