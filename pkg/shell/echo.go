package shell

import (
	"strconv"
	"strings"
)

type echoCommand struct{}

func (echoCommand) Name() string      { return "echo" }
func (echoCommand) Aliases() []string { return nil }

func (echoCommand) Help() string {
	return "echo: echo [-neE] [arg ...]\r\n" +
		"    Write arguments to the standard output.\r\n\r\n" +
		"    Options:\r\n" +
		"      -n    do not append a newline\r\n" +
		"      -e    enable interpretation of the following backslash escapes\r\n" +
		"      -E    explicitly suppress interpretation of backslash escapes\r\n"
}

func (echoCommand) Version() string {
	return "echo (GNU coreutils) 8.30\r\n"
}

func (c echoCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	newline := true
	escapes := false

	rest := fields(args)
flags:
	for len(rest) > 0 {
		switch rest[0] {
		case "-n":
			newline = false
		case "-e":
			escapes = true
		case "-E":
			escapes = false
		case "-ne", "-en":
			newline = false
			escapes = true
		default:
			break flags
		}
		rest = rest[1:]
	}

	text := stripQuotes(strings.Join(rest, " "))
	suppressed := false
	if escapes {
		text, suppressed = expandEscapes(text)
	}

	if newline && !suppressed {
		text += "\r\n"
	}
	return text, nil
}

// stripQuotes removes one level of matching single or double quotes,
// the way the shell would before echo ever runs. A fully quoted string
// is handled first so "hello world" survives as one unit.
func stripQuotes(s string) string {
	if quoted(s) {
		return s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, w := range strings.Split(s, " ") {
		if quoted(w) {
			w = w[1 : len(w)-1]
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}

func quoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '"' && last == '"') || (first == '\'' && last == '\'')
}

// expandEscapes interprets echo -e backslash sequences. The second
// return value reports whether \c was hit, which suppresses all further
// output including the trailing newline.
func expandEscapes(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'a':
			b.WriteByte(0x07)
		case 'b':
			b.WriteByte(0x08)
		case 'c':
			return b.String(), true
		case 'e', 'E':
			b.WriteByte(0x1b)
		case 'f':
			b.WriteByte(0x0c)
		case 'n':
			b.WriteString("\r\n")
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte(0x0b)
		case 'x':
			n, width := parseRadix(s[i+1:], 16, 2)
			if width == 0 {
				b.WriteString("\\x")
				continue
			}
			b.WriteByte(byte(n))
			i += width
		case '0':
			n, width := parseRadix(s[i+1:], 8, 3)
			b.WriteByte(byte(n))
			i += width
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), false
}

// parseRadix reads up to maxDigits digits of the given base from the
// front of s, returning the value and how many characters were consumed.
func parseRadix(s string, base, maxDigits int) (int, int) {
	width := 0
	for width < len(s) && width < maxDigits {
		if _, err := strconv.ParseInt(s[width:width+1], base, 32); err != nil {
			break
		}
		width++
	}
	if width == 0 {
		return 0, 0
	}
	n, _ := strconv.ParseInt(s[:width], base, 32)
	return int(n), width
}
