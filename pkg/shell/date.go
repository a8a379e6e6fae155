package shell

import (
	"fmt"
	"strings"
	"time"
)

type dateCommand struct{}

func (dateCommand) Name() string      { return "date" }
func (dateCommand) Aliases() []string { return nil }

func (dateCommand) Help() string {
	return "Usage: date [OPTION]... [+FORMAT]\r\n" +
		"Display the current time in the given FORMAT.\r\n\r\n" +
		"  -u, --utc, --universal     print Coordinated Universal Time (UTC)\r\n" +
		"      --iso-8601[=FMT]       output date/time in ISO 8601 format\r\n" +
		"      --rfc-3339=FMT         output date/time in RFC 3339 format\r\n" +
		"      --help     display this help and exit\r\n" +
		"      --version  output version information and exit\r\n"
}

func (dateCommand) Version() string {
	return "date (GNU coreutils) 8.30\r\n"
}

func (c dateCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	now := time.Now()
	utc := false
	format := ""
	iso := ""
	rfc := ""

	for _, a := range fields(args) {
		switch {
		case a == "-u" || a == "--utc" || a == "--universal":
			utc = true
		case a == "--iso-8601":
			iso = "date"
		case strings.HasPrefix(a, "--iso-8601="):
			iso = a[len("--iso-8601="):]
		case strings.HasPrefix(a, "--rfc-3339="):
			rfc = a[len("--rfc-3339="):]
		case strings.HasPrefix(a, "+"):
			format = a[1:]
		case strings.HasPrefix(a, "-"):
			return fmt.Sprintf("date: invalid option -- '%s'\r\nTry 'date --help' for more information.\r\n",
				strings.TrimLeft(a, "-")), nil
		}
	}

	if utc {
		now = now.UTC()
	}

	switch {
	case rfc != "":
		switch rfc {
		case "date":
			return now.Format("2006-01-02") + "\r\n", nil
		case "seconds":
			return now.Format("2006-01-02 15:04:05-07:00") + "\r\n", nil
		case "ns":
			return now.Format("2006-01-02 15:04:05.000000000-07:00") + "\r\n", nil
		default:
			return fmt.Sprintf("date: invalid argument ‘%s’ for ‘--rfc-3339’\r\n", rfc), nil
		}
	case iso != "":
		switch iso {
		case "date":
			return now.Format("2006-01-02") + "\r\n", nil
		case "hours":
			return now.Format("2006-01-02T15-07:00") + "\r\n", nil
		case "minutes":
			return now.Format("2006-01-02T15:04-07:00") + "\r\n", nil
		case "seconds":
			return now.Format("2006-01-02T15:04:05-07:00") + "\r\n", nil
		case "ns":
			return now.Format("2006-01-02T15:04:05.000000000-07:00") + "\r\n", nil
		default:
			return fmt.Sprintf("date: invalid argument ‘%s’ for ‘--iso-8601’\r\n", iso), nil
		}
	case format != "":
		return strftime(format, now) + "\r\n", nil
	}

	return now.Format("Mon Jan _2 15:04:05 MST 2006") + "\r\n", nil
}

// strftime renders the subset of C strftime directives date(1) users
// actually reach for. Unknown directives pass through verbatim.
func strftime(format string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case '%':
			b.WriteByte('%')
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'e':
			b.WriteString(t.Format("_2"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'I':
			b.WriteString(t.Format("03"))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case 'p':
			b.WriteString(t.Format("PM"))
		case 'a':
			b.WriteString(t.Format("Mon"))
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'b', 'h':
			b.WriteString(t.Format("Jan"))
		case 'B':
			b.WriteString(t.Month().String())
		case 'Z':
			b.WriteString(t.Format("MST"))
		case 'z':
			b.WriteString(t.Format("-0700"))
		case 's':
			fmt.Fprintf(&b, "%d", t.Unix())
		case 'N':
			fmt.Fprintf(&b, "%09d", t.Nanosecond())
		case 'j':
			fmt.Fprintf(&b, "%03d", t.YearDay())
		case 'u':
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			fmt.Fprintf(&b, "%d", wd)
		case 'D':
			b.WriteString(t.Format("01/02/06"))
		case 'F':
			b.WriteString(t.Format("2006-01-02"))
		case 'T':
			b.WriteString(t.Format("15:04:05"))
		case 'R':
			b.WriteString(t.Format("15:04"))
		case 'n':
			b.WriteString("\r\n")
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
