package shell

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/vfs"
)

type lsCommand struct{}

func (lsCommand) Name() string      { return "ls" }
func (lsCommand) Aliases() []string { return []string{"dir"} }

func (lsCommand) Help() string {
	return "Usage: ls [OPTION]... [FILE]...\r\n" +
		"List information about the FILEs (the current directory by default).\r\n" +
		"Sort entries alphabetically if none of -tS is specified.\r\n\r\n" +
		"  -a, --all                  do not ignore entries starting with .\r\n" +
		"  -A, --almost-all           do not list implied . and ..\r\n" +
		"  -d, --directory            list directories themselves, not their contents\r\n" +
		"  -F, --classify             append indicator (one of */=>@|) to entries\r\n" +
		"  -h, --human-readable       with -l, print sizes like 1K 234M 2G etc.\r\n" +
		"  -i, --inode                print the index number of each file\r\n" +
		"  -l                         use a long listing format\r\n" +
		"  -r, --reverse              reverse order while sorting\r\n" +
		"  -R, --recursive            list subdirectories recursively\r\n" +
		"  -S                         sort by file size, largest first\r\n" +
		"  -t                         sort by modification time, newest first\r\n" +
		"  -1                         list one file per line\r\n" +
		"      --help     display this help and exit\r\n" +
		"      --version  output version information and exit\r\n"
}

func (lsCommand) Version() string {
	return "ls (GNU coreutils) 8.30\r\n"
}

type lsOptions struct {
	all, almostAll, long, human bool
	recursive, bySize, byTime   bool
	reverse, onePerLine, inode  bool
	classify, dirOnly           bool
}

// lsEntry is one row of output, already stat'ed.
type lsEntry struct {
	name string
	info vfs.FileInfo
}

func (c lsCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	var opts lsOptions
	var paths []string
	for _, a := range fields(args) {
		switch {
		case a == "--all":
			opts.all = true
		case a == "--almost-all":
			opts.almostAll = true
		case a == "--human-readable":
			opts.human = true
		case a == "--recursive":
			opts.recursive = true
		case a == "--reverse":
			opts.reverse = true
		case a == "--inode":
			opts.inode = true
		case a == "--classify":
			opts.classify = true
		case a == "--directory":
			opts.dirOnly = true
		case strings.HasPrefix(a, "--"):
			return fmt.Sprintf("ls: unrecognized option '%s'\r\nTry 'ls --help' for more information.\r\n", a), nil
		case strings.HasPrefix(a, "-") && len(a) > 1:
			for _, f := range a[1:] {
				switch f {
				case 'a':
					opts.all = true
				case 'A':
					opts.almostAll = true
				case 'l':
					opts.long = true
				case 'h':
					opts.human = true
				case 'R':
					opts.recursive = true
				case 'S':
					opts.bySize = true
				case 't':
					opts.byTime = true
				case 'r':
					opts.reverse = true
				case '1':
					opts.onePerLine = true
				case 'i':
					opts.inode = true
				case 'F':
					opts.classify = true
				case 'C':
					// columns are already the default
				case 'd':
					opts.dirOnly = true
				default:
					return fmt.Sprintf("ls: invalid option -- '%c'\r\nTry 'ls --help' for more information.\r\n", f), nil
				}
			}
		default:
			paths = append(paths, a)
		}
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}

	var b strings.Builder
	for i, p := range paths {
		if i > 0 {
			b.WriteString("\r\n")
		}
		c.listPath(&b, ctx, p, opts, len(paths) > 1)
	}
	return b.String(), nil
}

func (c lsCommand) listPath(b *strings.Builder, ctx *Context, typed string, opts lsOptions, header bool) {
	path := ctx.AbsPath(typed)
	info, err := ctx.FS.Stat(path, true)
	if err != nil {
		fmt.Fprintf(b, "ls: cannot access '%s': No such file or directory\r\n", typed)
		return
	}

	if !info.IsDir() || opts.dirOnly {
		// A non-directory argument (or -d) prints as itself, showing
		// the link rather than its target.
		if lstat, lerr := ctx.FS.Stat(path, false); lerr == nil {
			info = lstat
		}
		c.render(b, ctx, []lsEntry{{name: typed, info: info}}, opts, false)
		return
	}

	if header || opts.recursive {
		fmt.Fprintf(b, "%s:\r\n", typed)
	}

	entries, err := ctx.FS.ListDirectory(path)
	if err != nil {
		fmt.Fprintf(b, "ls: cannot open directory '%s': Permission denied\r\n", typed)
		return
	}

	rows := make([]lsEntry, 0, len(entries)+2)
	if opts.all {
		self, _ := ctx.FS.Stat(path, true)
		rows = append(rows, lsEntry{name: ".", info: self})
		parent, perr := ctx.FS.Stat(parentPath(path), true)
		if perr == nil {
			rows = append(rows, lsEntry{name: "..", info: parent})
		}
	}

	var subdirs []string
	for _, e := range entries {
		if !opts.all && !opts.almostAll && strings.HasPrefix(e.Name, ".") {
			continue
		}
		st, serr := ctx.FS.StatIno(e.Ino)
		if serr != nil {
			continue
		}
		rows = append(rows, lsEntry{name: e.Name, info: st})
		if opts.recursive && st.IsDir() {
			subdirs = append(subdirs, e.Name)
		}
	}

	sortEntries(rows, opts)
	c.render(b, ctx, rows, opts, true)

	sort.Strings(subdirs)
	for _, d := range subdirs {
		b.WriteString("\r\n")
		child := typed
		if !strings.HasSuffix(child, "/") {
			child += "/"
		}
		c.listPath(b, ctx, child+d, opts, true)
	}
}

func sortEntries(rows []lsEntry, opts lsOptions) {
	sort.SliceStable(rows, func(i, j int) bool {
		switch {
		case opts.bySize:
			return rows[i].info.Size > rows[j].info.Size
		case opts.byTime:
			return rows[i].info.Mtime.After(rows[j].info.Mtime)
		default:
			return rows[i].name < rows[j].name
		}
	})
	if opts.reverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
}

func (c lsCommand) render(b *strings.Builder, ctx *Context, rows []lsEntry, opts lsOptions, inDir bool) {
	if opts.long {
		c.renderLong(b, ctx, rows, opts, inDir)
		return
	}

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.name
		if opts.classify {
			name += classifySuffix(r.info)
		}
		if opts.inode {
			name = fmt.Sprintf("%d %s", r.info.Ino, name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	if opts.onePerLine {
		b.WriteString(strings.Join(names, "\r\n"))
		b.WriteString("\r\n")
		return
	}
	b.WriteString(strings.Join(names, "  "))
	b.WriteString("\r\n")
}

func (c lsCommand) renderLong(b *strings.Builder, ctx *Context, rows []lsEntry, opts lsOptions, inDir bool) {
	if inDir {
		var blocks int64
		for _, r := range rows {
			if r.info.Kind == vfs.KindRegular {
				blocks += (r.info.Size + 4095) / 4096 * 4
			}
		}
		fmt.Fprintf(b, "total %d\r\n", blocks)
	}

	// Pre-compute column widths so the table lines up.
	var wNlink, wUser, wGroup, wSize int
	for _, r := range rows {
		wNlink = max(wNlink, len(fmt.Sprintf("%d", r.info.Nlink)))
		wUser = max(wUser, len(userName(r.info.UID, ctx)))
		wGroup = max(wGroup, len(groupName(r.info.GID, ctx)))
		wSize = max(wSize, len(sizeColumn(r.info.Size, opts.human)))
	}

	now := time.Now()
	for _, r := range rows {
		if opts.inode {
			fmt.Fprintf(b, "%d ", r.info.Ino)
		}
		name := r.name
		if opts.classify {
			name += classifySuffix(r.info)
		}
		if r.info.Kind == vfs.KindSymlink && r.info.LinkTarget != "" {
			name += " -> " + r.info.LinkTarget
		}
		fmt.Fprintf(b, "%s %*d %-*s %-*s %*s %s %s\r\n",
			modeString(r.info),
			wNlink, r.info.Nlink,
			wUser, userName(r.info.UID, ctx),
			wGroup, groupName(r.info.GID, ctx),
			wSize, sizeColumn(r.info.Size, opts.human),
			timeColumn(r.info.Mtime, now),
			name)
	}
}

// modeString renders the drwxr-xr-x column including setuid, setgid and
// sticky markers.
func modeString(info vfs.FileInfo) string {
	var kind byte
	switch info.Kind {
	case vfs.KindDirectory:
		kind = 'd'
	case vfs.KindSymlink:
		kind = 'l'
	default:
		kind = '-'
	}

	mode := info.Mode
	buf := []byte{kind, '-', '-', '-', '-', '-', '-', '-', '-', '-'}
	bits := []struct {
		mask uint32
		pos  int
		ch   byte
	}{
		{0o400, 1, 'r'}, {0o200, 2, 'w'}, {0o100, 3, 'x'},
		{0o040, 4, 'r'}, {0o020, 5, 'w'}, {0o010, 6, 'x'},
		{0o004, 7, 'r'}, {0o002, 8, 'w'}, {0o001, 9, 'x'},
	}
	for _, bit := range bits {
		if mode&bit.mask != 0 {
			buf[bit.pos] = bit.ch
		}
	}

	// setuid/setgid/sticky replace the execute slot.
	if mode&0o4000 != 0 {
		if buf[3] == 'x' {
			buf[3] = 's'
		} else {
			buf[3] = 'S'
		}
	}
	if mode&0o2000 != 0 {
		if buf[6] == 'x' {
			buf[6] = 's'
		} else {
			buf[6] = 'S'
		}
	}
	if mode&0o1000 != 0 {
		if buf[9] == 'x' {
			buf[9] = 't'
		} else {
			buf[9] = 'T'
		}
	}
	return string(buf)
}

func userName(uid uint32, ctx *Context) string {
	switch uid {
	case 0:
		return "root"
	case 33:
		return "www-data"
	case 1000:
		if ctx.Username == "root" {
			return "ubuntu"
		}
		return ctx.Username
	default:
		return fmt.Sprintf("%d", uid)
	}
}

func groupName(gid uint32, ctx *Context) string {
	return userName(gid, ctx)
}

func sizeColumn(size int64, human bool) string {
	if !human {
		return fmt.Sprintf("%d", size)
	}
	units := []string{"", "K", "M", "G", "T"}
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d", size)
	}
	if value >= 10 {
		return fmt.Sprintf("%.0f%s", value, units[unit])
	}
	return fmt.Sprintf("%.1f%s", value, units[unit])
}

// timeColumn formats mtime the way ls -l does: recent files show the
// clock time, files older than six months show the year instead.
func timeColumn(mtime, now time.Time) string {
	sixMonths := 182 * 24 * time.Hour
	if now.Sub(mtime) < sixMonths && mtime.Before(now.Add(time.Hour)) {
		return mtime.Format("Jan _2 15:04")
	}
	return mtime.Format("Jan _2  2006")
}

func classifySuffix(info vfs.FileInfo) string {
	switch {
	case info.Kind == vfs.KindDirectory:
		return "/"
	case info.Kind == vfs.KindSymlink:
		return "@"
	case info.Mode&0o111 != 0:
		return "*"
	default:
		return ""
	}
}

func parentPath(path string) string {
	if path == "/" {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}
