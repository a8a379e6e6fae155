package shell

import (
	"fmt"
	"strings"
)

type psCommand struct{}

func (psCommand) Name() string      { return "ps" }
func (psCommand) Aliases() []string { return nil }

func (psCommand) Help() string {
	return "Usage:\r\n ps [options]\r\n\r\n" +
		" Try 'ps --help <simple|list|output|threads|misc|all>'\r\n" +
		"  or 'ps --help <s|l|o|t|m|a>'\r\n" +
		" for additional help text.\r\n\r\n" +
		"For more details see ps(1).\r\n"
}

func (psCommand) Version() string {
	return "ps from procps-ng 3.3.15\r\n"
}

// procEntry mirrors a single row of ps aux output.
type procEntry struct {
	user             string
	pid              int
	cpu, mem         float64
	vsz, rss         int
	tty, stat, start string
	time, command    string
}

// systemProcs is the fixed process table every session reports. The
// entries copy what a small idle Ubuntu server shows right after boot.
var systemProcs = []procEntry{
	{"root", 1, 0.0, 0.1, 169420, 11456, "?", "Ss", "Apr08", "0:04", "/sbin/init"},
	{"root", 2, 0.0, 0.0, 0, 0, "?", "S", "Apr08", "0:00", "[kthreadd]"},
	{"root", 3, 0.0, 0.0, 0, 0, "?", "I<", "Apr08", "0:00", "[rcu_gp]"},
	{"root", 4, 0.0, 0.0, 0, 0, "?", "I<", "Apr08", "0:00", "[rcu_par_gp]"},
	{"root", 9, 0.0, 0.0, 0, 0, "?", "I<", "Apr08", "0:00", "[mm_percpu_wq]"},
	{"root", 10, 0.0, 0.0, 0, 0, "?", "S", "Apr08", "0:01", "[ksoftirqd/0]"},
	{"root", 11, 0.0, 0.0, 0, 0, "?", "I", "Apr08", "0:12", "[rcu_sched]"},
	{"root", 12, 0.0, 0.0, 0, 0, "?", "S", "Apr08", "0:00", "[migration/0]"},
	{"root", 401, 0.0, 0.3, 47540, 15896, "?", "S<s", "Apr08", "0:00", "/lib/systemd/systemd-journald"},
	{"root", 428, 0.0, 0.1, 22716, 5792, "?", "Ss", "Apr08", "0:00", "/lib/systemd/systemd-udevd"},
	{"systemd+", 536, 0.0, 0.1, 90388, 6124, "?", "Ssl", "Apr08", "0:00", "/lib/systemd/systemd-timesyncd"},
	{"systemd+", 748, 0.0, 0.2, 24436, 12204, "?", "Ss", "Apr08", "0:00", "/lib/systemd/systemd-resolved"},
	{"root", 812, 0.0, 0.1, 99896, 5900, "?", "Ssl", "Apr08", "0:00", "/usr/sbin/irqbalance --foreground"},
	{"syslog", 821, 0.0, 0.1, 224344, 4620, "?", "Ssl", "Apr08", "0:00", "/usr/sbin/rsyslogd -n -iNONE"},
	{"root", 834, 0.0, 0.4, 713632, 18340, "?", "Ssl", "Apr08", "0:02", "/usr/lib/snapd/snapd"},
	{"root", 843, 0.0, 0.1, 17672, 7528, "?", "Ss", "Apr08", "0:00", "/lib/systemd/systemd-logind"},
	{"root", 877, 0.0, 0.0, 6812, 2912, "ttyS0", "Ss+", "Apr08", "0:00", "/sbin/agetty -o -p -- \\u --keep-baud 115200,38400,9600 ttyS0 vt220"},
	{"root", 894, 0.0, 0.0, 5828, 1844, "tty1", "Ss+", "Apr08", "0:00", "/sbin/agetty -o -p -- \\u --noclear tty1 linux"},
	{"root", 951, 0.0, 0.1, 12176, 6820, "?", "Ss", "Apr08", "0:00", "sshd: /usr/sbin/sshd -D [listener] 0 of 10-100 startups"},
	{"root", 1204, 0.0, 0.2, 107896, 20812, "?", "Ssl", "Apr08", "0:00", "/usr/bin/python3 /usr/bin/networkd-dispatcher --run-startup-triggers"},
	{"daemon", 1211, 0.0, 0.0, 3792, 2288, "?", "Ss", "Apr08", "0:00", "/usr/sbin/atd -f"},
	{"root", 1220, 0.0, 0.0, 8504, 3248, "?", "Ss", "Apr08", "0:00", "/usr/sbin/cron -f"},
}

func (c psCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	var b strings.Builder
	b.WriteString("USER         PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND\r\n")
	for _, p := range systemProcs {
		writeProc(&b, p)
	}
	// The intruder's own shell and the ps invocation itself.
	writeProc(&b, procEntry{ctx.Username, 13871, 0.0, 0.1, 8276, 5044, "pts/0", "Ss", "09:10", "0:00", "-bash"})
	writeProc(&b, procEntry{ctx.Username, 13907, 0.0, 0.0, 8888, 3216, "pts/0", "R+", "09:10", "0:00", "ps aux"})
	return b.String(), nil
}

func writeProc(b *strings.Builder, p procEntry) {
	fmt.Fprintf(b, "%-10s %5d %4.1f %4.1f %6d %5d %-8s %-4s %-7s %5s %s\r\n",
		p.user, p.pid, p.cpu, p.mem, p.vsz, p.rss, p.tty, p.stat, p.start, p.time, p.command)
}
