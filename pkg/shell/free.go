package shell

import (
	"fmt"
	"math/rand"
	"strings"
)

type freeCommand struct{}

func (freeCommand) Name() string      { return "free" }
func (freeCommand) Aliases() []string { return nil }

func (freeCommand) Help() string {
	return "Usage:\r\n free [options]\r\n\r\nOptions:\r\n" +
		" -b, --bytes         show output in bytes\r\n" +
		" -k, --kibi          show output in kibibytes\r\n" +
		" -m, --mebi          show output in mebibytes\r\n" +
		" -g, --gibi          show output in gibibytes\r\n" +
		"     --tera          show output in terabytes\r\n" +
		" -h, --human         show human-readable output\r\n" +
		" -t, --total         show total for RAM + swap\r\n" +
		" -w, --wide          wide output\r\n\r\n" +
		"     --help     display this help and exit\r\n" +
		" -V, --version  output version information and exit\r\n"
}

func (freeCommand) Version() string {
	return "free from procps-ng 3.3.15\r\n"
}

// memSnapshot holds one consistent set of fake memory numbers in KiB.
// All derived rows come from the same snapshot so the arithmetic holds
// up if anyone adds the columns.
type memSnapshot struct {
	total, used, free, shared     uint64
	buffers, cache, available     uint64
	swapTotal, swapUsed, swapFree uint64
}

func newMemSnapshot() memSnapshot {
	// 2 to 16 GiB of RAM, in KiB.
	total := uint64(2+rand.Intn(15)) * 1024 * 1024
	buffCache := total * uint64(5+rand.Intn(21)) / 100
	used := total*uint64(30+rand.Intn(41))/100 - buffCache
	free := total - used - buffCache
	available := free + buffCache*8/10

	buffers := buffCache / 10
	cache := buffCache - buffers

	swapTotal := total / 2
	var swapUsed uint64
	if rand.Intn(10) < 7 {
		swapUsed = swapTotal * uint64(rand.Intn(3)) / 100
	} else {
		swapUsed = swapTotal * uint64(10+rand.Intn(30)) / 100
	}

	return memSnapshot{
		total:     total,
		used:      used,
		free:      free,
		shared:    total / 100,
		buffers:   buffers,
		cache:     cache,
		available: available,
		swapTotal: swapTotal,
		swapUsed:  swapUsed,
		swapFree:  swapTotal - swapUsed,
	}
}

func (c freeCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	// unit divides KiB values down (or up for bytes) to the display unit.
	human := false
	wide := false
	total := false
	var mul uint64 = 1
	var div uint64 = 1

	for _, a := range fields(args) {
		switch a {
		case "-b", "--bytes":
			mul, div = 1024, 1
		case "-k", "--kibi":
			mul, div = 1, 1
		case "-m", "--mebi":
			mul, div = 1, 1024
		case "-g", "--gibi":
			mul, div = 1, 1024*1024
		case "--tera":
			mul, div = 1, 1024*1024*1024
		case "-h", "--human":
			human = true
		case "-t", "--total":
			total = true
		case "-w", "--wide":
			wide = true
		case "-V":
			return c.Version(), nil
		default:
			if strings.HasPrefix(a, "-") {
				return fmt.Sprintf("free: invalid option -- '%s'\r\n\r\n%s", strings.TrimLeft(a, "-"), c.Help()), nil
			}
		}
	}

	snap := newMemSnapshot()
	cell := func(kib uint64) string {
		if human {
			return humanMem(kib)
		}
		return fmt.Sprintf("%d", kib*mul/div)
	}

	var b strings.Builder
	if wide {
		b.WriteString("              total        used        free      shared     buffers       cache   available\r\n")
		fmt.Fprintf(&b, "%-7s%12s%12s%12s%12s%12s%12s%12s\r\n", "Mem:",
			cell(snap.total), cell(snap.used), cell(snap.free), cell(snap.shared),
			cell(snap.buffers), cell(snap.cache), cell(snap.available))
	} else {
		b.WriteString("              total        used        free      shared  buff/cache   available\r\n")
		fmt.Fprintf(&b, "%-7s%12s%12s%12s%12s%12s%12s\r\n", "Mem:",
			cell(snap.total), cell(snap.used), cell(snap.free), cell(snap.shared),
			cell(snap.buffers+snap.cache), cell(snap.available))
	}
	fmt.Fprintf(&b, "%-7s%12s%12s%12s\r\n", "Swap:",
		cell(snap.swapTotal), cell(snap.swapUsed), cell(snap.swapFree))
	if total {
		fmt.Fprintf(&b, "%-7s%12s%12s%12s\r\n", "Total:",
			cell(snap.total+snap.swapTotal), cell(snap.used+snap.swapUsed), cell(snap.free+snap.swapFree))
	}
	return b.String(), nil
}

// humanMem formats a KiB count the way free -h does, picking the
// largest unit that keeps the value above 1.
func humanMem(kib uint64) string {
	units := []string{"Ki", "Mi", "Gi", "Ti"}
	value := float64(kib)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if value >= 100 || unit == 0 {
		return fmt.Sprintf("%.0f%s", value, units[unit])
	}
	return fmt.Sprintf("%.1f%s", value, units[unit])
}
