package shell

import (
	"fmt"
	"strings"
)

const (
	kernelRelease = "5.4.0-109-generic"
	kernelVersion = "#123-Ubuntu SMP Fri Apr 8 09:10:54 UTC 2022"
)

type unameCommand struct{}

func (unameCommand) Name() string      { return "uname" }
func (unameCommand) Aliases() []string { return nil }

func (unameCommand) Help() string {
	return "Usage: uname [OPTION]...\r\n" +
		"Print certain system information.  With no OPTION, same as -s.\r\n\r\n" +
		"  -a, --all                print all information\r\n" +
		"  -s, --kernel-name        print the kernel name\r\n" +
		"  -n, --nodename           print the network node hostname\r\n" +
		"  -r, --kernel-release     print the kernel release\r\n" +
		"  -v, --kernel-version     print the kernel version\r\n" +
		"  -m, --machine            print the machine hardware name\r\n" +
		"  -p, --processor          print the processor type\r\n" +
		"  -i, --hardware-platform  print the hardware platform\r\n" +
		"  -o, --operating-system   print the operating system\r\n" +
		"      --help     display this help and exit\r\n" +
		"      --version  output version information and exit\r\n"
}

func (unameCommand) Version() string {
	return "uname (GNU coreutils) 8.30\r\n"
}

func (c unameCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	var (
		all, kernel, node, release, version bool
		machine, processor, platform, osys  bool
	)

	for _, a := range fields(args) {
		switch {
		case a == "--all":
			all = true
		case a == "--kernel-name":
			kernel = true
		case a == "--nodename":
			node = true
		case a == "--kernel-release":
			release = true
		case a == "--kernel-version":
			version = true
		case a == "--machine":
			machine = true
		case a == "--processor":
			processor = true
		case a == "--hardware-platform":
			platform = true
		case a == "--operating-system":
			osys = true
		case strings.HasPrefix(a, "--"):
			return fmt.Sprintf("uname: unrecognized option '%s'\r\nTry 'uname --help' for more information.\r\n", a), nil
		case strings.HasPrefix(a, "-") && len(a) > 1:
			for _, f := range a[1:] {
				switch f {
				case 'a':
					all = true
				case 's':
					kernel = true
				case 'n':
					node = true
				case 'r':
					release = true
				case 'v':
					version = true
				case 'm':
					machine = true
				case 'p':
					processor = true
				case 'i':
					platform = true
				case 'o':
					osys = true
				default:
					return fmt.Sprintf("uname: invalid option -- '%c'\r\nTry 'uname --help' for more information.\r\n", f), nil
				}
			}
		}
	}

	if all {
		return fmt.Sprintf("Linux %s %s %s x86_64 x86_64 x86_64 GNU/Linux\r\n",
			ctx.Hostname, kernelRelease, kernelVersion), nil
	}

	var parts []string
	if kernel {
		parts = append(parts, "Linux")
	}
	if node {
		parts = append(parts, ctx.Hostname)
	}
	if release {
		parts = append(parts, kernelRelease)
	}
	if version {
		parts = append(parts, kernelVersion)
	}
	if machine {
		parts = append(parts, "x86_64")
	}
	if processor {
		parts = append(parts, "x86_64")
	}
	if platform {
		parts = append(parts, "x86_64")
	}
	if osys {
		parts = append(parts, "GNU/Linux")
	}
	if len(parts) == 0 {
		parts = append(parts, "Linux")
	}
	return strings.Join(parts, " ") + "\r\n", nil
}
