package shell

import (
	"fmt"
	"strings"
)

// wget and curl never reach the network. They print the resolver
// failure a firewalled host would produce, which is usually enough to
// keep an intruder trying mirrors instead of probing the emulation.

type wgetCommand struct{}

func (wgetCommand) Name() string      { return "wget" }
func (wgetCommand) Aliases() []string { return nil }

func (wgetCommand) Help() string {
	return "GNU Wget 1.20.3, a non-interactive network retriever.\r\n" +
		"Usage: wget [OPTION]... [URL]...\r\n\r\n" +
		"Mandatory arguments to long options are mandatory for short options too.\r\n"
}

func (wgetCommand) Version() string {
	return "GNU Wget 1.20.3 built on linux-gnu.\r\n"
}

func (c wgetCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	url := firstNonFlag(args)
	if url == "" {
		return "wget: missing URL\r\n" +
			"Usage: wget [OPTION]... [URL]...\r\n\r\n" +
			"Try `wget --help' for more options.\r\n", nil
	}

	host := hostOf(url)
	return fmt.Sprintf("--%s--  %s\r\n", "2022-04-08 09:10:54", url) +
		fmt.Sprintf("Resolving %s (%s)... failed: Temporary failure in name resolution.\r\n", host, host) +
		fmt.Sprintf("wget: unable to resolve host address ‘%s’\r\n", host), nil
}

type curlCommand struct{}

func (curlCommand) Name() string      { return "curl" }
func (curlCommand) Aliases() []string { return nil }

func (curlCommand) Help() string {
	return "Usage: curl [options...] <url>\r\n" +
		" -d, --data <data>          HTTP POST data\r\n" +
		" -f, --fail                 Fail silently (no output at all) on HTTP errors\r\n" +
		" -h, --help <category>      Get help for commands\r\n" +
		" -o, --output <file>        Write to file instead of stdout\r\n" +
		" -O, --remote-name          Write output to a file named as the remote file\r\n" +
		" -s, --silent               Silent mode\r\n" +
		" -v, --verbose              Make the operation more talkative\r\n" +
		" -V, --version              Show version number and quit\r\n"
}

func (curlCommand) Version() string {
	return "curl 7.68.0 (x86_64-pc-linux-gnu) libcurl/7.68.0 OpenSSL/1.1.1f zlib/1.2.11\r\n" +
		"Release-Date: 2020-01-08\r\n"
}

func (c curlCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	url := firstNonFlag(args)
	if url == "" {
		return "curl: try 'curl --help' or 'curl --manual' for more information\r\n", nil
	}

	return fmt.Sprintf("curl: (6) Could not resolve host: %s\r\n", hostOf(url)), nil
}

// firstNonFlag returns the first argument that does not look like an option.
func firstNonFlag(args string) string {
	for _, a := range fields(args) {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// hostOf strips the scheme and path from a URL, leaving the bare host.
func hostOf(url string) string {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
