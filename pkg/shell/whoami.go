package shell

type whoamiCommand struct{}

func (whoamiCommand) Name() string      { return "whoami" }
func (whoamiCommand) Aliases() []string { return nil }

func (whoamiCommand) Help() string {
	return "Usage: whoami [OPTION]...\r\n" +
		"Print the user name associated with the current effective user ID.\r\n" +
		"Same as id -un.\r\n\r\n" +
		"      --help     display this help and exit\r\n" +
		"      --version  output version information and exit\r\n"
}

func (whoamiCommand) Version() string {
	return "whoami (GNU coreutils) 8.30\r\n"
}

func (c whoamiCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}
	return ctx.Username + "\r\n", nil
}
