package shell

type pwdCommand struct{}

func (pwdCommand) Name() string      { return "pwd" }
func (pwdCommand) Aliases() []string { return nil }

func (pwdCommand) Help() string {
	return "pwd: pwd [-LP]\r\n" +
		"    Print the name of the current working directory.\r\n"
}

func (pwdCommand) Version() string {
	return "pwd (GNU coreutils) 8.30\r\n"
}

func (c pwdCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}
	return ctx.Cwd + "\r\n", nil
}
