package shell

type exitCommand struct{}

func (exitCommand) Name() string      { return "exit" }
func (exitCommand) Aliases() []string { return []string{"logout"} }

func (exitCommand) Help() string {
	return "exit: exit [n]\r\n    Exit the shell.\r\n"
}

func (exitCommand) Version() string {
	return "exit: exit [n]\r\n"
}

func (exitCommand) Execute(args string, ctx *Context) (string, error) {
	return "logout\r\n", ErrExit
}
