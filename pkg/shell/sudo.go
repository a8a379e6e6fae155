package shell

import "fmt"

type sudoCommand struct{}

func (sudoCommand) Name() string      { return "sudo" }
func (sudoCommand) Aliases() []string { return nil }

func (sudoCommand) Help() string {
	return "usage: sudo -h | -K | -k | -V\r\n" +
		"usage: sudo [-ABbEHnPS] [-g group] [-u user] command\r\n"
}

func (sudoCommand) Version() string {
	return "Sudo version 1.8.31\r\nSudoers policy plugin version 1.8.31\r\n"
}

// Execute always refuses: nothing on this box is allowed to escalate.
func (c sudoCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}
	return fmt.Sprintf("Sorry, user %s may not run sudo on %s.\r\n", ctx.Username, ctx.Hostname), nil
}
