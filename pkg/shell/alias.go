package shell

import "strings"

// aliasCommand wires a name like "ll" to another command with extra
// flags prepended, mirroring the alias definitions a stock .bashrc ships.
type aliasCommand struct {
	name  string
	extra string
	cmd   Command
}

func (a aliasCommand) Name() string      { return a.name }
func (a aliasCommand) Aliases() []string { return nil }
func (a aliasCommand) Help() string      { return a.cmd.Help() }
func (a aliasCommand) Version() string   { return a.cmd.Version() }

func (a aliasCommand) Execute(args string, ctx *Context) (string, error) {
	return a.cmd.Execute(strings.TrimSpace(a.extra+" "+args), ctx)
}
