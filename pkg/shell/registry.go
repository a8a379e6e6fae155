package shell

import "strings"

// Registry maps command names (and aliases) to implementations. Stateful
// commands, the ones that mutate the Context, are kept separately and
// consulted first during lookup.
type Registry struct {
	stateful map[string]Command
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stateful: make(map[string]Command),
		commands: make(map[string]Command),
	}
}

// NewDefaultRegistry creates a registry with the full honeypot command set.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterStateful(&cdCommand{})

	r.Register(&pwdCommand{})
	r.Register(&whoamiCommand{})
	r.Register(&idCommand{})
	r.Register(&unameCommand{})
	r.Register(&psCommand{})

	ls := &lsCommand{}
	r.Register(ls)
	r.Register(aliasCommand{name: "ll", extra: "-alF", cmd: ls})
	r.Register(aliasCommand{name: "la", extra: "-A", cmd: ls})
	r.Register(aliasCommand{name: "l", extra: "-CF", cmd: ls})

	r.Register(&catCommand{})
	r.Register(&freeCommand{})
	r.Register(&echoCommand{})
	r.Register(&dateCommand{})
	r.Register(&sudoCommand{})
	r.Register(&wgetCommand{})
	r.Register(&curlCommand{})
	r.Register(&exitCommand{})

	return r
}

// Register adds a command under its name and all aliases.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
	for _, alias := range cmd.Aliases() {
		r.commands[alias] = cmd
	}
}

// RegisterStateful adds a context-mutating command under its name and aliases.
func (r *Registry) RegisterStateful(cmd Command) {
	r.stateful[cmd.Name()] = cmd
	for _, alias := range cmd.Aliases() {
		r.stateful[alias] = cmd
	}
}

// Lookup resolves a command name, stateful commands first.
func (r *Registry) Lookup(name string) (Command, bool) {
	if cmd, ok := r.stateful[name]; ok {
		return cmd, true
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// fields splits an argument string on whitespace.
func fields(args string) []string {
	return strings.Fields(args)
}

// splitCommand separates the command name from its argument string.
func splitCommand(line string) (name, args string) {
	line = strings.TrimSpace(line)
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}
