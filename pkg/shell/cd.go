package shell

import "fmt"

// cdCommand mutates the session context, so the registry keeps it in
// the stateful set and dispatches to it before the plain commands.
type cdCommand struct{}

func (cdCommand) Name() string      { return "cd" }
func (cdCommand) Aliases() []string { return nil }

func (cdCommand) Help() string {
	return "cd: cd [-L|[-P [-e]] [-@]] [dir]\r\n" +
		"    Change the shell working directory.\r\n"
}

func (cdCommand) Version() string {
	return "cd: cd [-L|[-P [-e]] [-@]] [dir]\r\n"
}

func (c cdCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	target := ""
	if fs := fields(args); len(fs) > 0 {
		target = fs[0]
	}

	switch target {
	case "", "~":
		ctx.Chdir(ctx.Home())
		return "", nil
	case "-":
		prev := ctx.PrevCwd
		if msg := c.enter(ctx, prev, prev); msg != "" {
			return msg, nil
		}
		return prev + "\r\n", nil
	}

	return c.enter(ctx, ctx.AbsPath(target), target), nil
}

// enter switches to path if it resolves to a directory, otherwise it
// returns the bash error line naming the argument the user typed.
func (cdCommand) enter(ctx *Context, path, typed string) string {
	isDir, err := ctx.FS.IsDir(path)
	if err != nil {
		return fmt.Sprintf("bash: cd: %s: No such file or directory\r\n", typed)
	}
	if !isDir {
		return fmt.Sprintf("bash: cd: %s: Not a directory\r\n", typed)
	}
	ctx.Chdir(path)
	return ""
}
