package shell

import "fmt"

type idCommand struct{}

func (idCommand) Name() string      { return "id" }
func (idCommand) Aliases() []string { return nil }

func (idCommand) Help() string {
	return "Usage: id [OPTION]... [USER]\r\n" +
		"Print user and group information for the specified USER,\r\n" +
		"or (when USER omitted) for the current user.\r\n"
}

func (idCommand) Version() string {
	return "id (GNU coreutils) 8.30\r\n"
}

func (c idCommand) Execute(args string, ctx *Context) (string, error) {
	if out, ok := handleStandardFlags(c, args); ok {
		return out, nil
	}

	user := ctx.Username
	if user == "root" {
		return "uid=0(root) gid=0(root) groups=0(root)\r\n", nil
	}

	return fmt.Sprintf(
		"uid=1000(%s) gid=1000(%s) groups=1000(%s),4(adm),24(cdrom),27(sudo),30(dip),46(plugdev)\r\n",
		user, user, user), nil
}
