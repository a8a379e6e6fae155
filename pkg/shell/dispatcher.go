package shell

import (
	"fmt"
	"strings"
)

// Dispatch executes one input line and returns the output to write to the
// client. A returned ErrExit means the session should disconnect; no other
// error is ever surfaced to the attacker.
//
// Pipelines are supported in a deliberately shallow way: the line is split
// on "|", the head is executed normally, and each later "grep <pattern>"
// stage filters the previous output by substring. Any other command in a
// pipe position is silently skipped and the output passes through, so
// "ps aux | awk '{print $2}'" still shows something instead of betraying
// the simulation with an error.
func (r *Registry) Dispatch(line string, ctx *Context) (string, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", nil
	}

	stages := strings.Split(trimmed, "|")
	head := strings.TrimSpace(stages[0])

	name, args := splitCommand(head)
	cmd, ok := r.Lookup(name)
	if !ok {
		return notFound(name), nil
	}

	output, err := cmd.Execute(args, ctx)
	if err != nil {
		return output, err
	}

	for _, stage := range stages[1:] {
		stageName, stageArgs := splitCommand(strings.TrimSpace(stage))
		if stageName != "grep" {
			continue
		}
		output = grepFilter(output, strings.Trim(stageArgs, `"'`))
	}

	return output, nil
}

func notFound(name string) string {
	return fmt.Sprintf("bash: %s: command not found\r\n", name)
}

// grepFilter keeps the lines of output containing pattern.
func grepFilter(output, pattern string) string {
	if pattern == "" {
		return output
	}

	var sb strings.Builder
	for _, line := range strings.Split(output, "\r\n") {
		if line == "" {
			continue
		}
		if strings.Contains(line, pattern) {
			sb.WriteString(line)
			sb.WriteString("\r\n")
		}
	}
	return sb.String()
}
