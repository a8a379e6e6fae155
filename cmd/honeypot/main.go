package main

import (
	"fmt"
	"os"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/cmd/honeypot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
