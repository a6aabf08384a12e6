// Copyright © 2024 The Procq Project.

/*
procrunner starts its arguments as a child process and waits for it, for
exercising child tree queries.

	procrunner <command> [args...]
*/
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/procq/procq/core"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: procrunner <command> [args...]")
		os.Exit(2)
	}

	cmd := exec.Command(os.Args[1], os.Args[2:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		core.LogError(err)
	}
	os.Exit(core.ExitCode())
}
