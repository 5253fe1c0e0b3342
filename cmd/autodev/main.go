// Command autodev runs the agent pipeline over a project description.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns an exit code.
// This allows defers in the commands to execute before os.Exit is called.
func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "autodev: %v\n", err)
		return 1
	}
	return 0
}
