// datachat – conversational TUI for the AI SQL Agent backend.
//
// Entry point: initializes Cobra root command and launches
// the Bubble Tea TUI by default (no subcommand required).
package main

import (
	"os"

	"github.com/datachat-cli/datachat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
