package main

import (
	"os"

	"github.com/insiderradar/radar/cmd/radar/commands"
)

// main is the entry point for the radar CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
