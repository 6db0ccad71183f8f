package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/labelvision/cmd/labelvision/commands"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	commands.SetBuildInfo(Version, BuildTime, GitCommit)
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
