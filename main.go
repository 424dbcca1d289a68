// trialctl - command-line client for the TrialPoint clinical data portal.
package main

import (
	"fmt"
	"os"

	"github.com/trialpoint/trialctl/internal/cli"
)

// Version information. Overridden at release time via LDFLAGS:
//
//	go build -ldflags "-X main.version=v1.3.0 -X main.buildTime=..."
var (
	version   = "v1.3.0-dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
