// cmd/lucyreport/main.go
package main

import (
	cmd "github.com/davidmazza/lucyreport/internal/cli"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the lucyreport CLI application by delegating to the
// cobra root command defined in the lucyreport package.
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
