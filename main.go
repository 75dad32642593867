// Package main provides the entry point for IP to Country Tray.
// IP to Country Tray shows the country of the machine's public IPv4
// address as a system tray badge and notifies when it changes.
//
// Features:
//   - Country badge and tooltip in the system tray
//   - Desktop notifications on address change and connection loss
//   - Several public address and country providers with fallback
//   - Terminal status view and one-shot lookup for headless use
//
// Usage:
//
//	ipcountry-tray [command] [flags]
package main

import (
	"fmt"
	"os"

	"github.com/yllada/ipcountry-tray/cli"
	"github.com/yllada/ipcountry-tray/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	err := cli.Execute(cli.BuildInfo{
		Version:   appVersion,
		BuildTime: buildTime,
		Commit:    commitSHA,
	})
	common.CloseLogger()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
