// Package common provides shared constants, types, utilities, and interfaces
// used throughout the IP Country Tray application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like intervals, file names, and provider names
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for resolvers, presentation sinks, and logging
//   - Logger: Leveled logging with console and rotating file output
//   - Utils: Common utility functions for paths and country codes
//
// # Usage
//
//	import "github.com/yllada/ipcountry-tray/common"
//
//	// Use constants
//	interval := common.PollInterval
//
//	// Use logger
//	common.LogInfo("Public address changed to %s", ip)
//
//	// Check errors
//	if errors.Is(err, common.ErrLookupTimeout) {
//	    // Treat as no address
//	}
package common
