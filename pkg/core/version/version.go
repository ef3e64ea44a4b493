// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     version
// Description: Central version management for the engine and its hosts
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package version

import "fmt"

// Version constants for the engine and its hosts
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Engine  = "0.1.0"
	Console = "0.1.0"
	Server  = "0.1.0"
	Audit   = "0.1.0"
)

// Overridden at build time with -ldflags "-X .../version.Commit=..."
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "engine":
		return Engine
	case "console":
		return Console
	case "server":
		return Server
	case "audit":
		return Audit
	default:
		return Platform
	}
}

// String returns a one-line description of the build
func String() string {
	return fmt.Sprintf("cmdkit %s (engine %s, commit %s, built %s)", Platform, Engine, Commit, BuildDate)
}
