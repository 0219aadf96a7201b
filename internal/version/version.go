/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package version exposes build metadata for the CLI, logs and crash reports.
package version

import "fmt"

// Version is overridden at build time via -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "0.1.0-dev"

// Commit is the short VCS revision, if stamped at build time.
var Commit = ""

// String renders the version for banners and reports.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
