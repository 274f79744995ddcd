// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package version

// Version is set at build time via -ldflags "-X github.com/canonical/workspace-service/internal/version.Version=..."
var Version = "dev"
