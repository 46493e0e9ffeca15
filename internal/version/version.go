/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package version

// Version is the release version, overridable at build time with
// -ldflags "-X .../internal/version.Version=...".
var Version = "0.1.0"
