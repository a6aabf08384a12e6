// Copyright © 2024 The Procq Project.

//go:build !windows

package procq

// Process name matching is case sensitive on unix platforms.
const caseInsensitiveNames = false
