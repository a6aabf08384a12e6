// Copyright © 2024 The Procq Project.

package procq

// Process name matching is case insensitive on windows.
const caseInsensitiveNames = true
