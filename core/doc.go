// Copyright © 2024 The Procq Project.

/*
Package core provides the ambient tooling shared by the procq library and
commands: leveled logging with caller location, error percolation, and type
safe string values.
*/
package core
