// Copyright © 2024 The Procq Project.

//go:build !linux && !darwin && !windows

package procq

import "github.com/procq/procq/core"

type platformSource struct{}

func (platformSource) Sockets(Protocol, IPVersion) ([]SocketRecord, error) {
	return nil, &PlatformError{Op: "socket snapshot", Err: core.Unsupported()}
}

func (platformSource) Processes() ([]ProcessRecord, error) {
	return nil, &PlatformError{Op: "process snapshot", Err: core.Unsupported()}
}
