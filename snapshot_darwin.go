// Copyright © 2024 The Procq Project.

package procq

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/procq/procq/core"
)

// platformSource shells out to lsof and ps, which report socket ownership
// directly. The cgo libproc route would avoid the child processes but ties
// every consumer to a cgo build.
type platformSource struct{}

var lsofTables = []struct {
	proto   Protocol
	version IPVersion
	inet    string
	state   string
}{
	{TCP, IPv4, "-i4TCP", "-sTCP:LISTEN"},
	{TCP, IPv6, "-i6TCP", "-sTCP:LISTEN"},
	{UDP, IPv4, "-i4UDP", ""},
	{UDP, IPv6, "-i6UDP", ""},
}

func (platformSource) Sockets(protocols Protocol, versions IPVersion) ([]SocketRecord, error) {
	var recs []SocketRecord
	for _, t := range lsofTables {
		if t.proto&protocols == 0 || t.version&versions == 0 {
			continue
		}
		args := []string{"-nP", t.inet}
		if t.state != "" {
			args = append(args, t.state)
		}
		args = append(args, "-FpcPn")

		out, err := exec.Command("lsof", args...).Output()
		if err != nil && len(bytes.TrimSpace(out)) == 0 {
			// lsof exits nonzero when nothing matches the filter, and for
			// pids it lacks permission to inspect; take what it printed.
			core.LogDebug(fmt.Errorf("lsof %s: %w", t.inet, err))
			continue
		}
		recs = append(recs, parseLsofSockets(out, t.proto, t.version)...)
	}
	return recs, nil
}

func (platformSource) Processes() ([]ProcessRecord, error) {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=,comm=").Output()
	if err != nil {
		return nil, &PlatformError{Op: "ps", Err: err}
	}
	return parsePsProcesses(out), nil
}
