// Copyright © 2024 The Procq Project.

package procq

import "strconv"

type (
	// Pid is the identifier for a process. Pids are OS scoped and reused
	// after process death; they are not stable global identities.
	Pid int

	// Port is a network port number.
	Port uint16

	// Protocol is a set of transport protocols, combined with |.
	Protocol uint

	// IPVersion is a set of IP address families, combined with |.
	IPVersion uint
)

const (
	// TCP selects TCP sockets.
	TCP Protocol = 1 << iota
	// UDP selects UDP sockets.
	UDP
)

const (
	// IPv4 selects IPv4 sockets.
	IPv4 IPVersion = 1 << iota
	// IPv6 selects IPv6 sockets.
	IPv6
)

type (
	// PortInfo reports one socket matched by a PortQuery.
	PortInfo struct {
		Protocol   Protocol  `json:"protocol"`
		Version    IPVersion `json:"version"`
		LocalAddr  string    `json:"local_addr"`
		LocalPort  Port      `json:"local_port"`
		RemoteAddr string    `json:"remote_addr,omitempty"`
		RemotePort Port      `json:"remote_port,omitempty"`
		Pid        Pid       `json:"pid"`     // 0 when the platform withholds ownership
		Process    string    `json:"process"` // best-effort name of the owning process
	}

	// ProcInfo reports one process table entry.
	ProcInfo struct {
		Pid  Pid    `json:"pid"`
		Ppid Pid    `json:"ppid"`
		Name string `json:"name"`
	}

	// ChildSet holds the transitive descendants of a process, keyed by pid.
	// Each descendant appears at most once however many paths reach it.
	ChildSet map[Pid]ProcInfo
)

// String formats a pid as a string to comply with fmt.Stringer interface.
func (pid Pid) String() string {
	return strconv.Itoa(int(pid))
}

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case TCP | UDP:
		return "tcp|udp"
	}
	return "protocol(" + strconv.Itoa(int(p)) + ")"
}

// MarshalText encodes the protocol set for json and yaml output.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (v IPVersion) String() string {
	switch v {
	case IPv4:
		return "v4"
	case IPv6:
		return "v6"
	case IPv4 | IPv6:
		return "v4|v6"
	}
	return "ipversion(" + strconv.Itoa(int(v)) + ")"
}

// MarshalText encodes the version set for json and yaml output.
func (v IPVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
