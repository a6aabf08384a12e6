// Copyright © 2024 The Procq Project.

package procq

import (
	"context"
	"os/exec"

	"github.com/procq/procq/core"
)

// PortQuery finds the network ports held open on the host, optionally
// narrowed to a protocol set, an address family set, an owning process, or
// a local port number. The zero constraint set matches every socket.
type PortQuery struct {
	protocols Protocol
	versions  IPVersion
	pid       Pid
	pidSet    bool
	port      Port
	portSet   bool
	expect    int
	expectSet bool
	src       Source
}

// NewPortQuery returns a query over both protocols and both address
// families with no further constraints.
func NewPortQuery() PortQuery {
	return PortQuery{protocols: TCP | UDP, versions: IPv4 | IPv6}
}

// TCPOnly restricts the query to TCP sockets.
func (q PortQuery) TCPOnly() PortQuery {
	q.protocols = TCP
	return q
}

// UDPOnly restricts the query to UDP sockets.
func (q PortQuery) UDPOnly() PortQuery {
	q.protocols = UDP
	return q
}

// IPv4Only restricts the query to IPv4 sockets.
func (q PortQuery) IPv4Only() PortQuery {
	q.versions = IPv4
	return q
}

// IPv6Only restricts the query to IPv6 sockets.
func (q PortQuery) IPv6Only() PortQuery {
	q.versions = IPv6
	return q
}

// Pid restricts the query to sockets owned by a process. Sockets whose
// ownership the platform withholds cannot match a pid constraint.
func (q PortQuery) Pid(pid Pid) PortQuery {
	q.pid = pid
	q.pidSet = true
	return q
}

// PidFromCmd restricts the query to sockets owned by a started command's
// process. A command that has not been started leaves the query unchanged.
func (q PortQuery) PidFromCmd(cmd *exec.Cmd) PortQuery {
	if cmd == nil || cmd.Process == nil {
		return q
	}
	return q.Pid(Pid(cmd.Process.Pid))
}

// LocalPort restricts the query to sockets bound to a local port.
func (q PortQuery) LocalPort(port Port) PortQuery {
	q.port = port
	q.portSet = true
	return q
}

// ExpectMinResults declares the minimum acceptable result count. Execute
// fails with InsufficientResultsError when fewer sockets match. An unset
// expectation and an explicit zero are distinct states: without an
// expectation empty results return as an empty slice, while a zero
// expectation is recorded but can never fail.
func (q PortQuery) ExpectMinResults(n int) PortQuery {
	q.expect = n
	q.expectSet = true
	return q
}

func (q PortQuery) source() Source {
	if q.src != nil {
		return q.src
	}
	return platformSource{}
}

// Execute takes a fresh socket snapshot and filters it against the query's
// constraints. On platforms whose socket records carry no process name, one
// process snapshot per call backfills names best effort.
func (q PortQuery) Execute() ([]PortInfo, error) {
	sockets, err := q.source().Sockets(q.protocols, q.versions)
	if err != nil {
		return nil, err
	}

	var names map[Pid]string
	var results []PortInfo
	for _, s := range sockets {
		if s.Protocol&q.protocols == 0 || s.Version&q.versions == 0 {
			continue
		}
		if q.pidSet && (s.Pid == 0 || s.Pid != q.pid) {
			continue // unowned sockets never match a pid constraint
		}
		if q.portSet && s.LocalPort != q.port {
			continue
		}

		name := s.Process
		if name == "" && s.Pid != 0 {
			if names == nil {
				if names, err = processNames(q.source()); err != nil {
					core.LogDebug(err)
					names = map[Pid]string{}
				}
			}
			name = names[s.Pid]
		}

		results = append(results, PortInfo{
			Protocol:   s.Protocol,
			Version:    s.Version,
			LocalAddr:  s.LocalAddr,
			LocalPort:  s.LocalPort,
			RemoteAddr: s.RemoteAddr,
			RemotePort: s.RemotePort,
			Pid:        s.Pid,
			Process:    name,
		})
	}

	if q.expectSet && len(results) < q.expect {
		return nil, &InsufficientResultsError{Found: len(results), Expected: q.expect}
	}
	return results, nil
}

// ExecuteWithRetry runs Execute under a retry policy, blocking the calling
// goroutine between attempts.
func (q PortQuery) ExecuteWithRetry(policy RetryPolicy) ([]PortInfo, error) {
	return retry(policy, q.Execute)
}

// ExecuteWithRetryContext runs Execute under a retry policy, suspending on
// ctx between attempts. Cancellation during a wait aborts the loop without
// invoking the next attempt and returns the context's error.
func (q PortQuery) ExecuteWithRetryContext(ctx context.Context, policy RetryPolicy) ([]PortInfo, error) {
	return retryContext(ctx, policy, q.Execute)
}
