// Copyright © 2024 The Procq Project.

package procq

type (
	// SocketRecord is one row of a socket table snapshot: a listening TCP
	// socket or a bound UDP socket.
	SocketRecord struct {
		Protocol   Protocol
		Version    IPVersion
		LocalAddr  string
		LocalPort  Port
		RemoteAddr string
		RemotePort Port
		Pid        Pid    // 0 when the platform withholds ownership
		Process    string // "" when the platform reports no name
	}

	// ProcessRecord is one row of a process table snapshot.
	ProcessRecord struct {
		Pid  Pid
		Ppid Pid // 0, or the pid itself for session leaders
		Name string
	}

	// Source is the platform data source behind every query: a per-OS
	// adapter that snapshots the socket and process tables. Each call
	// returns a fresh point-in-time read; records have no identity across
	// calls. Implementations never mutate OS state.
	Source interface {
		// Sockets snapshots the socket tables for the requested protocol
		// and address family sets. The restriction is a performance
		// concern only; resolvers re-filter the records they receive.
		Sockets(protocols Protocol, versions IPVersion) ([]SocketRecord, error)

		// Processes snapshots the process table.
		Processes() ([]ProcessRecord, error)
	}
)

// DefaultSource returns the data source for the build platform.
func DefaultSource() Source {
	return platformSource{}
}

// processNames builds a pid to name lookup from one process snapshot, so a
// resolver joins the process table once per call rather than once per socket.
func processNames(src Source) (map[Pid]string, error) {
	procs, err := src.Processes()
	if err != nil {
		return nil, err
	}
	names := make(map[Pid]string, len(procs))
	for _, p := range procs {
		names[p.Pid] = p.Name
	}
	return names, nil
}
