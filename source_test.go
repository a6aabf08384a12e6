// Copyright © 2024 The Procq Project.

package procq

import "sync"

// fakeSource serves canned snapshots and counts calls. It is safe for the
// retry tests that swap snapshots from another goroutine.
type fakeSource struct {
	mu         sync.Mutex
	sockets    []SocketRecord
	procs      []ProcessRecord
	socketsErr error
	procsErr   error

	socketCalls  int
	processCalls int
}

func (s *fakeSource) Sockets(Protocol, IPVersion) ([]SocketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.socketCalls++
	return s.sockets, s.socketsErr
}

func (s *fakeSource) Processes() ([]ProcessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processCalls++
	return s.procs, s.procsErr
}

func (s *fakeSource) setSockets(recs []SocketRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets = recs
}

func (s *fakeSource) calls() (sockets, processes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.socketCalls, s.processCalls
}
