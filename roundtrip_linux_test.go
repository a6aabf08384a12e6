// Copyright © 2024 The Procq Project.

package procq

import (
	"net"
	"os"
	"testing"
	"time"
)

// TestPortQueryRoundTrip binds a real TCP port and observes it through the
// platform source, attributed to this process.
func TestPortQueryRoundTrip(t *testing.T) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	port := Port(l.Addr().(*net.TCPAddr).Port)

	results, err := NewPortQuery().
		TCPOnly().
		IPv4Only().
		Pid(Pid(os.Getpid())).
		LocalPort(port).
		ExpectMinResults(1).
		ExecuteWithRetry(RetryPolicy{Attempts: 10, Delay: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("expected to find our own listener: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
	if results[0].LocalPort != port {
		t.Errorf("local port = %d, want %d", results[0].LocalPort, port)
	}
	if results[0].Pid != Pid(os.Getpid()) {
		t.Errorf("pid = %d, want %d", results[0].Pid, os.Getpid())
	}
}

func TestProcessSnapshotIncludesSelf(t *testing.T) {
	procs, err := DefaultSource().Processes()
	if err != nil {
		t.Fatalf("processes: %v", err)
	}

	self := Pid(os.Getpid())
	for _, p := range procs {
		if p.Pid == self {
			if p.Ppid != Pid(os.Getppid()) {
				t.Errorf("ppid = %d, want %d", p.Ppid, os.Getppid())
			}
			if p.Name == "" {
				t.Errorf("expected a best-effort name for ourselves")
			}
			return
		}
	}
	t.Fatalf("process snapshot does not contain this process")
}

func TestStatProcessSelf(t *testing.T) {
	rec, err := statProcess(Pid(os.Getpid()))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if rec.Pid != Pid(os.Getpid()) || rec.Ppid != Pid(os.Getppid()) {
		t.Fatalf("unexpected identity %+v", rec)
	}
}
