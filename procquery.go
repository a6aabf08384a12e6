// Copyright © 2024 The Procq Project.

package procq

import (
	"context"
	"os/exec"
	"strings"
)

// ProcQuery finds process table entries by pid or name, and walks the
// child tree of a process. The zero constraint set matches every process.
type ProcQuery struct {
	pid       Pid
	pidSet    bool
	name      string
	nameSet   bool
	expect    int
	expectSet bool
	src       Source
}

// NewProcQuery returns a query with no constraints.
func NewProcQuery() ProcQuery {
	return ProcQuery{}
}

// Pid restricts the query to one process id, matched exactly. It also
// selects the root of a Children walk.
func (q ProcQuery) Pid(pid Pid) ProcQuery {
	q.pid = pid
	q.pidSet = true
	return q
}

// PidFromCmd restricts the query to a started command's process. A command
// that has not been started leaves the query unchanged.
func (q ProcQuery) PidFromCmd(cmd *exec.Cmd) ProcQuery {
	if cmd == nil || cmd.Process == nil {
		return q
	}
	return q.Pid(Pid(cmd.Process.Pid))
}

// Name restricts the query to processes whose name contains the given
// substring. Matching follows the platform's default case sensitivity:
// insensitive on windows, sensitive elsewhere.
func (q ProcQuery) Name(name string) ProcQuery {
	q.name = name
	q.nameSet = true
	return q
}

// ExpectMinResults declares the minimum acceptable result count for
// ListProcesses and Children. Unset and zero are distinct states; see
// PortQuery.ExpectMinResults.
func (q ProcQuery) ExpectMinResults(n int) ProcQuery {
	q.expect = n
	q.expectSet = true
	return q
}

func (q ProcQuery) source() Source {
	if q.src != nil {
		return q.src
	}
	return platformSource{}
}

// ListProcesses takes a fresh process snapshot and returns the entries
// matching the query's constraints, in enumeration order.
func (q ProcQuery) ListProcesses() ([]ProcInfo, error) {
	procs, err := q.source().Processes()
	if err != nil {
		return nil, err
	}

	var results []ProcInfo
	for _, p := range procs {
		if q.pidSet && p.Pid != q.pid {
			continue
		}
		if q.nameSet && !matchName(p.Name, q.name) {
			continue
		}
		results = append(results, ProcInfo{Pid: p.Pid, Ppid: p.Ppid, Name: p.Name})
	}

	if q.expectSet && len(results) < q.expect {
		return nil, &InsufficientResultsError{Found: len(results), Expected: q.expect}
	}
	return results, nil
}

func matchName(name, substr string) bool {
	if caseInsensitiveNames {
		return strings.Contains(strings.ToLower(name), strings.ToLower(substr))
	}
	return strings.Contains(name, substr)
}

// Children takes a fresh process snapshot and returns the transitive
// descendants of the query's pid, excluding the pid itself. The walk is an
// explicit work list over a parent to children map built in one pass, with
// a visited set so a malformed snapshot in which a pid appears as its own
// ancestor still terminates.
func (q ProcQuery) Children() (ChildSet, error) {
	if !q.pidSet {
		return nil, &ConfigError{Reason: "unable to resolve a pid for the child walk"}
	}

	procs, err := q.source().Processes()
	if err != nil {
		return nil, err
	}

	children := make(map[Pid][]ProcessRecord, len(procs))
	found := false
	for _, p := range procs {
		if p.Pid == q.pid {
			found = true
		}
		if p.Ppid == p.Pid {
			continue // session leaders report themselves as parent
		}
		children[p.Ppid] = append(children[p.Ppid], p)
	}
	if !found {
		return nil, &ProcessNotFoundError{Pid: q.pid}
	}

	set := ChildSet{}
	visited := map[Pid]bool{q.pid: true}
	queue := []Pid{q.pid}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, c := range children[pid] {
			if visited[c.Pid] {
				continue
			}
			visited[c.Pid] = true
			set[c.Pid] = ProcInfo{Pid: c.Pid, Ppid: c.Ppid, Name: c.Name}
			queue = append(queue, c.Pid)
		}
	}

	if q.expectSet && len(set) < q.expect {
		return nil, &InsufficientResultsError{Found: len(set), Expected: q.expect}
	}
	return set, nil
}

// ListProcessesWithRetry runs ListProcesses under a retry policy, blocking
// the calling goroutine between attempts.
func (q ProcQuery) ListProcessesWithRetry(policy RetryPolicy) ([]ProcInfo, error) {
	return retry(policy, q.ListProcesses)
}

// ListProcessesWithRetryContext runs ListProcesses under a retry policy,
// suspending on ctx between attempts.
func (q ProcQuery) ListProcessesWithRetryContext(ctx context.Context, policy RetryPolicy) ([]ProcInfo, error) {
	return retryContext(ctx, policy, q.ListProcesses)
}

// ChildrenWithRetry runs Children under a retry policy, blocking the
// calling goroutine between attempts.
func (q ProcQuery) ChildrenWithRetry(policy RetryPolicy) (ChildSet, error) {
	return retry(policy, q.Children)
}

// ChildrenWithRetryContext runs Children under a retry policy, suspending
// on ctx between attempts. Cancellation during a wait aborts the loop
// without invoking the next attempt and returns the context's error.
func (q ProcQuery) ChildrenWithRetryContext(ctx context.Context, policy RetryPolicy) (ChildSet, error) {
	return retryContext(ctx, policy, q.Children)
}
