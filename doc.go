// Copyright © 2024 The Procq Project.

/*
Package procq answers two questions about the processes running on a host:
which process owns a network port, and what has a process spawned.

Queries are immutable values built by chaining; each chained call returns a
copy, so a query may be shared and specialized freely:

	ports, err := procq.NewPortQuery().
		TCPOnly().
		IPv4Only().
		Pid(pid).
		ExpectMinResults(1).
		ExecuteWithRetry(procq.RetryPolicy{Attempts: 10, Delay: 100 * time.Millisecond})

Every terminal call takes a fresh snapshot of the OS socket or process
table. Nothing is cached or diffed between calls, no background state is
held, and no query mutates process state. Result order follows the
platform's enumeration order and is intentionally unordered; callers that
need determinism sort for themselves.

An unmet ExpectMinResults expectation is the signal for "not yet" conditions
and is what the retry terminals are designed to wait out: a process that has
not bound its port or spawned its children yet fails the expectation, the
policy waits, and the query runs against a new snapshot.
*/
package procq
