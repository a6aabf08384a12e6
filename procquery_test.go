// Copyright © 2024 The Procq Project.

package procq

import (
	"errors"
	"testing"
)

func testProcs() []ProcessRecord {
	return []ProcessRecord{
		{Pid: 1, Ppid: 1, Name: "init"},
		{Pid: 100, Ppid: 1, Name: "sshd"},
		{Pid: 200, Ppid: 100, Name: "bash"},
		{Pid: 300, Ppid: 200, Name: "make"},
		{Pid: 400, Ppid: 300, Name: "cc1"},
		{Pid: 500, Ppid: 1, Name: "cron"},
	}
}

func TestListProcessesUnconstrained(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery()
	q.src = src

	results, err := q.ListProcesses()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != len(testProcs()) {
		t.Fatalf("expected every snapshot entry, got %d of %d", len(results), len(testProcs()))
	}
	seen := map[Pid]bool{}
	for _, p := range results {
		if seen[p.Pid] {
			t.Errorf("pid %d returned twice", p.Pid)
		}
		seen[p.Pid] = true
	}
}

func TestListProcessesPidExact(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(200)
	q.src = src

	results, err := q.ListProcesses()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].Name != "bash" {
		t.Fatalf("expected bash, got %+v", results)
	}
}

func TestListProcessesNameSubstring(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Name("sh")
	q.src = src

	results, err := q.ListProcesses()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// "sh" is a substring of both sshd and bash.
	if len(results) != 2 {
		t.Fatalf("expected sshd and bash, got %+v", results)
	}
}

func TestListProcessesNameCaseSensitivity(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Name("SSHD")
	q.src = src

	results, err := q.ListProcesses()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if caseInsensitiveNames {
		if len(results) != 1 {
			t.Fatalf("expected a case folded match, got %+v", results)
		}
	} else if len(results) != 0 {
		t.Fatalf("expected no case folded match, got %+v", results)
	}
}

func TestListProcessesExpectationUnderflow(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Name("no-such-process").ExpectMinResults(2)
	q.src = src

	_, err := q.ListProcesses()
	var insufficient *InsufficientResultsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientResultsError, got %v", err)
	}
	if insufficient.Found != 0 || insufficient.Expected != 2 {
		t.Fatalf("expected found 0 expected 2, got %+v", insufficient)
	}
}

func TestChildrenTransitive(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(100)
	q.src = src

	set, err := q.Children()
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	for _, pid := range []Pid{200, 300, 400} {
		if _, ok := set[pid]; !ok {
			t.Errorf("descendant %d missing from child set", pid)
		}
	}
	if len(set) != 3 {
		t.Fatalf("expected 3 descendants, got %d", len(set))
	}
	if _, ok := set[100]; ok {
		t.Errorf("child set must not include the root")
	}

	// Every member's ancestor chain reaches the root within the snapshot.
	parents := map[Pid]Pid{}
	for _, p := range testProcs() {
		parents[p.Pid] = p.Ppid
	}
	for pid := range set {
		hops := 0
		for p := pid; p != 100; p = parents[p] {
			if hops++; hops > len(testProcs()) {
				t.Fatalf("pid %d does not reach the root", pid)
			}
		}
	}
}

func TestChildrenLeafIsEmpty(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(500)
	q.src = src

	set, err := q.Children()
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected no descendants, got %+v", set)
	}
}

func TestChildrenRootMissing(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(999)
	q.src = src

	_, err := q.Children()
	var notFound *ProcessNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProcessNotFoundError, got %v", err)
	}
	if notFound.Pid != 999 {
		t.Fatalf("expected pid 999 in error, got %d", notFound.Pid)
	}
}

func TestChildrenTerminatesOnCyclicSnapshot(t *testing.T) {
	src := &fakeSource{procs: []ProcessRecord{
		{Pid: 100, Ppid: 101, Name: "a"},
		{Pid: 101, Ppid: 100, Name: "b"},
	}}
	q := NewProcQuery().Pid(100)
	q.src = src

	set, err := q.Children()
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected the cycle to yield one bounded descendant, got %+v", set)
	}
	if _, ok := set[101]; !ok {
		t.Fatalf("expected pid 101 in child set, got %+v", set)
	}
}

func TestChildrenIgnoresSelfParentedLeaders(t *testing.T) {
	// Session leaders report themselves as parent; pid 1 must not become
	// its own descendant.
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(1)
	q.src = src

	set, err := q.Children()
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if _, ok := set[1]; ok {
		t.Errorf("pid 1 appears as its own descendant")
	}
	if len(set) != 5 {
		t.Fatalf("expected all 5 other processes, got %d", len(set))
	}
}

func TestChildrenWithoutPidIsConfigError(t *testing.T) {
	q := NewProcQuery()
	q.src = &fakeSource{procs: testProcs()}

	_, err := q.Children()
	var config *ConfigError
	if !errors.As(err, &config) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestChildrenExpectationUnderflow(t *testing.T) {
	src := &fakeSource{procs: testProcs()}
	q := NewProcQuery().Pid(500).ExpectMinResults(1)
	q.src = src

	_, err := q.Children()
	var insufficient *InsufficientResultsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientResultsError, got %v", err)
	}
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("zero-found underflow should match ErrNoResults")
	}
}
