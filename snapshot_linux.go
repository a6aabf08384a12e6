// Copyright © 2024 The Procq Project.

package procq

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// platformSource reads the linux socket and process tables from procfs.
type platformSource struct{}

var socketTables = []struct {
	path    string
	proto   Protocol
	version IPVersion
}{
	{"/proc/net/tcp", TCP, IPv4},
	{"/proc/net/tcp6", TCP, IPv6},
	{"/proc/net/udp", UDP, IPv4},
	{"/proc/net/udp6", UDP, IPv6},
}

func (platformSource) Sockets(protocols Protocol, versions IPVersion) ([]SocketRecord, error) {
	inodes, err := socketInodes()
	if err != nil {
		return nil, err
	}

	var recs []SocketRecord
	for _, t := range socketTables {
		if t.proto&protocols == 0 || t.version&versions == 0 {
			continue
		}
		f, err := os.Open(t.path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // address family not configured
			}
			return nil, &PlatformError{Op: t.path, Err: err}
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			rec, inode, ok := parseProcNetSocket(scanner.Text(), t.proto, t.version)
			if !ok {
				continue
			}
			rec.Pid = inodes[inode]
			recs = append(recs, rec)
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, &PlatformError{Op: t.path, Err: err}
		}
	}
	return recs, nil
}

// socketInodes maps socket inodes to owning pids with one pass over
// /proc/*/fd. Processes whose fd tables are unreadable without privilege
// are skipped; their sockets report pid 0.
func socketInodes() (map[string]Pid, error) {
	dirs, err := os.ReadDir("/proc")
	if err != nil {
		return nil, &PlatformError{Op: "/proc", Err: err}
	}

	inodes := map[string]Pid{}
	for _, d := range dirs {
		pid, err := strconv.Atoi(d.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join("/proc", d.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if strings.HasPrefix(link, "socket:[") && strings.HasSuffix(link, "]") {
				inodes[link[8:len(link)-1]] = Pid(pid)
			}
		}
	}
	return inodes, nil
}

func (platformSource) Processes() ([]ProcessRecord, error) {
	dir, err := os.Open("/proc")
	if err != nil {
		return nil, &PlatformError{Op: "/proc", Err: err}
	}
	names, err := dir.Readdirnames(0)
	dir.Close()
	if err != nil {
		return nil, &PlatformError{Op: "/proc", Err: err}
	}

	recs := make([]ProcessRecord, 0, len(names))
	for _, name := range names {
		pid, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		rec, err := statProcess(Pid(pid))
		if err != nil {
			continue // exited between the readdir and the stat read
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// statProcess reads pid, ppid, and name from /proc/<pid>/stat. The comm
// field is parenthesized and may itself contain spaces and parentheses.
func statProcess(pid Pid) (ProcessRecord, error) {
	buf, err := os.ReadFile(filepath.Join("/proc", pid.String(), "stat"))
	if err != nil {
		return ProcessRecord{}, err
	}
	s := string(buf)
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < open {
		return ProcessRecord{}, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(s[close+1:])
	if len(fields) < 2 {
		return ProcessRecord{}, fmt.Errorf("malformed stat for pid %d", pid)
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return ProcessRecord{}, err
	}
	return ProcessRecord{Pid: pid, Ppid: Pid(ppid), Name: s[open+1 : close]}, nil
}
