// Copyright © 2024 The Procq Project.

package procq

import (
	"encoding/hex"
	"net"
	"strconv"
	"strings"
)

// parseProcNetSocket parses one row of a /proc/net/{tcp,tcp6,udp,udp6}
// table. Only listening TCP rows (state 0A) and bound UDP rows are
// reported. The returned inode keys the owning process lookup.
func parseProcNetSocket(line string, proto Protocol, version IPVersion) (rec SocketRecord, inode string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 10 || !strings.HasSuffix(fields[0], ":") {
		return rec, "", false // header row
	}
	if proto == TCP && fields[3] != "0A" {
		return rec, "", false
	}

	localAddr, localPort, ok := parseHexSocketAddr(fields[1], version == IPv6)
	if !ok {
		return rec, "", false
	}
	remoteAddr, remotePort, _ := parseHexSocketAddr(fields[2], version == IPv6)
	if remotePort == 0 {
		remoteAddr = ""
	}

	return SocketRecord{
		Protocol:   proto,
		Version:    version,
		LocalAddr:  localAddr,
		LocalPort:  localPort,
		RemoteAddr: remoteAddr,
		RemotePort: remotePort,
	}, fields[9], true
}

// parseHexSocketAddr decodes a procfs socket address such as
// "0100007F:1F90". IPv4 addresses are one little endian 32 bit group;
// IPv6 addresses are four.
func parseHexSocketAddr(s string, v6 bool) (string, Port, bool) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", 0, false
	}
	port, err := strconv.ParseUint(s[i+1:], 16, 16)
	if err != nil {
		return "", 0, false
	}
	b, err := hex.DecodeString(s[:i])
	if err != nil {
		return "", 0, false
	}

	switch {
	case !v6 && len(b) == 4:
		return net.IPv4(b[3], b[2], b[1], b[0]).String(), Port(port), true
	case v6 && len(b) == 16:
		ip := make(net.IP, 16)
		for g := 0; g < 4; g++ {
			ip[g*4+0] = b[g*4+3]
			ip[g*4+1] = b[g*4+2]
			ip[g*4+2] = b[g*4+1]
			ip[g*4+3] = b[g*4+0]
		}
		return ip.String(), Port(port), true
	}
	return "", 0, false
}

// parseLsofSockets parses `lsof -F pcPn` field output: p pid, c command,
// and n address lines, the p and c values carrying forward over the
// process's n lines.
func parseLsofSockets(out []byte, proto Protocol, version IPVersion) []SocketRecord {
	var recs []SocketRecord
	var pid Pid
	var process string
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case 'p':
			if n, err := strconv.Atoi(line[1:]); err == nil {
				pid = Pid(n)
			}
		case 'c':
			process = line[1:]
		case 'n':
			addr := line[1:]
			if i := strings.Index(addr, "->"); i >= 0 {
				addr = addr[:i]
			}
			host, port := parseAddrPort(addr)
			if port == 0 {
				continue
			}
			recs = append(recs, SocketRecord{
				Protocol:  proto,
				Version:   version,
				LocalAddr: host,
				LocalPort: port,
				Pid:       pid,
				Process:   process,
			})
		}
	}
	return recs
}

// parseAddrPort splits "127.0.0.1:8080", "[::1]:8080", or "*:8080" forms.
// A wildcard host returns as the empty string.
func parseAddrPort(addr string) (string, Port) {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "[") {
		if i := strings.LastIndex(addr, "]:"); i > 0 {
			return addr[1:i], parsePort(addr[i+2:])
		}
		return "", 0
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr, 0
	}
	host := addr[:i]
	if host == "*" {
		host = ""
	}
	return host, parsePort(addr[i+1:])
}

func parsePort(s string) Port {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0
	}
	return Port(n)
}

// parsePsProcesses parses `ps -axo pid=,ppid=,comm=` output. The comm
// field may be a path and may contain spaces.
func parsePsProcesses(out []byte) []ProcessRecord {
	var recs []ProcessRecord
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		comm := strings.Join(fields[2:], " ")
		if i := strings.LastIndexByte(comm, '/'); i >= 0 {
			comm = comm[i+1:]
		}
		recs = append(recs, ProcessRecord{Pid: Pid(pid), Ppid: Pid(ppid), Name: comm})
	}
	return recs
}
