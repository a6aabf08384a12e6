// Copyright © 2024 The Procq Project.

package procq

import (
	"net"
	"unsafe"

	"github.com/StackExchange/wmi"

	"golang.org/x/sys/windows"
)

// platformSource reads the iphlpapi owner pid tables, which carry socket
// ownership directly, and the WMI process table.
type platformSource struct{}

var (
	iphlpapi            = windows.NewLazySystemDLL("iphlpapi.dll")
	getExtendedTCPTable = iphlpapi.NewProc("GetExtendedTcpTable").Call
	getExtendedUDPTable = iphlpapi.NewProc("GetExtendedUdpTable").Call
)

const (
	tcpTableOwnerPidListener = 3 // TCP_TABLE_OWNER_PID_LISTENER
	udpTableOwnerPid         = 1 // UDP_TABLE_OWNER_PID
)

type (
	// MIB_TCPROW_OWNER_PID
	mibTCPRowOwnerPid struct {
		State      uint32
		LocalAddr  uint32
		LocalPort  uint32
		RemoteAddr uint32
		RemotePort uint32
		OwningPid  uint32
	}

	// MIB_TCP6ROW_OWNER_PID
	mibTCP6RowOwnerPid struct {
		LocalAddr     [16]byte
		LocalScopeID  uint32
		LocalPort     uint32
		RemoteAddr    [16]byte
		RemoteScopeID uint32
		RemotePort    uint32
		State         uint32
		OwningPid     uint32
	}

	// MIB_UDPROW_OWNER_PID
	mibUDPRowOwnerPid struct {
		LocalAddr uint32
		LocalPort uint32
		OwningPid uint32
	}

	// MIB_UDP6ROW_OWNER_PID
	mibUDP6RowOwnerPid struct {
		LocalAddr    [16]byte
		LocalScopeID uint32
		LocalPort    uint32
		OwningPid    uint32
	}

	// win32Process is a WMI query response for the Win32_Process class.
	// Field names must match the class properties for the wmi package's
	// reflection to populate them.
	win32Process struct {
		Name            string
		ProcessID       uint32
		ParentProcessID uint32
	}
)

func (platformSource) Sockets(protocols Protocol, versions IPVersion) ([]SocketRecord, error) {
	var recs []SocketRecord

	if protocols&TCP != 0 && versions&IPv4 != 0 {
		buf, err := ownerTable(getExtendedTCPTable, "GetExtendedTcpTable", windows.AF_INET, tcpTableOwnerPidListener)
		if err != nil {
			return nil, err
		}
		for _, r := range tableRows[mibTCPRowOwnerPid](buf) {
			recs = append(recs, SocketRecord{
				Protocol:  TCP,
				Version:   IPv4,
				LocalAddr: v4Addr(r.LocalAddr),
				LocalPort: ntohs(r.LocalPort),
				Pid:       Pid(r.OwningPid),
			})
		}
	}
	if protocols&TCP != 0 && versions&IPv6 != 0 {
		buf, err := ownerTable(getExtendedTCPTable, "GetExtendedTcpTable", windows.AF_INET6, tcpTableOwnerPidListener)
		if err != nil {
			return nil, err
		}
		for _, r := range tableRows[mibTCP6RowOwnerPid](buf) {
			recs = append(recs, SocketRecord{
				Protocol:  TCP,
				Version:   IPv6,
				LocalAddr: net.IP(r.LocalAddr[:]).String(),
				LocalPort: ntohs(r.LocalPort),
				Pid:       Pid(r.OwningPid),
			})
		}
	}
	if protocols&UDP != 0 && versions&IPv4 != 0 {
		buf, err := ownerTable(getExtendedUDPTable, "GetExtendedUdpTable", windows.AF_INET, udpTableOwnerPid)
		if err != nil {
			return nil, err
		}
		for _, r := range tableRows[mibUDPRowOwnerPid](buf) {
			recs = append(recs, SocketRecord{
				Protocol:  UDP,
				Version:   IPv4,
				LocalAddr: v4Addr(r.LocalAddr),
				LocalPort: ntohs(r.LocalPort),
				Pid:       Pid(r.OwningPid),
			})
		}
	}
	if protocols&UDP != 0 && versions&IPv6 != 0 {
		buf, err := ownerTable(getExtendedUDPTable, "GetExtendedUdpTable", windows.AF_INET6, udpTableOwnerPid)
		if err != nil {
			return nil, err
		}
		for _, r := range tableRows[mibUDP6RowOwnerPid](buf) {
			recs = append(recs, SocketRecord{
				Protocol:  UDP,
				Version:   IPv6,
				LocalAddr: net.IP(r.LocalAddr[:]).String(),
				LocalPort: ntohs(r.LocalPort),
				Pid:       Pid(r.OwningPid),
			})
		}
	}
	return recs, nil
}

// ownerTable sizes and retrieves one iphlpapi owner pid table. The table
// can grow between the size probe and the retrieval, so retry while the
// call reports an insufficient buffer.
func ownerTable(call func(...uintptr) (uintptr, uintptr, error), op string, family uint16, class uint32) ([]byte, error) {
	var size uint32
	call(0, uintptr(unsafe.Pointer(&size)), 0, uintptr(family), uintptr(class), 0)
	for {
		if size < 4 {
			size = 4
		}
		buf := make([]byte, size)
		rc, _, _ := call(
			uintptr(unsafe.Pointer(&buf[0])),
			uintptr(unsafe.Pointer(&size)),
			0, // unordered
			uintptr(family),
			uintptr(class),
			0,
		)
		switch rc {
		case 0:
			return buf, nil
		case uintptr(windows.ERROR_INSUFFICIENT_BUFFER):
			continue
		default:
			return nil, &PlatformError{Op: op, Err: windows.Errno(rc)}
		}
	}
}

// tableRows reinterprets an owner table buffer: a leading DWORD row count,
// then the rows.
func tableRows[T any](buf []byte) []T {
	if len(buf) < 4 {
		return nil
	}
	n := int(*(*uint32)(unsafe.Pointer(&buf[0])))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[4])), n)
}

// ntohs extracts a port stored in network byte order in the low word of a
// MIB row DWORD.
func ntohs(v uint32) Port {
	return Port(uint16(v)<<8 | uint16(v)>>8)
}

func v4Addr(v uint32) string {
	return net.IPv4(byte(v), byte(v>>8), byte(v>>16), byte(v>>24)).String()
}

func (platformSource) Processes() ([]ProcessRecord, error) {
	var procs []win32Process
	if err := wmi.Query("SELECT Name, ProcessId, ParentProcessId FROM Win32_Process", &procs); err != nil {
		return nil, &PlatformError{Op: "Win32_Process", Err: err}
	}

	recs := make([]ProcessRecord, len(procs))
	for i, p := range procs {
		recs[i] = ProcessRecord{Pid: Pid(p.ProcessID), Ppid: Pid(p.ParentProcessID), Name: p.Name}
	}
	return recs, nil
}
