// Copyright © 2024 The Procq Project.

/*
portbinder binds a loopback port and waits, for exercising port queries.

	portbinder [-udp] [-6] [-port n]

It prints the bound address to stdout and exits when stdin closes or on an
interrupt.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/procq/procq/core"
)

func main() {
	udp := flag.Bool("udp", false, "bind a UDP port instead of TCP")
	v6 := flag.Bool("6", false, "bind the IPv6 loopback instead of IPv4")
	port := flag.Int("port", 0, "port to bind, 0 picks a free one")
	flag.Parse()

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	if *v6 {
		addr = fmt.Sprintf("[::1]:%d", *port)
	}

	if *udp {
		network := "udp4"
		if *v6 {
			network = "udp6"
		}
		conn, err := net.ListenPacket(network, addr)
		if err != nil {
			core.LogError(err)
			os.Exit(core.ExitCode())
		}
		defer conn.Close()
		fmt.Println(conn.LocalAddr())
	} else {
		network := "tcp4"
		if *v6 {
			network = "tcp6"
		}
		l, err := net.Listen(network, addr)
		if err != nil {
			core.LogError(err)
			os.Exit(core.ExitCode())
		}
		defer l.Close()
		fmt.Println(l.Addr())
	}

	wait()
}

// wait blocks until stdin closes or an interrupt arrives.
func wait() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		io.Copy(io.Discard, os.Stdin)
		close(done)
	}()

	select {
	case <-sig:
	case <-done:
	}
}
