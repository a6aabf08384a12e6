// Copyright © 2024 The Procq Project.

/*
procq answers which process owns a network port and what a process has
spawned.

	procq ports [-tcp|-udp] [-4|-6] [-pid n] [-port n] [-min n] [-retry n] [-delay d] [-o yaml|json]
	procq procs [-pid n] [-name s] [-min n] [-retry n] [-delay d] [-o yaml|json]
	procq children -pid n [-min n] [-retry n] [-delay d] [-o yaml|json]
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/procq/procq"
	"github.com/procq/procq/core"
)

var outputs = core.ValidValue[string]{}.Define("yaml", "json")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "ports":
		err = ports(os.Args[2:])
	case "procs":
		err = procs(os.Args[2:])
	case "children":
		err = children(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		core.LogError(err)
	}
	os.Exit(core.ExitCode())
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: procq ports|procs|children [flags]")
}

// common holds the flags shared by every subcommand.
type common struct {
	min     *int
	retries *int
	delay   *time.Duration
	output  *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		min:     fs.Int("min", -1, "minimum acceptable result count, -1 for no expectation"),
		retries: fs.Int("retry", 1, "total attempts, including the first"),
		delay:   fs.Duration("delay", 100*time.Millisecond, "delay between attempts"),
		output:  fs.String("o", "yaml", "output format, one of yaml|json"),
	}
}

func (c common) policy() procq.RetryPolicy {
	return procq.RetryPolicy{Attempts: *c.retries, Delay: *c.delay}
}

func (c common) validate() error {
	if !outputs.IsValid(*c.output) {
		return fmt.Errorf("invalid output format %q, expected one of %v", *c.output, outputs.ValidValues())
	}
	return nil
}

func ports(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ExitOnError)
	tcp := fs.Bool("tcp", false, "TCP sockets only")
	udp := fs.Bool("udp", false, "UDP sockets only")
	v4 := fs.Bool("4", false, "IPv4 sockets only")
	v6 := fs.Bool("6", false, "IPv6 sockets only")
	pid := fs.Int("pid", 0, "owning process id")
	port := fs.Int("port", 0, "local port number")
	c := commonFlags(fs)
	fs.Parse(args)
	if err := c.validate(); err != nil {
		return err
	}

	q := procq.NewPortQuery()
	if *tcp {
		q = q.TCPOnly()
	}
	if *udp {
		q = q.UDPOnly()
	}
	if *v4 {
		q = q.IPv4Only()
	}
	if *v6 {
		q = q.IPv6Only()
	}
	if *pid != 0 {
		q = q.Pid(procq.Pid(*pid))
	}
	if *port != 0 {
		q = q.LocalPort(procq.Port(*port))
	}
	if *c.min >= 0 {
		q = q.ExpectMinResults(*c.min)
	}

	results, err := q.ExecuteWithRetry(c.policy())
	if err != nil {
		return err
	}
	return encode(*c.output, results)
}

func procs(args []string) error {
	fs := flag.NewFlagSet("procs", flag.ExitOnError)
	pid := fs.Int("pid", 0, "process id, matched exactly")
	name := fs.String("name", "", "process name substring")
	c := commonFlags(fs)
	fs.Parse(args)
	if err := c.validate(); err != nil {
		return err
	}

	q := procq.NewProcQuery()
	if *pid != 0 {
		q = q.Pid(procq.Pid(*pid))
	}
	if *name != "" {
		q = q.Name(*name)
	}
	if *c.min >= 0 {
		q = q.ExpectMinResults(*c.min)
	}

	results, err := q.ListProcessesWithRetry(c.policy())
	if err != nil {
		return err
	}
	return encode(*c.output, results)
}

func children(args []string) error {
	fs := flag.NewFlagSet("children", flag.ExitOnError)
	pid := fs.Int("pid", 0, "root process id")
	c := commonFlags(fs)
	fs.Parse(args)
	if err := c.validate(); err != nil {
		return err
	}
	if *pid == 0 {
		return fmt.Errorf("children requires -pid")
	}

	q := procq.NewProcQuery().Pid(procq.Pid(*pid))
	if *c.min >= 0 {
		q = q.ExpectMinResults(*c.min)
	}

	results, err := q.ChildrenWithRetry(c.policy())
	if err != nil {
		return err
	}
	return encode(*c.output, results)
}

func encode(format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	}
}
