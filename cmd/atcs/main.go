// main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Command atcs runs the air-traffic-control simulation core in-process
// and drives it from a line-oriented stdin command loop: start, pause,
// resume, stop, status, list-avns, pay-avn <id> <amount>, query-airline
// <name>, quit. It is the control surface the interactive operator
// terminal (out of scope per spec) would otherwise sit in front of.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atcsim/atcs/sim"
)

var (
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
	duration     = flag.Duration("duration", 0, "simulation duration (default 300s)")
	masterSeed   = flag.Int64("seed", 0, "master RNG seed for a reproducible run")
	autostart    = flag.Bool("autostart", false, "start the simulation immediately instead of waiting for a 'start' command")
	structured   = flag.Bool("json", false, "print 'status' responses as msgpack-encoded hex instead of a human-readable dump")
)

func setupSignalHandler(c *sim.Controller) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "caught signal, stopping simulation...")
		if c.IsRunning() {
			_ = c.Stop()
		}
		os.Exit(0)
	}()
}

func main() {
	flag.Parse()

	cfg := sim.NewConfig()
	cfg.LogLevel = *logLevel
	cfg.LogDir = *logDir
	if *duration > 0 {
		cfg.SimulationDuration = *duration
	}
	cfg.MasterSeed = *masterSeed

	c := sim.New(cfg)
	setupSignalHandler(c)

	if *autostart {
		if err := c.Start(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "atcs: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("simulation started")
	}

	runCommandLoop(c)
}

func runCommandLoop(c *sim.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("atcs ready. commands: start, pause, resume, stop, status, list-avns, pay-avn <id> <amount>, query-airline <name>, quit")

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "start":
			if err := c.Start(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "start: %v\n", err)
				continue
			}
			fmt.Println("simulation started")

		case "pause":
			if err := c.Pause(); err != nil {
				fmt.Fprintf(os.Stderr, "pause: %v\n", err)
				continue
			}
			fmt.Println("paused")

		case "resume":
			if err := c.Resume(); err != nil {
				fmt.Fprintf(os.Stderr, "resume: %v\n", err)
				continue
			}
			fmt.Println("resumed")

		case "stop":
			if err := c.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "stop: %v\n", err)
				continue
			}
			fmt.Println("stopped")

		case "status":
			printStatus(c)

		case "list-avns":
			for _, v := range c.ListAVNs() {
				fmt.Printf("AVN %d %-20s %-10s speed=%.1f bound=[%.0f,%.0f] total=%.2f status=%s due=%s\n",
					v.ID, v.Airline, v.FlightID, v.Speed, v.Min, v.Max, v.Total, v.Status, v.Due.Format(time.RFC3339))
			}

		case "pay-avn":
			if len(fields) != 3 {
				fmt.Fprintln(os.Stderr, "usage: pay-avn <id> <amount>")
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "pay-avn: invalid id %q\n", fields[1])
				continue
			}
			amount, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "pay-avn: invalid amount %q\n", fields[2])
				continue
			}
			if err := c.PayAVN(id, amount); err != nil {
				fmt.Fprintf(os.Stderr, "pay-avn: %v\n", err)
				continue
			}
			fmt.Printf("AVN %d paid\n", id)

		case "query-airline":
			if len(fields) < 2 {
				fmt.Fprintln(os.Stderr, "usage: query-airline <name>")
				continue
			}
			name := strings.Join(fields[1:], " ")
			recs, err := c.QueryAirline(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "query-airline: %v\n", err)
				continue
			}
			for _, v := range recs {
				fmt.Printf("AVN %d %-10s speed=%.1f status=%s\n", v.ID, v.FlightID, v.Speed, v.Status)
			}

		case "quit", "exit":
			if c.IsRunning() {
				_ = c.Stop()
			}
			return

		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", fields[0])
		}
	}
}

func printStatus(c *sim.Controller) {
	status := c.Status()
	if *structured {
		b, err := sim.EncodeStatus(status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			return
		}
		fmt.Printf("%x\n", b)
		return
	}
	fmt.Println(sim.DumpStatus(status))
}
