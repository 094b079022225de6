// Package main provides the msd-sim service and its helper commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch mode := os.Args[1]; mode {
	case "serve":
		err = runServe(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	case "list":
		err = listCatalogue(os.Stdout)
	case "config":
		err = runConfig(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`msd-sim - machine state simulator

Usage:
  msd-sim <mode> [flags]

Modes:
  serve   Run the service: control surface, simulation and event bus
  send    Publish the initial snapshot of one or every scenario, then exit
  list    List scenarios, their fields and the action catalogue
  config  Print the effective configuration as YAML

Flags:
  --config     Configuration file, YAML or JSON (default: built-in defaults)
  --scenario   Scenario for send mode (default: every scenario)

Environment Variables:
  MSD_*                         Override any configuration field
  NATS_URL                      Event bus URL
  OTEL_EXPORTER_OTLP_ENDPOINT   OTLP endpoint for self-telemetry

Examples:
  msd-sim serve --config conf/msd.yaml
  msd-sim send --scenario mbb
  msd-sim list`)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	path := fs.String("config", "", "Configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	return a.run(ctx)
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	path := fs.String("config", "", "Configuration file")
	name := fs.String("scenario", "", "Scenario name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return sendSnapshots(ctx, cfg, *name, os.Stdout)
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	path := fs.String("config", "", "Configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}

	return printConfig(os.Stdout, cfg)
}
