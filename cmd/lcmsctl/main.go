// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command lcmsctl is a command line client for the lcms API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/olegiv/lcms-go/internal/client"
)

const defaultServer = "http://localhost:5000"

// Version information - injected at build time via ldflags
var appVersion = "dev"

var errUsage = errors.New("usage")

// command is one lcmsctl subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"lessons", "List lessons", runLessons},
	{"lesson", "Show a lesson: lesson <slug>", runLesson},
	{"quiz", "Submit quiz answers: quiz <slug> <anchor> <question>=<option>...", runQuiz},
	{"contact", "Submit the contact form", runContact},
	{"login", "Log in and print a token for LCMS_TOKEN", runLogin},
	{"profile", "Show the logged-in admin", runProfile},
	{"passwd", "Change the admin password", runPasswd},
	{"stats", "Show dashboard counters", runStats},
	{"contacts", "List contact submissions", runContacts},
	{"reply", "Update a contact: reply [-status s] [-notes n] <id>", runReply},
	{"jobs", "List background jobs", runJobs},
	{"run-job", "Run a background job now: run-job <name>", runJob},
}

// app is the state shared by subcommands.
type app struct {
	api *client.Client
	out io.Writer
}

func usage() {
	w := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(w, "lcmsctl - command line client for the lcms API\n\n")
	_, _ = fmt.Fprintf(w, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
	_, _ = fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		_, _ = fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	_, _ = fmt.Fprintf(w, "\nOptions:\n")
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(w, "\nEnvironment Variables:\n")
	_, _ = fmt.Fprintf(w, "  LCMS_API_URL    Server base URL (default: %s)\n", defaultServer)
	_, _ = fmt.Fprintf(w, "  LCMS_TOKEN      Admin bearer token from 'lcmsctl login'\n")
}

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("LCMS_API_URL", defaultServer), "Server base URL")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("lcmsctl %s\n", appVersion)
		return
	}
	if *noColor {
		color.NoColor = true
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, *server, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, server, name string, args []string) error {
	api, err := client.New(server,
		client.WithCredentials(client.NewCredentials(os.Getenv("LCMS_TOKEN"))),
		client.WithUserAgent("lcmsctl/"+appVersion),
	)
	if err != nil {
		return err
	}

	a := &app{api: api, out: color.Output}
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, a, args)
		}
	}
	return fmt.Errorf("unknown command %q: %w", name, errUsage)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
