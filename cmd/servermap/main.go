// Package main provides the entry point for the servermap CLI tool.
package main

import (
	"context"
	"os"

	"github.com/servermap/servermap/cmd/servermap/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		app.ExitOnError(err)
	}

	// Cancelled on SIGINT/SIGTERM so long crawls stop cleanly.
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
