// Command edgelearn-mcp serves the study archive over MCP stdio, so
// assistants can browse past sessions and study statistics.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/edgelearn/edgelearn/internal/archive"
	"github.com/edgelearn/edgelearn/internal/config"
	"github.com/edgelearn/edgelearn/internal/mcptools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "edgelearn-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	path := archive.PathIn(cfg.DataDir)
	store, err := archive.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	slog.Info("edgelearn-mcp serving", "archive", path)
	return server.ServeStdio(mcptools.NewServer(store))
}
