// Command pagedrop-mcp exposes page capture and submission as MCP tools
// over stdio.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagedrop/capture"
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/submit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	client, err := submit.NewClient(cfg.Submit.Endpoint, nil, submit.WithTimeout(cfg.Submit.Timeout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "endpoint: %v\n", err)
		os.Exit(1)
	}
	router, browser := capture.FromConfig(cfg)
	defer browser.Close()

	s := server.NewMCPServer(
		"pagedrop",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	newTools(router, client).register(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
