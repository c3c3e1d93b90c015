package main

import (
	"context"
	"log/slog"

	"github.com/longregen/learn-dspy/internal/config"
	"github.com/longregen/learn-dspy/internal/examples"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Shared global variables
var (
	cfg    *config.Config
	runner *examples.Runner
	logger *slog.Logger
	runID  string

	shutdownTracer func(context.Context) error
)

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// boolStatus returns a status string for a boolean
func boolStatus(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}

// orDefault shows what an empty setting falls back to
func orDefault(s, def string) string {
	if s == "" {
		return def + " (default)"
	}
	return s
}
