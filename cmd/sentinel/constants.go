package main

import "time"

// Default limits for CLI commands.
const (
	DefaultHistoryLimit = 10
	ShutdownTimeout     = 10 * time.Second
	ReadHeaderTimeout   = 10 * time.Second
)
