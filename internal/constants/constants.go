// Package constants provides shared configuration values used across the logview application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "logview.yaml"

	// DefaultHost is the default host for the HTTP server
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default port for the HTTP server
	DefaultPort = 8000

	// DefaultAddress is the default address for client connections
	DefaultAddress = "http://127.0.0.1:8000"

	// EnvPrefix prefixes environment variable overrides (LOGVIEW_PORT, ...)
	EnvPrefix = "LOGVIEW_"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single websocket frame write
	DefaultWriteTimeout = 10 * time.Second

	// DefaultPingInterval is how often idle websocket viewers are pinged
	DefaultPingInterval = 30 * time.Second
)

// Viewer windows
const (
	// DefaultMaxMessages is the window size used when a viewer does not ask for one
	DefaultMaxMessages = 100

	// MaxWindow caps the window a viewer may request (DoS protection)
	MaxWindow = 10000

	// DefaultLatestSize is how many trailing matches a static viewer keeps
	DefaultLatestSize = 2

	// MaxFilterLength is the maximum allowed length for viewer filters
	MaxFilterLength = 256
)

// Buffer sizes
const (
	// DefaultSendBuffer is the per-viewer inbox size before the viewer is dropped
	DefaultSendBuffer = 256

	// DefaultRequestBuffer is the per-viewer queue of pending protocol requests
	DefaultRequestBuffer = 8

	// ScannerBufferSize is the read buffer size for log line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the longest line kept; longer lines are truncated
	ScannerMaxBufferSize = 1024 * 1024 // 1MB

	// MaxRequestSize bounds a single client protocol frame
	MaxRequestSize = 64 * 1024
)

// ANSI color codes for terminal output
var (
	// LevelColors maps common log levels to terminal colors
	LevelColors = map[string]string{
		"debug": "\033[36m", // cyan
		"info":  "\033[32m", // green
		"warn":  "\033[33m", // yellow
		"error": "\033[31m", // red
		"fatal": "\033[35m", // magenta
	}

	// ColorReset resets the terminal color
	ColorReset = "\033[0m"

	// ColorDim is used for sequence numbers
	ColorDim = "\033[90m"
)
