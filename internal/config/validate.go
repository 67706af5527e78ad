package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
	"github.com/charliek/logview/internal/parser"
)

var (
	validLogLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration for errors, reporting all of them
func Validate(config *Config) error {
	var errs []string

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 0 and 65535, got %d", config.Server.Port))
	}

	if config.Viewer.MaxMessages < 0 || config.Viewer.MaxMessages > constants.MaxWindow {
		errs = append(errs, fmt.Sprintf("viewer.max_messages: must be between 0 and %d, got %d",
			constants.MaxWindow, config.Viewer.MaxMessages))
	}
	if config.Viewer.LatestSize != nil && *config.Viewer.LatestSize < 0 {
		errs = append(errs, fmt.Sprintf("viewer.latest_size: must be non-negative, got %d", *config.Viewer.LatestSize))
	}
	if config.Viewer.SendBuffer < 0 {
		errs = append(errs, fmt.Sprintf("viewer.send_buffer: must be non-negative, got %d", config.Viewer.SendBuffer))
	}
	for field, value := range map[string]string{
		"viewer.ping_interval": config.Viewer.PingInterval,
		"viewer.write_timeout": config.Viewer.WriteTimeout,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", field, value))
		}
	}

	if config.Parser.Name != "" && !contains(parser.Names(), config.Parser.Name) {
		errs = append(errs, fmt.Sprintf("parser.name: must be one of %v, got %q", parser.Names(), config.Parser.Name))
	}

	if config.Input.File != "" && config.Input.Exec != "" {
		errs = append(errs, "input: file and exec are mutually exclusive")
	}

	if config.Log.Level != "" && !contains(validLogLevels, strings.ToLower(config.Log.Level)) {
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", config.Log.Level))
	}
	if config.Log.Format != "" && !contains(validLogFormats, config.Log.Format) {
		errs = append(errs, fmt.Sprintf("log.format: must be one of %v, got %q", validLogFormats, config.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
