// Package state records where a running logview server can be reached
// so client commands started in the same directory can find it.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DirName is the name of the directory storing runtime state
	DirName = ".logview"
	// FileName is the name of the state file
	FileName = "logview.state"
	// LockFileName is the name of the lock file held while serving
	LockFileName = "logview.lock"
)

var (
	// ErrNotFound is returned when no state file exists
	ErrNotFound = errors.New("state file not found")
	// ErrStale is returned when the state file names a process that has exited
	ErrStale = errors.New("state file is stale")
	// ErrLocked is returned when another server holds the lock
	ErrLocked = errors.New("another logview server is running in this directory")
)

// State describes a running server.
//
// The server writes it once at startup and removes it on shutdown;
// clients only read it.
type State struct {
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"started_at"`
	Input     string    `json:"input"`
}

// BaseURL returns the HTTP address of the server
func (s *State) BaseURL() string {
	host := s.Host
	// A wildcard bind is reachable on loopback
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// Write writes the state file in the given directory
func (s *State) Write(dir string) error {
	if s.PID <= 0 {
		return fmt.Errorf("invalid PID: %d", s.PID)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	if s.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if err := EnsureDir(dir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	f, err := os.OpenFile(Path(dir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing state file: %w", err)
	}
	return nil
}

// Load reads the state file in the given directory
func Load(dir string) (*State, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return &s, nil
}

// LoadRunning reads the state file and checks that its process is
// still alive
func LoadRunning(dir string) (*State, error) {
	s, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if !ProcessExists(s.PID) {
		return nil, fmt.Errorf("%w: pid %d is not running", ErrStale, s.PID)
	}
	return s, nil
}

// Remove removes the state file from the given directory
func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// Dir returns the path to the .logview directory in dir.
// If dir is empty, uses the current working directory.
func Dir(dir string) string {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			// Fall back to relative path rather than creating at root
			return DirName
		}
	}
	return filepath.Join(dir, DirName)
}

// Path returns the full path to the state file
func Path(dir string) string {
	return filepath.Join(Dir(dir), FileName)
}

// LockPath returns the full path to the lock file
func LockPath(dir string) string {
	return filepath.Join(Dir(dir), LockFileName)
}

// EnsureDir creates the .logview directory if it doesn't exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(Dir(dir), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}
