package state

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

const (
	// DaemonEnvVar marks the re-executed background server
	DaemonEnvVar = "_LOGVIEW_DAEMON"

	// LogFileName is the server log of a detached server
	LogFileName = "logview.log"
)

// IsDaemonChild returns true if this process is a detached server
func IsDaemonChild() bool {
	return os.Getenv(DaemonEnvVar) == "1"
}

// Daemonize re-executes the current binary with the same arguments in
// a new session, detached from the terminal, and returns the child PID.
// The caller (the parent) is expected to exit.
func Daemonize(dir string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("getting executable path: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), DaemonEnvVar+"=1")
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	// The child logs to its own file, see OpenLog
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting background server: %w", err)
	}
	pid := cmd.Process.Pid

	// Not waiting on the child; it outlives us
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("releasing background server: %w", err)
	}
	return pid, nil
}

// LogPath returns the path to the detached server's log file
func LogPath(dir string) string {
	return filepath.Join(Dir(dir), LogFileName)
}

// OpenLog opens the detached server's log file for appending
func OpenLog(dir string) (*os.File, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(LogPath(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Signal sends sig to the server recorded in the state file of dir
func Signal(dir string, sig syscall.Signal) (*State, error) {
	s, err := LoadRunning(dir)
	if err != nil {
		return nil, err
	}
	if err := syscall.Kill(s.PID, sig); err != nil {
		return nil, fmt.Errorf("signaling pid %d: %w", s.PID, err)
	}
	return s, nil
}
