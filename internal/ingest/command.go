package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charliek/logview/internal/constants"
)

// CommandSource runs a shell command and ingests its stdout and stderr.
//
// Commands are executed via "sh -c" to support pipes, redirects and
// variable expansion, so they carry the same trust level as a shell
// script.
type CommandSource struct {
	Command string
	Env     map[string]string

	// StopTimeout is how long the process group gets between SIGTERM
	// and SIGKILL on cancel
	StopTimeout time.Duration
}

// Run implements Source. A non-zero exit is returned as an error unless
// ctx was canceled first.
func (s *CommandSource) Run(ctx context.Context, emit func(line string)) error {
	cmd := exec.Command("sh", "-c", s.Command)

	cmd.Env = os.Environ()
	for k, v := range s.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	// Set process group so we can signal all children
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting command: %w", err)
	}

	// Both streams feed the same emit, one line at a time
	var emitMu sync.Mutex
	lockedEmit := func(line string) {
		emitMu.Lock()
		defer emitMu.Unlock()
		emit(line)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		readLines(stdout, lockedEmit)
	}()
	go func() {
		defer wg.Done()
		readLines(stderr, lockedEmit)
	}()

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.stop(cmd, exited)
		case <-exited:
		}
	}()

	// Pipes must be drained before Wait closes them
	wg.Wait()
	err = cmd.Wait()
	close(exited)

	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("command exited: %w", err)
	}
	return nil
}

// stop sends SIGTERM to the process group, then SIGKILL if it has not
// exited within StopTimeout
func (s *CommandSource) stop(cmd *exec.Cmd, exited <-chan struct{}) {
	timeout := s.StopTimeout
	if timeout <= 0 {
		timeout = constants.DefaultShutdownTimeout
	}

	_ = signalGroup(cmd, syscall.SIGTERM)
	select {
	case <-exited:
	case <-time.After(timeout):
		_ = signalGroup(cmd, syscall.SIGKILL)
	}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		// Fall back to signalling just the process
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return cmd.Process.Signal(sig)
	}
	return syscall.Kill(-pgid, sig)
}

// readLines emits every line of r. Read errors end the stream; the
// process exit status is what Run reports.
func readLines(r io.Reader, emit func(line string)) {
	_ = eachLine(r, func(line string) bool {
		emit(line)
		return true
	})
}
