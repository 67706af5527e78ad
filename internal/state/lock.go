package state

import (
	"fmt"
	"os"
	"syscall"
)

// Lock is an exclusive advisory lock on the lock file, held for the
// lifetime of a server. The lock file holds the server PID.
type Lock struct {
	path string
	file *os.File
}

// Acquire creates and locks the lock file in dir.
// Returns ErrLocked if another process holds the lock.
func Acquire(dir string) (*Lock, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	path := LockPath(dir)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	// Non-blocking exclusive lock
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	if err := f.Truncate(0); err != nil {
		unlockAndClose(f)
		return nil, fmt.Errorf("truncating lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		unlockAndClose(f)
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return &Lock{path: path, file: f}, nil
}

// Release unlocks and removes the lock file. It is safe to call more
// than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockAndClose(l.file)
	l.file = nil

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

func unlockAndClose(f *os.File) {
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	_ = f.Close()
}

// ProcessExists checks if a process with the given PID exists
func ProcessExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so send signal 0 to check.
	// EPERM means the process exists but belongs to someone else.
	err = process.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
