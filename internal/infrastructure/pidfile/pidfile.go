package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when a live process owns the file
type ErrAlreadyRunning struct {
	PID int
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("reliefops is already running (PID %d)", e.PID)
}

// PIDFile keeps a single serve instance per PID file path
type PIDFile struct {
	path string
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the file location
func (p *PIDFile) Path() string {
	return p.path
}

// Owner returns the PID recorded in the file if that process is alive
func (p *PIDFile) Owner() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, isProcessRunning(pid)
}

// Acquire writes the current PID. A stale or unreadable file is replaced;
// a file owned by a live process yields *ErrAlreadyRunning.
func (p *PIDFile) Acquire() error {
	if pid, alive := p.Owner(); alive && pid != os.Getpid() {
		return &ErrAlreadyRunning{PID: pid}
	}
	_ = os.Remove(p.path)

	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// TakeOver asks the current owner to stop (SIGTERM), waits up to timeout for it
// to exit, then acquires the file
func (p *PIDFile) TakeOver(timeout time.Duration) error {
	pid, alive := p.Owner()
	if alive && pid != os.Getpid() {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("failed to stop PID %d: %w", pid, err)
		}
		deadline := time.Now().Add(timeout)
		for isProcessRunning(pid) {
			if time.Now().After(deadline) {
				return &ErrAlreadyRunning{PID: pid}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	return p.Acquire()
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// isProcessRunning checks the process with signal 0
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// exists, owned by someone else
		return true
	default:
		return false
	}
}
