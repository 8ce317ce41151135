package maintenance

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// spoolLock is an advisory flock guarding a spool directory against
// concurrent managers. The kernel releases the lock when the holding
// process exits, so a crashed agent never leaves a stale lock behind.
type spoolLock struct {
	path string
	file *os.File
}

// acquireSpoolLock takes an exclusive non-blocking lock on the given
// lock file. It fails immediately when another process holds the lock.
func acquireSpoolLock(path string) (*spoolLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool lock: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("maintenance spool is locked by another process (lock file %s)", path)
	}

	// Record the holder pid
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	return &spoolLock{path: path, file: f}, nil
}

// Release drops the lock. Safe to call on a nil lock.
func (l *spoolLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("failed to release spool lock: %w", unlockErr)
	}
	return closeErr
}
