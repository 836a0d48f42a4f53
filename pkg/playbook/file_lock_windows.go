//go:build windows

package playbook

import (
	"os"
)

// File locking constants for Windows (no-op implementation). Cross-process
// locking is not supported here; the mutex provides in-process safety.
const (
	lockShared    = 0
	lockExclusive = 0
)

// acquireFileLock is a no-op on Windows.
func (f *File) acquireFileLock(lockType int) (*os.File, error) {
	return nil, nil
}

// releaseFileLock is a no-op on Windows.
func (f *File) releaseFileLock(lockFile *os.File) {
}
