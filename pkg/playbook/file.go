package playbook

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// File persists playbook snapshots to a JSON file. A mutex covers in-process
// concurrency; an advisory file lock covers cross-process access on platforms
// that support it. Writes are atomic (temp file + rename).
type File struct {
	Path string
	mu   sync.Mutex
}

// NewFile creates a file handler for the given path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Save writes the playbook snapshot to the file atomically.
func (f *File) Save(p *Playbook) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lockFile, err := f.acquireFileLock(lockExclusive)
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to lock playbook file")
	}
	defer f.releaseFileLock(lockFile)

	data, err := p.MarshalSnapshot()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to create playbook directory")
	}

	tmpPath := f.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to write playbook file")
	}

	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, errors.StorageFailed, "failed to replace playbook file")
	}

	return nil
}

// Load reads a playbook from the file. A missing file yields an empty
// playbook, not an error.
func (f *File) Load(opts ...Option) (*Playbook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lockFile, err := f.acquireFileLock(lockShared)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to lock playbook file")
	}
	defer f.releaseFileLock(lockFile)

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return New(opts...), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to read playbook file")
	}

	return LoadSnapshot(data, opts...)
}

// Exists returns true if the playbook file exists.
func (f *File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}
