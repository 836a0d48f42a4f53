package ace

import (
	"context"

	"github.com/XiaoConstantine/ace-go/pkg/config"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// Store persists the playbook between sessions.
type Store interface {
	Save(ctx context.Context, pb *playbook.Playbook) error
	Load(ctx context.Context, opts ...playbook.Option) (*playbook.Playbook, error)
	Close() error
}

// fileStore adapts the JSON snapshot file to the Store interface.
type fileStore struct {
	file *playbook.File
}

func (s fileStore) Save(ctx context.Context, pb *playbook.Playbook) error {
	if err := errors.CheckContext(ctx, "file save"); err != nil {
		return err
	}
	return s.file.Save(pb)
}

func (s fileStore) Load(ctx context.Context, opts ...playbook.Option) (*playbook.Playbook, error) {
	if err := errors.CheckContext(ctx, "file load"); err != nil {
		return nil, err
	}
	return s.file.Load(opts...)
}

func (s fileStore) Close() error { return nil }

// NewStoreFromConfig builds the persistence backend the configuration
// names.
func NewStoreFromConfig(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "file":
		return fileStore{file: playbook.NewFile(cfg.Path)}, nil
	case "sqlite":
		return playbook.NewSQLiteStore(cfg.Path)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unknown storage backend"),
			errors.Fields{"backend": cfg.Backend},
		)
	}
}

// SavePlaybook persists the current playbook through the configured
// store.
func (a *ACE) SavePlaybook(ctx context.Context) error {
	if a.store == nil {
		return errors.New(errors.InvalidInput, "no store configured")
	}
	return a.store.Save(ctx, a.pb)
}

// LoadPlaybook replaces the current playbook with the persisted one.
func (a *ACE) LoadPlaybook(ctx context.Context) error {
	if a.store == nil {
		return errors.New(errors.InvalidInput, "no store configured")
	}
	pb, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	a.pb = pb
	return nil
}
