package playbook

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "playbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSaveLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := newTestPlaybook()
	p.Add(Bullet{Content: "prefer streaming for large payloads", Kind: KindStrategy, Section: "strategies",
		Metadata: map[string]string{"origin": "offline"}})
	p.Add(Bullet{Content: "compound interest uses exponents", Kind: KindFormula, Section: "formulas_and_calculations"})
	p.AdjustCounters(p.All()[1].ID, 2, 0)

	require.NoError(t, store.Save(ctx, p))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	checkInvariants(t, loaded)
	assert.Equal(t, p.All(), loaded.All())
}

func TestSQLiteLoadEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	p, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestSQLiteSaveReplacesPrevious(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := newTestPlaybook()
	p.Add(Bullet{Content: "stale lesson", Kind: KindInsight})
	require.NoError(t, store.Save(ctx, p))

	fresh := newTestPlaybook()
	fresh.Add(Bullet{Content: "replacement one", Kind: KindInsight})
	fresh.Add(Bullet{Content: "replacement two", Kind: KindInsight})
	require.NoError(t, store.Save(ctx, fresh))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "replacement one", loaded.All()[0].Content)
}

func TestSQLitePreservesInsertionOrder(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := newTestPlaybook()
	for _, content := range []string{"zeta", "alpha", "mid"} {
		p.Add(Bullet{Content: content, Kind: KindInsight})
	}
	require.NoError(t, store.Save(ctx, p))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	var contents []string
	for _, b := range loaded.All() {
		contents = append(contents, b.Content)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, contents)
}
