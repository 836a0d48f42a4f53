package playbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	p := newTestPlaybook()
	p.Add(Bullet{Content: "validate inputs before use", Kind: KindStrategy, Section: "strategies",
		Metadata: map[string]string{"source": "reflection"}})
	p.Add(Bullet{Content: "nil map writes panic", Kind: KindErrorPattern, Section: "error_patterns"})
	p.AdjustCounters(p.All()[0].ID, 3, 1)

	data, err := p.MarshalSnapshot()
	require.NoError(t, err)

	restored, err := LoadSnapshot(data)
	require.NoError(t, err)
	checkInvariants(t, restored)

	assert.Equal(t, p.All(), restored.All())
	assert.Equal(t, p.Sections(), restored.Sections())
}

func TestSnapshotDeterministic(t *testing.T) {
	p := newTestPlaybook()
	p.Add(Bullet{Content: "first", Kind: KindInsight})
	p.Add(Bullet{Content: "second", Kind: KindStrategy, Section: "strategies"})

	first, err := p.MarshalSnapshot()
	require.NoError(t, err)

	restored, err := LoadSnapshot(first)
	require.NoError(t, err)

	second, err := restored.MarshalSnapshot()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestLoadSnapshotRejectsDuplicateIDs(t *testing.T) {
	now := time.Now().UTC()
	snap := Snapshot{
		Bullets: []Bullet{
			{ID: "b-1", Content: "one", Kind: KindInsight, Section: "general_insights", CreatedAt: now, UpdatedAt: now},
			{ID: "b-1", Content: "two", Kind: KindInsight, Section: "general_insights", CreatedAt: now, UpdatedAt: now},
		},
	}
	_, err := FromSnapshot(snap)
	assert.Error(t, err)
}

func TestLoadSnapshotRejectsEmptyID(t *testing.T) {
	now := time.Now().UTC()
	snap := Snapshot{
		Bullets: []Bullet{{Content: "no id", Kind: KindInsight, Section: "general_insights", CreatedAt: now, UpdatedAt: now}},
	}
	_, err := FromSnapshot(snap)
	assert.Error(t, err)
}

func TestLoadSnapshotInvalidJSON(t *testing.T) {
	_, err := LoadSnapshot([]byte("{not json"))
	assert.Error(t, err)
}

func TestLoadSnapshotEmptyDocument(t *testing.T) {
	p, err := LoadSnapshot([]byte(`{"bullets":[],"sections":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}
