package curator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newFixturePlaybook() *playbook.Playbook {
	var n int
	return playbook.New(
		playbook.WithClock(func() time.Time { return testTime }),
		playbook.WithIDFunc(func() string {
			n++
			return fmt.Sprintf("bullet-%04d", n)
		}),
	)
}

func newFixtureEngine(config Config) *Engine {
	return NewEngine(config, WithClock(func() time.Time { return testTime }))
}

func TestApplyAddToEmptyStore(t *testing.T) {
	pb := newFixturePlaybook()
	engine := newFixtureEngine(DefaultConfig())

	summary := engine.Apply(context.Background(), pb, []Op{
		AddOp{Section: "strategies", Content: "Use memoization", Kind: playbook.KindStrategy},
	})

	assert.Equal(t, 1, summary.Added)
	require.Equal(t, 1, pb.Len())

	bullets := pb.BySection("strategies")
	require.Len(t, bullets, 1)
	assert.Equal(t, "Use memoization", bullets[0].Content)
	assert.Equal(t, playbook.TagNeutral, bullets[0].Tag())
}

func TestApplyAdjustFlipsTag(t *testing.T) {
	pb := newFixturePlaybook()
	id := pb.Add(playbook.Bullet{Content: "prefer table driven tests", Kind: playbook.KindStrategy})

	engine := newFixtureEngine(DefaultConfig())
	summary := engine.Apply(context.Background(), pb, []Op{
		AdjustOp{BulletID: id, HelpfulDelta: 5, HarmfulDelta: 1},
	})

	assert.Equal(t, 1, summary.Adjusted)
	b, ok := pb.Get(id)
	require.True(t, ok)
	assert.Equal(t, 5, b.HelpfulCount)
	assert.Equal(t, 1, b.HarmfulCount)
	assert.Equal(t, playbook.TagHelpful, b.Tag())
}

func TestApplyAdjustUnknownIDIsNoOp(t *testing.T) {
	pb := newFixturePlaybook()
	engine := newFixtureEngine(DefaultConfig())

	summary := engine.Apply(context.Background(), pb, []Op{
		AdjustOp{BulletID: "no-such-bullet", HelpfulDelta: 1},
		RemoveOp{BulletID: "no-such-bullet"},
	})

	assert.Equal(t, 0, summary.Adjusted)
	assert.Equal(t, 0, summary.Removed)
}

func TestApplySkipsMalformedOps(t *testing.T) {
	pb := newFixturePlaybook()
	engine := newFixtureEngine(DefaultConfig())

	summary := engine.Apply(context.Background(), pb, []Op{
		AddOp{Content: ""},
		AddOp{Content: "valid insight", Kind: playbook.Kind("mystery")},
		AddOp{Content: "kept insight"},
	})

	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, pb.Len())
}

func TestApplyDeduplicatesPunctuationVariants(t *testing.T) {
	pb := newFixturePlaybook()
	engine := newFixtureEngine(DefaultConfig())

	summary := engine.Apply(context.Background(), pb, []Op{
		AddOp{Section: "error_patterns", Content: "Check for off-by-one errors", Kind: playbook.KindErrorPattern},
		AddOp{Section: "error_patterns", Content: "check for off by one errors.", Kind: playbook.KindErrorPattern},
	})

	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 1, summary.Deduped)
	require.Equal(t, 1, pb.Len())
	// First seen wins.
	assert.Equal(t, "Check for off-by-one errors", pb.All()[0].Content)
}

func TestDedupIsIdempotent(t *testing.T) {
	pb := newFixturePlaybook()
	engine := newFixtureEngine(DefaultConfig())

	ops := []Op{
		AddOp{Content: "always validate user input before parsing"},
		AddOp{Content: "always validate user input before parsing it"},
		AddOp{Content: "profile before optimizing hot paths"},
	}
	engine.Apply(context.Background(), pb, ops)
	first := pb.All()

	// A second pass over the already-deduplicated store changes nothing.
	summary := engine.Apply(context.Background(), pb, nil)
	assert.Equal(t, 0, summary.Deduped)
	assert.Equal(t, first, pb.All())
}

func TestApplyIsDeterministic(t *testing.T) {
	ops := []Op{
		AddOp{Section: "strategies", Content: "decompose the task before solving", Kind: playbook.KindStrategy},
		AddOp{Section: "error_patterns", Content: "watch for integer overflow", Kind: playbook.KindErrorPattern},
		AdjustOp{BulletID: "bullet-0001", HelpfulDelta: 2},
		AddOp{Content: "decompose the task before solving it", Kind: playbook.KindStrategy},
	}

	run := func() []byte {
		pb := newFixturePlaybook()
		newFixtureEngine(DefaultConfig()).Apply(context.Background(), pb, ops)
		data, err := pb.MarshalSnapshot()
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, string(run()), string(run()))
}

func TestEvictionBoundary(t *testing.T) {
	config := Config{MaxBullets: 5, SimilarityThreshold: 0.8}
	pb := newFixturePlaybook()
	engine := newFixtureEngine(config)

	var ops []Op
	for i := 0; i < 6; i++ {
		ops = append(ops, AddOp{Content: fmt.Sprintf("distinct lesson number %d", i)})
	}
	summary := engine.Apply(context.Background(), pb, ops)

	assert.Equal(t, 1, summary.Evicted)
	require.Equal(t, 5, pb.Len())

	// Equal scores: the stable sort keeps earlier bullets, so the
	// last-inserted bullet is the one dropped.
	var contents []string
	for _, b := range pb.All() {
		contents = append(contents, b.Content)
	}
	assert.NotContains(t, contents, "distinct lesson number 5")
	assert.Contains(t, contents, "distinct lesson number 0")
}

func TestEvictionKeepsHighScoredBullets(t *testing.T) {
	config := Config{MaxBullets: 2, SimilarityThreshold: 0.8}
	pb := newFixturePlaybook()

	weak := pb.Add(playbook.Bullet{Content: "rarely useful remark", Kind: playbook.KindInsight})
	strong := pb.Add(playbook.Bullet{Content: "battle tested approach", Kind: playbook.KindStrategy})
	harmful := pb.Add(playbook.Bullet{Content: "misleading shortcut", Kind: playbook.KindInsight})
	pb.AdjustCounters(strong, 4, 0)
	pb.AdjustCounters(harmful, 0, 3)

	engine := newFixtureEngine(config)
	summary := engine.Apply(context.Background(), pb, nil)

	assert.Equal(t, 1, summary.Evicted)
	_, ok := pb.Get(harmful)
	assert.False(t, ok)
	_, ok = pb.Get(strong)
	assert.True(t, ok)
	_, ok = pb.Get(weak)
	assert.True(t, ok)
}

func TestEvictionRecencyBreaksTies(t *testing.T) {
	config := Config{MaxBullets: 1, SimilarityThreshold: 0.8}

	var n int
	clock := testTime
	pb := playbook.New(
		playbook.WithClock(func() time.Time { return clock }),
		playbook.WithIDFunc(func() string {
			n++
			return fmt.Sprintf("bullet-%04d", n)
		}),
	)

	// Same integer score, created two years apart: only the old bullet
	// has lost its recency bonus.
	clock = testTime.AddDate(-2, 0, 0)
	old := pb.Add(playbook.Bullet{Content: "stale but once useful hint", Kind: playbook.KindInsight})
	clock = testTime
	fresh := pb.Add(playbook.Bullet{Content: "recent equivalent quality tip", Kind: playbook.KindInsight})

	engine := newFixtureEngine(config)
	summary := engine.Apply(context.Background(), pb, nil)

	assert.Equal(t, 1, summary.Evicted)
	_, ok := pb.Get(old)
	assert.False(t, ok)
	_, ok = pb.Get(fresh)
	assert.True(t, ok)
}

func TestApplyCapInvariantHolds(t *testing.T) {
	config := Config{MaxBullets: 10, SimilarityThreshold: 0.8}
	pb := newFixturePlaybook()
	engine := newFixtureEngine(config)

	for batch := 0; batch < 5; batch++ {
		var ops []Op
		for i := 0; i < 7; i++ {
			ops = append(ops, AddOp{Content: fmt.Sprintf("batch %d lesson %d about topic %d", batch, i, batch*7+i)})
		}
		engine.Apply(context.Background(), pb, ops)
		assert.LessOrEqual(t, pb.Len(), config.MaxBullets)
	}
}

func TestApplyRemoveCleansSection(t *testing.T) {
	pb := newFixturePlaybook()
	id := pb.Add(playbook.Bullet{Content: "only member", Kind: playbook.KindInsight, Section: "solo"})

	engine := newFixtureEngine(DefaultConfig())
	summary := engine.Apply(context.Background(), pb, []Op{RemoveOp{BulletID: id}})

	assert.Equal(t, 1, summary.Removed)
	assert.Empty(t, pb.BySection("solo"))
	assert.NotContains(t, pb.Sections(), "solo")
}
