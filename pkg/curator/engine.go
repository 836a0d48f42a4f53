package curator

import (
	"context"
	"sort"
	"time"

	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// Config bounds the playbook and tunes deduplication.
type Config struct {
	// MaxBullets is the hard size cap enforced by the eviction pass.
	MaxBullets int
	// SimilarityThreshold is the Jaccard similarity above which the
	// later of two bullets is dropped as a duplicate.
	SimilarityThreshold float64
}

// DefaultConfig returns the standard curation bounds.
func DefaultConfig() Config {
	return Config{
		MaxBullets:          1000,
		SimilarityThreshold: 0.8,
	}
}

// Summary reports what a single Apply call did to the playbook.
type Summary struct {
	Added    int `json:"added"`
	Adjusted int `json:"adjusted"`
	Removed  int `json:"removed"`
	Deduped  int `json:"deduped"`
	Evicted  int `json:"evicted"`
	Skipped  int `json:"skipped"`
}

// Engine applies delta batches to a playbook. Each Apply call runs the
// full pipeline (operations, dedup, eviction) as one atomic update.
type Engine struct {
	config Config
	logger *logging.Logger
	clock  func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger overrides the engine's logger.
func WithLogger(logger *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source used for eviction recency.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates an engine; zero or out-of-range config values fall
// back to the defaults.
func NewEngine(config Config, opts ...EngineOption) *Engine {
	if config.MaxBullets <= 0 {
		config.MaxBullets = DefaultConfig().MaxBullets
	}
	if config.SimilarityThreshold <= 0 || config.SimilarityThreshold > 1 {
		config.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	e := &Engine{config: config, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetLogger()
	}
	return e
}

// Apply runs ops in order, then deduplicates the whole store, then
// evicts down to MaxBullets. Readers never observe an intermediate
// phase. Malformed operations are skipped, not fatal.
func (e *Engine) Apply(ctx context.Context, pb *playbook.Playbook, ops []Op) Summary {
	var summary Summary

	pb.Update(func(tx *playbook.Tx) {
		for _, op := range ops {
			e.applyOp(ctx, tx, op, &summary)
		}
		summary.Deduped = e.dedup(tx)
		summary.Evicted = e.evict(tx)
	})

	if summary.Deduped > 0 || summary.Evicted > 0 {
		e.logger.Debug(ctx, "curation pass dropped %d duplicates and evicted %d bullets",
			summary.Deduped, summary.Evicted)
	}
	return summary
}

func (e *Engine) applyOp(ctx context.Context, tx *playbook.Tx, op Op, summary *Summary) {
	switch o := op.(type) {
	case AddOp:
		if o.Content == "" {
			e.logger.Warn(ctx, "skipping ADD operation with empty content")
			summary.Skipped++
			return
		}
		kind := o.Kind
		if kind == "" {
			kind = playbook.KindInsight
		}
		if !kind.Valid() {
			e.logger.Warn(ctx, "skipping ADD operation with unknown bullet type %q", o.Kind)
			summary.Skipped++
			return
		}
		tx.Add(playbook.Bullet{
			Section:  o.Section,
			Content:  o.Content,
			Kind:     kind,
			Metadata: o.Metadata,
		})
		summary.Added++
	case AdjustOp:
		if tx.AdjustCounters(o.BulletID, o.HelpfulDelta, o.HarmfulDelta) {
			summary.Adjusted++
		} else {
			e.logger.Debug(ctx, "UPDATE_COUNT for unknown bullet %q ignored", o.BulletID)
		}
	case RemoveOp:
		if tx.Remove(o.BulletID) {
			summary.Removed++
		}
	default:
		e.logger.Warn(ctx, "skipping unsupported delta operation %T", op)
		summary.Skipped++
	}
}

// dedup walks bullets in insertion order and drops any bullet whose
// content is too similar to an earlier kept one. First seen wins.
func (e *Engine) dedup(tx *playbook.Tx) int {
	bullets := tx.Bullets()
	if len(bullets) < 2 {
		return 0
	}

	keep := make(map[string]bool, len(bullets))
	kept := make([]map[string]bool, 0, len(bullets))
	for _, b := range bullets {
		tokens := playbook.Tokenize(b.Content)
		duplicate := false
		for _, earlier := range kept {
			if playbook.Jaccard(tokens, earlier) > e.config.SimilarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		keep[b.ID] = true
		kept = append(kept, tokens)
	}
	return tx.Retain(keep)
}

// evict drops the lowest-scored bullets until the store fits the cap.
// Survivors keep their insertion order.
func (e *Engine) evict(tx *playbook.Tx) int {
	if tx.Len() <= e.config.MaxBullets {
		return 0
	}

	now := e.clock()
	bullets := tx.Bullets()
	ranked := make([]int, len(bullets))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return e.score(bullets[ranked[a]], now) > e.score(bullets[ranked[b]], now)
	})

	keep := make(map[string]bool, e.config.MaxBullets)
	for _, idx := range ranked[:e.config.MaxBullets] {
		keep[bullets[idx].ID] = true
	}
	return tx.Retain(keep)
}

// score values proven usefulness, with a small recency bonus that
// decays linearly to zero over a year. The bonus is capped at 0.1 so
// it only breaks ties between equal integer counter scores.
func (e *Engine) score(b playbook.Bullet, now time.Time) float64 {
	ageDays := now.Sub(b.CreatedAt).Hours() / 24
	recency := 1 - ageDays/365
	if recency < 0 {
		recency = 0
	}
	return float64(b.HelpfulCount-b.HarmfulCount) + 0.1*recency
}
