// Package playbook implements the bullet store at the heart of agentic
// context engineering: an ordered collection of small, reusable lessons
// ("bullets") grouped into named sections, with concurrent-safe mutation,
// snapshot persistence, and the shared text tokenizer used by both
// deduplication and retrieval.
package playbook

import (
	"time"
)

// Kind classifies what sort of lesson a bullet captures.
type Kind string

const (
	KindStrategy          Kind = "strategy"
	KindErrorPattern      Kind = "error_pattern"
	KindAPIGuideline      Kind = "api_guideline"
	KindVerificationCheck Kind = "verification_check"
	KindFormula           Kind = "formula"
	KindInsight           Kind = "insight"
)

// Valid reports whether k is one of the closed set of bullet kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStrategy, KindErrorPattern, KindAPIGuideline,
		KindVerificationCheck, KindFormula, KindInsight:
		return true
	}
	return false
}

// Tag is the derived helpful/harmful classification of a bullet.
type Tag string

const (
	TagHelpful Tag = "helpful"
	TagHarmful Tag = "harmful"
	TagNeutral Tag = "neutral"
)

// DefaultSection is used when a bullet is added without a section label.
const DefaultSection = "general_insights"

// Bullet is one atomic lesson. Values returned by the store are snapshots;
// mutation goes through the store's AdjustCounters/Remove operations.
type Bullet struct {
	ID           string            `json:"id"`
	Content      string            `json:"content"`
	Kind         Kind              `json:"kind"`
	Section      string            `json:"section"`
	HelpfulCount int               `json:"helpful_count"`
	HarmfulCount int               `json:"harmful_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Tag derives the helpful/harmful/neutral classification from the counters.
// This is the single derivation used by retrieval filtering, summaries and
// eviction alike.
func (b *Bullet) Tag() Tag {
	switch {
	case b.HelpfulCount > b.HarmfulCount:
		return TagHelpful
	case b.HarmfulCount > b.HelpfulCount:
		return TagHarmful
	default:
		return TagNeutral
	}
}

// clone returns a deep copy so callers can never reach the store's state.
func (b *Bullet) clone() Bullet {
	c := *b
	if b.Metadata != nil {
		c.Metadata = make(map[string]string, len(b.Metadata))
		for k, v := range b.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}
