// Package retrieval selects the playbook bullets most relevant to a
// query. Scoring is a simple containment count: retrieval favors
// recall, while the curator's Jaccard dedup favors precision.
package retrieval

import (
	"sort"
	"strings"

	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// DefaultMaxResults bounds a query when the caller passes k <= 0.
const DefaultMaxResults = 10

// Query returns up to k bullets relevant to text, most relevant first.
// A bullet is relevant when at least one query word occurs as a
// substring of its content; ties keep insertion order. Bullets with
// fewer than minHelpfulness helpful counts are filtered after ranking,
// so a strict filter narrows rather than backfills the result. An
// empty result means no guidance is available, never an error.
func Query(pb *playbook.Playbook, text string, k, minHelpfulness int) []playbook.Bullet {
	if k <= 0 {
		k = DefaultMaxResults
	}

	words := playbook.Tokenize(text)
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		bullet playbook.Bullet
		score  int
	}

	var candidates []scored
	for _, b := range pb.All() {
		content := strings.ToLower(b.Content)
		score := 0
		for word := range words {
			if strings.Contains(content, word) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{bullet: b, score: score})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	var results []playbook.Bullet
	for _, c := range candidates {
		if c.bullet.HelpfulCount >= minHelpfulness {
			results = append(results, c.bullet)
		}
	}
	return results
}
