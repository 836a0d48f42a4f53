package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Check API Limits", "check api limits"},
		{"trims and collapses whitespace", "  hello   world \t\n", "hello world"},
		{"empty string", "", ""},
		{"only whitespace", "   \t ", ""},
		{"preserves punctuation", "Retry on 429; back off.", "retry on 429; back off."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple words", "check api limits", []string{"check", "api", "limits"}},
		{"punctuation ignored", "off-by-one", []string{"off", "by", "one"}},
		{"trailing period ignored", "off by one.", []string{"off", "by", "one"}},
		{"mixed case and digits", "Retry 429 Errors", []string{"retry", "429", "errors"}},
		{"empty", "", nil},
		{"only punctuation", "---,,,!!!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			assert.Len(t, got, len(tt.expected))
			for _, tok := range tt.expected {
				assert.True(t, got[tok], "missing token %q", tok)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tok := Tokenize

	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "check api limits", "check api limits", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"both empty", "", "", 0.0},
		{"one empty", "alpha", "", 0.0},
		{"half overlap", "a b c d", "c d e f", 1.0 / 3.0},
		{"punctuation variants identical", "watch for off-by-one errors", "watch for off by one. errors", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Jaccard(tok(tt.a), tok(tt.b)), 1e-9)
		})
	}
}

func TestJaccardSymmetric(t *testing.T) {
	a := Tokenize("always validate json before parsing")
	b := Tokenize("validate json schema before use")
	assert.InDelta(t, Jaccard(a, b), Jaccard(b, a), 1e-9)
}
