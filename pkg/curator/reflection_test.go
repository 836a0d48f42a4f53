package curator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

func TestAddOpsFromInsights(t *testing.T) {
	ops := AddOpsFromInsights([]string{
		"Verify edge cases before submitting",
		"",
		"The quadratic formula solves degree two equations",
	}, "refl-42", nil)

	require.Len(t, ops, 2)

	first, ok := ops[0].(AddOp)
	require.True(t, ok)
	assert.Equal(t, "verification_checklist", first.Section)
	assert.Equal(t, playbook.KindVerificationCheck, first.Kind)
	assert.Equal(t, "refl-42", first.Metadata["source_reflection_id"])
	assert.Equal(t, "reflection", first.Metadata["created_from"])

	second, ok := ops[1].(AddOp)
	require.True(t, ok)
	assert.Equal(t, "formulas_and_calculations", second.Section)
}

func TestAdjustOpsFromTags(t *testing.T) {
	pb := newFixturePlaybook()
	a := pb.Add(playbook.Bullet{Content: "first lesson", Kind: playbook.KindInsight})
	b := pb.Add(playbook.Bullet{Content: "second lesson", Kind: playbook.KindInsight})
	c := pb.Add(playbook.Bullet{Content: "third lesson", Kind: playbook.KindInsight})

	ops := AdjustOpsFromTags(pb, map[string]playbook.Tag{
		a: playbook.TagHelpful,
		b: playbook.TagNeutral,
		c: playbook.TagHarmful,
		"ghost-bullet": playbook.TagHelpful,
	})

	// Insertion order, neutral and unknown ids skipped.
	require.Len(t, ops, 2)
	assert.Equal(t, AdjustOp{BulletID: a, HelpfulDelta: 1}, ops[0])
	assert.Equal(t, AdjustOp{BulletID: c, HarmfulDelta: 1}, ops[1])
}

func TestOpsFromReflectionEndToEnd(t *testing.T) {
	pb := newFixturePlaybook()
	used := pb.Add(playbook.Bullet{Content: "reuse known identities", Kind: playbook.KindStrategy, Section: "strategies"})

	r := Reflection{
		ID:         "refl-7",
		KeyInsight: "Check operator precedence when translating formulas",
		BulletTags: map[string]playbook.Tag{used: playbook.TagHelpful},
	}

	ops := OpsFromReflection(pb, r, []string{r.KeyInsight}, KeywordClassifier{})
	require.Len(t, ops, 2)

	summary := newFixtureEngine(DefaultConfig()).Apply(context.Background(), pb, ops)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Adjusted)

	b, ok := pb.Get(used)
	require.True(t, ok)
	assert.Equal(t, 1, b.HelpfulCount)
	assert.Equal(t, playbook.TagHelpful, b.Tag())
	assert.Equal(t, 2, pb.Len())
}
