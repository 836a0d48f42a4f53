package curator

import (
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// Reflection is the analysis of one solved (or failed) task: what went
// wrong, what to remember, and how each retrieved bullet performed.
type Reflection struct {
	ID                  string                  `json:"id"`
	Reasoning           string                  `json:"reasoning"`
	ErrorIdentification string                  `json:"error_identification,omitempty"`
	RootCauseAnalysis   string                  `json:"root_cause_analysis,omitempty"`
	CorrectApproach     string                  `json:"correct_approach,omitempty"`
	KeyInsight          string                  `json:"key_insight,omitempty"`
	BulletTags          map[string]playbook.Tag `json:"bullet_tags,omitempty"`
}

// AddOpsFromInsights classifies each insight and turns it into an ADD
// operation. Empty insights are dropped. The reflection id, when set,
// is recorded in the bullet metadata for provenance.
func AddOpsFromInsights(insights []string, reflectionID string, classifier Classifier) []Op {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}

	var ops []Op
	for _, insight := range insights {
		if insight == "" {
			continue
		}
		section, kind := classifier.Classify(insight)
		metadata := map[string]string{"created_from": "reflection"}
		if reflectionID != "" {
			metadata["source_reflection_id"] = reflectionID
		}
		ops = append(ops, AddOp{
			Section:  section,
			Content:  insight,
			Kind:     kind,
			Metadata: metadata,
		})
	}
	return ops
}

// AdjustOpsFromTags converts a reflection's per-bullet tags into
// counter updates: helpful tags add one helpful count, harmful tags
// add one harmful count, neutral tags produce no operation. Ops are
// emitted in insertion order of the store so batches stay
// deterministic across runs.
func AdjustOpsFromTags(pb *playbook.Playbook, tags map[string]playbook.Tag) []Op {
	if len(tags) == 0 {
		return nil
	}

	var ops []Op
	for _, b := range pb.All() {
		switch tags[b.ID] {
		case playbook.TagHelpful:
			ops = append(ops, AdjustOp{BulletID: b.ID, HelpfulDelta: 1})
		case playbook.TagHarmful:
			ops = append(ops, AdjustOp{BulletID: b.ID, HarmfulDelta: 1})
		}
	}
	return ops
}

// OpsFromReflection builds the full delta batch for one reflection:
// new bullets from the insights, then counter updates from the tags.
func OpsFromReflection(pb *playbook.Playbook, r Reflection, insights []string, classifier Classifier) []Op {
	ops := AddOpsFromInsights(insights, r.ID, classifier)
	return append(ops, AdjustOpsFromTags(pb, r.BulletTags)...)
}
