// Package curator implements the write path of the playbook: delta
// operations, batch application, deduplication and eviction.
package curator

import (
	"context"
	"encoding/json"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// OpType discriminates delta operations on the wire.
type OpType string

const (
	OpAdd         OpType = "ADD"
	OpUpdateCount OpType = "UPDATE_COUNT"
	OpRemove      OpType = "REMOVE"
)

// Op is a single curation step. The concrete types below form a closed
// set; Engine.Apply matches them exhaustively.
type Op interface {
	Type() OpType
}

// AddOp inserts a new bullet into the playbook.
type AddOp struct {
	Section  string            `json:"section,omitempty"`
	Content  string            `json:"content"`
	Kind     playbook.Kind     `json:"bullet_type,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AdjustOp increments the counters of an existing bullet. Unknown ids
// are tolerated: the bullet may have been deduped or evicted between
// the decision and its application.
type AdjustOp struct {
	BulletID     string `json:"bullet_id"`
	HelpfulDelta int    `json:"increment_helpful,omitempty"`
	HarmfulDelta int    `json:"increment_harmful,omitempty"`
}

// RemoveOp deletes a bullet. Removing an absent id is a no-op.
type RemoveOp struct {
	BulletID string `json:"bullet_id"`
}

func (AddOp) Type() OpType    { return OpAdd }
func (AdjustOp) Type() OpType { return OpUpdateCount }
func (RemoveOp) Type() OpType { return OpRemove }

// Delta is an ordered batch of operations, typically produced from a
// single reflection, with the reasoning that motivated it.
type Delta struct {
	Operations []Op
	Reasoning  string
}

type rawOp struct {
	Type OpType `json:"type"`

	Section  string            `json:"section,omitempty"`
	Content  string            `json:"content,omitempty"`
	Kind     playbook.Kind     `json:"bullet_type,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	BulletID     string `json:"bullet_id,omitempty"`
	HelpfulDelta int    `json:"increment_helpful,omitempty"`
	HarmfulDelta int    `json:"increment_harmful,omitempty"`
}

type rawDelta struct {
	Operations []rawOp `json:"operations"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// DecodeDelta parses a JSON delta document. Operations with an unknown
// type are skipped with a warning rather than failing the batch.
func DecodeDelta(ctx context.Context, data []byte) (Delta, error) {
	var raw rawDelta
	if err := json.Unmarshal(data, &raw); err != nil {
		return Delta{}, errors.Wrap(err, errors.InvalidResponse, "failed to parse delta document")
	}

	delta := Delta{Reasoning: raw.Reasoning}
	for _, r := range raw.Operations {
		switch r.Type {
		case OpAdd:
			delta.Operations = append(delta.Operations, AddOp{
				Section:  r.Section,
				Content:  r.Content,
				Kind:     r.Kind,
				Metadata: r.Metadata,
			})
		case OpUpdateCount:
			delta.Operations = append(delta.Operations, AdjustOp{
				BulletID:     r.BulletID,
				HelpfulDelta: r.HelpfulDelta,
				HarmfulDelta: r.HarmfulDelta,
			})
		case OpRemove:
			delta.Operations = append(delta.Operations, RemoveOp{BulletID: r.BulletID})
		default:
			logging.GetLogger().Warn(ctx, "skipping delta operation with unknown type %q", r.Type)
		}
	}
	return delta, nil
}

// EncodeDelta serializes a delta batch using the same wire layout
// DecodeDelta accepts.
func EncodeDelta(delta Delta) ([]byte, error) {
	raw := rawDelta{Reasoning: delta.Reasoning}
	for _, op := range delta.Operations {
		switch o := op.(type) {
		case AddOp:
			raw.Operations = append(raw.Operations, rawOp{
				Type: OpAdd, Section: o.Section, Content: o.Content, Kind: o.Kind, Metadata: o.Metadata,
			})
		case AdjustOp:
			raw.Operations = append(raw.Operations, rawOp{
				Type: OpUpdateCount, BulletID: o.BulletID, HelpfulDelta: o.HelpfulDelta, HarmfulDelta: o.HarmfulDelta,
			})
		case RemoveOp:
			raw.Operations = append(raw.Operations, rawOp{Type: OpRemove, BulletID: o.BulletID})
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to encode delta document")
	}
	return data, nil
}
