package playbook

import (
	"encoding/json"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// Snapshot is the persisted form of a playbook: the ordered bullet list plus
// the section index. The index is written for human inspection; on load it is
// rebuilt from the bullet list, which is authoritative, so the store's
// invariants hold regardless of what the document claims.
type Snapshot struct {
	Bullets  []Bullet            `json:"bullets"`
	Sections map[string][]string `json:"sections"`
}

// Snapshot captures the current state.
func (p *Playbook) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Bullets:  make([]Bullet, 0, len(p.bullets)),
		Sections: make(map[string][]string, len(p.sections)),
	}
	for _, b := range p.bullets {
		snap.Bullets = append(snap.Bullets, b.clone())
	}
	for name, ids := range p.sections {
		snap.Sections[name] = append([]string(nil), ids...)
	}
	return snap
}

// MarshalSnapshot serializes the playbook to a JSON document. Map keys are
// emitted sorted, so serialization is deterministic: serializing, restoring
// and serializing again yields identical bytes.
func (p *Playbook) MarshalSnapshot() ([]byte, error) {
	data, err := json.MarshalIndent(p.Snapshot(), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to marshal playbook snapshot")
	}
	return data, nil
}

// LoadSnapshot reconstructs a playbook from a serialized snapshot. Bullet
// order, ids, counters and timestamps are preserved; the section index is
// rebuilt from the bullets.
func LoadSnapshot(data []byte, opts ...Option) (*Playbook, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse playbook snapshot")
	}
	return FromSnapshot(snap, opts...)
}

// FromSnapshot builds a playbook from an in-memory snapshot.
func FromSnapshot(snap Snapshot, opts ...Option) (*Playbook, error) {
	p := New(opts...)

	for _, b := range snap.Bullets {
		if b.ID == "" {
			return nil, errors.New(errors.InvalidInput, "snapshot bullet has no id")
		}
		if p.byID[b.ID] != nil {
			return nil, errors.WithFields(
				errors.New(errors.InvalidInput, "snapshot contains duplicate bullet id"),
				errors.Fields{"bullet_id": b.ID},
			)
		}
		if b.Section == "" {
			b.Section = DefaultSection
		}

		stored := b.clone()
		p.bullets = append(p.bullets, &stored)
		p.byID[stored.ID] = &stored
		p.sections[stored.Section] = append(p.sections[stored.Section], stored.ID)
	}

	return p, nil
}
