package playbook

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Playbook owns the bullet collection plus its section index.
//
// Invariants held after every exported call:
//   - every id in the section index maps to a stored bullet with that exact
//     section, and no id appears twice;
//   - the section index has no empty sections;
//   - insertion order is the canonical iteration order.
//
// A single RWMutex guards the store: readers take the shared lock, writers
// the exclusive one. Compound mutations (the curation pipeline) run under one
// exclusive acquisition via Update, so readers never observe intermediate
// phases.
type Playbook struct {
	mu       sync.RWMutex
	bullets  []*Bullet
	byID     map[string]*Bullet
	sections map[string][]string // section -> bullet ids, insertion order

	clock func() time.Time
	newID func() string
}

// Option configures a Playbook.
type Option func(*Playbook)

// WithClock overrides the time source. Used by tests and anywhere
// deterministic timestamps are required.
func WithClock(clock func() time.Time) Option {
	return func(p *Playbook) {
		p.clock = clock
	}
}

// WithIDFunc overrides bullet id generation.
func WithIDFunc(newID func() string) Option {
	return func(p *Playbook) {
		p.newID = newID
	}
}

// New creates an empty playbook.
func New(opts ...Option) *Playbook {
	p := &Playbook{
		byID:     make(map[string]*Bullet),
		sections: make(map[string][]string),
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add inserts a bullet and returns its id. An id is assigned when the bullet
// has none (or when the given one is already taken); the section defaults
// when empty. Add never rejects on content.
func (p *Playbook) Add(b Bullet) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.add(b)
}

// Remove deletes the bullet with the given id. Removing an absent id is a
// no-op; it returns whether a bullet was actually removed.
func (p *Playbook) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remove(id)
}

// AdjustCounters increments the helpful/harmful counters of an existing
// bullet, clamping each at zero, and refreshes its update timestamp. It is a
// no-op on an absent id and returns whether the bullet was found.
func (p *Playbook) AdjustCounters(id string, helpfulDelta, harmfulDelta int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.adjustCounters(id, helpfulDelta, harmfulDelta)
}

// Get returns a snapshot of the bullet with the given id.
func (p *Playbook) Get(id string) (Bullet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b, ok := p.byID[id]
	if !ok {
		return Bullet{}, false
	}
	return b.clone(), true
}

// BySection returns the current members of a section in insertion order.
// An unknown section yields an empty list.
func (p *Playbook) BySection(section string) []Bullet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := p.sections[section]
	out := make([]Bullet, 0, len(ids))
	for _, id := range ids {
		if b, ok := p.byID[id]; ok {
			out = append(out, b.clone())
		}
	}
	return out
}

// All returns a snapshot of every bullet in insertion order.
func (p *Playbook) All() []Bullet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Bullet, 0, len(p.bullets))
	for _, b := range p.bullets {
		out = append(out, b.clone())
	}
	return out
}

// Len returns the number of stored bullets.
func (p *Playbook) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.bullets)
}

// Sections returns the non-empty section names, sorted.
func (p *Playbook) Sections() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.sections))
	for name := range p.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update runs fn under a single exclusive lock acquisition. The curation
// pipeline uses this so its op-application, dedup and eviction phases are
// never visible in isolation to a concurrent reader.
func (p *Playbook) Update(fn func(tx *Tx)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&Tx{p: p})
}

// Tx exposes the store's mutation primitives inside an Update call. It must
// not be retained after the call returns.
type Tx struct {
	p *Playbook
}

// Add behaves like Playbook.Add.
func (tx *Tx) Add(b Bullet) string { return tx.p.add(b) }

// Remove behaves like Playbook.Remove.
func (tx *Tx) Remove(id string) bool { return tx.p.remove(id) }

// AdjustCounters behaves like Playbook.AdjustCounters.
func (tx *Tx) AdjustCounters(id string, helpfulDelta, harmfulDelta int) bool {
	return tx.p.adjustCounters(id, helpfulDelta, harmfulDelta)
}

// Bullets returns snapshots of all bullets in insertion order.
func (tx *Tx) Bullets() []Bullet {
	out := make([]Bullet, 0, len(tx.p.bullets))
	for _, b := range tx.p.bullets {
		out = append(out, b.clone())
	}
	return out
}

// Len returns the number of stored bullets.
func (tx *Tx) Len() int { return len(tx.p.bullets) }

// Retain drops every bullet whose id is not in keep, preserving insertion
// order among survivors, and rebuilds the section index. It returns the
// number of bullets removed.
func (tx *Tx) Retain(keep map[string]bool) int {
	p := tx.p
	kept := p.bullets[:0]
	removed := 0
	for _, b := range p.bullets {
		if keep[b.ID] {
			kept = append(kept, b)
		} else {
			delete(p.byID, b.ID)
			removed++
		}
	}
	// Zero the tail so dropped bullets are collectable.
	for i := len(kept); i < len(p.bullets); i++ {
		p.bullets[i] = nil
	}
	p.bullets = kept
	p.rebuildSections()
	return removed
}

// unlocked primitives

func (p *Playbook) add(b Bullet) string {
	if b.ID == "" || p.byID[b.ID] != nil {
		b.ID = p.newID()
	}
	if b.Section == "" {
		b.Section = DefaultSection
	}
	now := p.clock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	if b.HelpfulCount < 0 {
		b.HelpfulCount = 0
	}
	if b.HarmfulCount < 0 {
		b.HarmfulCount = 0
	}

	stored := b.clone()
	p.bullets = append(p.bullets, &stored)
	p.byID[stored.ID] = &stored
	p.sections[stored.Section] = append(p.sections[stored.Section], stored.ID)
	return stored.ID
}

func (p *Playbook) remove(id string) bool {
	b, ok := p.byID[id]
	if !ok {
		return false
	}

	delete(p.byID, id)
	for i, stored := range p.bullets {
		if stored.ID == id {
			p.bullets = append(p.bullets[:i], p.bullets[i+1:]...)
			break
		}
	}

	ids := p.sections[b.Section]
	for i, sid := range ids {
		if sid == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(p.sections, b.Section)
	} else {
		p.sections[b.Section] = ids
	}
	return true
}

func (p *Playbook) adjustCounters(id string, helpfulDelta, harmfulDelta int) bool {
	b, ok := p.byID[id]
	if !ok {
		return false
	}

	b.HelpfulCount += helpfulDelta
	if b.HelpfulCount < 0 {
		b.HelpfulCount = 0
	}
	b.HarmfulCount += harmfulDelta
	if b.HarmfulCount < 0 {
		b.HarmfulCount = 0
	}
	b.UpdatedAt = p.clock()
	return true
}

func (p *Playbook) rebuildSections() {
	p.sections = make(map[string][]string, len(p.sections))
	for _, b := range p.bullets {
		p.sections[b.Section] = append(p.sections[b.Section], b.ID)
	}
}
