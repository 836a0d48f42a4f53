package playbook

// Stats summarizes the playbook for dashboards and logging.
type Stats struct {
	TotalBullets int            `json:"total_bullets"`
	Sections     map[string]int `json:"sections"`
	Kinds        map[Kind]int   `json:"kinds"`
	Tags         map[Tag]int    `json:"tags"`
}

// Stats computes per-section, per-kind and per-tag counts.
func (p *Playbook) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Stats{
		TotalBullets: len(p.bullets),
		Sections:     make(map[string]int),
		Kinds:        make(map[Kind]int),
		Tags: map[Tag]int{
			TagHelpful: 0,
			TagHarmful: 0,
			TagNeutral: 0,
		},
	}

	for _, b := range p.bullets {
		s.Sections[b.Section]++
		s.Kinds[b.Kind]++
		s.Tags[b.Tag()]++
	}

	return s
}
