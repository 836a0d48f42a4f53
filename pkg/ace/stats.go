package ace

import "github.com/XiaoConstantine/ace-go/pkg/playbook"

// Statistics reports framework activity since construction.
type Statistics struct {
	TotalTrajectories      int64   `json:"total_trajectories"`
	SuccessfulTrajectories int64   `json:"successful_trajectories"`
	FailedTrajectories     int64   `json:"failed_trajectories"`
	TotalReflections       int64   `json:"total_reflections"`
	TotalDeltaUpdates      int64   `json:"total_delta_updates"`
	SuccessRate            float64 `json:"success_rate"`
	PlaybookSize           int     `json:"playbook_size"`
}

// Statistics returns a consistent snapshot of the counters.
func (a *ACE) Statistics() Statistics {
	stats := Statistics{
		TotalTrajectories:      a.trajectories.Load(),
		SuccessfulTrajectories: a.successes.Load(),
		FailedTrajectories:     a.failures.Load(),
		TotalReflections:       a.reflections.Load(),
		TotalDeltaUpdates:      a.deltas.Load(),
		PlaybookSize:           a.pb.Len(),
	}
	if stats.TotalTrajectories > 0 {
		stats.SuccessRate = float64(stats.SuccessfulTrajectories) / float64(stats.TotalTrajectories)
	}
	return stats
}

// PlaybookStats exposes the playbook's composition for dashboards.
func (a *ACE) PlaybookStats() playbook.Stats {
	return a.pb.Stats()
}
