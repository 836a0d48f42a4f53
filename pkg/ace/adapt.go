package ace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/ace-go/pkg/curator"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

// AdaptSample pairs a training query with its optional expected
// answer.
type AdaptSample struct {
	Query       string
	GroundTruth string
}

// EpochStats summarizes one offline adaptation epoch.
type EpochStats struct {
	Epoch        int           `json:"epoch"`
	Duration     time.Duration `json:"duration"`
	SuccessRate  float64       `json:"success_rate"`
	PlaybookSize int           `json:"playbook_size"`
	Applied      curator.Summary
}

// AdaptReport summarizes a full offline adaptation run.
type AdaptReport struct {
	EpochsCompleted     int          `json:"epochs_completed"`
	QueriesProcessed    int          `json:"queries_processed"`
	InitialPlaybookSize int          `json:"initial_playbook_size"`
	FinalPlaybookSize   int          `json:"final_playbook_size"`
	Epochs              []EpochStats `json:"epochs"`
}

// AdaptOptions tunes the offline loop. Zero values fall back to the
// framework configuration.
type AdaptOptions struct {
	Epochs int
	// Concurrency bounds how many trajectories are generated and
	// reflected on in parallel within an epoch. Curation stays
	// sequential so batches land deterministically.
	Concurrency int
}

// OfflineAdapt grows the playbook from a training set. Each epoch
// generates and reflects on every sample concurrently, then applies
// the resulting deltas one reflection at a time in sample order.
func (a *ACE) OfflineAdapt(ctx context.Context, samples []AdaptSample, opts AdaptOptions) (*AdaptReport, error) {
	if len(samples) == 0 {
		return nil, errors.New(errors.InvalidInput, "no training samples provided")
	}

	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = a.config.ACE.MaxEpochs
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	ctx = logging.WithSessionID(ctx, uuid.NewString())
	logger := logging.GetLogger()
	logger.Info(ctx, "starting offline adaptation: %d samples, %d epochs", len(samples), epochs)

	report := &AdaptReport{InitialPlaybookSize: a.pb.Len()}

	for epoch := 1; epoch <= epochs; epoch++ {
		start := time.Now()
		results := make([]*TaskResult, len(samples))

		p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(concurrency)
		for i, sample := range samples {
			p.Go(func(ctx context.Context) error {
				result, err := a.solve(ctx, sample.Query, sample.GroundTruth, false)
				if err != nil {
					return err
				}
				results[i] = result
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return report, err
		}

		var applied curator.Summary
		var successes int
		for _, result := range results {
			if result.Trajectory.Success {
				successes++
			}
			summary := a.UpdateFromReflection(ctx, result.Reflection)
			applied.Added += summary.Added
			applied.Adjusted += summary.Adjusted
			applied.Removed += summary.Removed
			applied.Deduped += summary.Deduped
			applied.Evicted += summary.Evicted
			applied.Skipped += summary.Skipped
		}

		stats := EpochStats{
			Epoch:        epoch,
			Duration:     time.Since(start),
			SuccessRate:  float64(successes) / float64(len(samples)),
			PlaybookSize: a.pb.Len(),
			Applied:      applied,
		}
		report.Epochs = append(report.Epochs, stats)
		report.EpochsCompleted++
		report.QueriesProcessed += len(samples)

		logger.Info(ctx, "epoch %d/%d: success rate %.2f, playbook size %d",
			epoch, epochs, stats.SuccessRate, stats.PlaybookSize)
	}

	report.FinalPlaybookSize = a.pb.Len()
	logger.Info(ctx, "offline adaptation completed: playbook grew from %d to %d bullets",
		report.InitialPlaybookSize, report.FinalPlaybookSize)
	return report, nil
}
