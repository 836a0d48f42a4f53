package ace

import (
	"context"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

// QueryResult is the outcome of one evaluation query.
type QueryResult struct {
	Query           string  `json:"query"`
	Success         bool    `json:"success"`
	Confidence      float64 `json:"confidence"`
	ExecutionResult string  `json:"execution_result,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// EvaluationReport summarizes a read-only pass over a test set.
type EvaluationReport struct {
	TotalQueries      int           `json:"total_queries"`
	SuccessfulQueries int           `json:"successful_queries"`
	FailedQueries     int           `json:"failed_queries"`
	SuccessRate       float64       `json:"success_rate"`
	AverageConfidence float64       `json:"average_confidence"`
	QueryResults      []QueryResult `json:"query_results"`
}

// EvaluatePerformance runs each test query through generation and
// execution without reflecting or updating the playbook, so the same
// set can be replayed before and after adaptation to measure progress.
func (a *ACE) EvaluatePerformance(ctx context.Context, samples []AdaptSample) (*EvaluationReport, error) {
	if len(samples) == 0 {
		return nil, errors.New(errors.InvalidInput, "no test samples provided")
	}

	logger := logging.GetLogger()
	logger.Info(ctx, "evaluating performance on %d test queries", len(samples))

	report := &EvaluationReport{TotalQueries: len(samples)}
	var confidenceSum float64

	for _, sample := range samples {
		if err := errors.CheckContext(ctx, "evaluate performance"); err != nil {
			return nil, err
		}

		trajectory, err := a.generator.GenerateTrajectory(ctx, sample.Query, a.pb)
		if err != nil {
			return nil, err
		}
		trajectory = a.generator.ExecuteTrajectory(ctx, trajectory, a.executor)

		if trajectory.Success {
			report.SuccessfulQueries++
		} else {
			report.FailedQueries++
		}
		confidenceSum += trajectory.Confidence

		report.QueryResults = append(report.QueryResults, QueryResult{
			Query:           sample.Query,
			Success:         trajectory.Success,
			Confidence:      trajectory.Confidence,
			ExecutionResult: trajectory.ExecutionResult,
			ErrorMessage:    trajectory.ErrorMessage,
		})
	}

	report.SuccessRate = float64(report.SuccessfulQueries) / float64(report.TotalQueries)
	report.AverageConfidence = confidenceSum / float64(report.TotalQueries)

	logger.Info(ctx, "evaluation completed: success rate %.2f", report.SuccessRate)
	return report, nil
}
