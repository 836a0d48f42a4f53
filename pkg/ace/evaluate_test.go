package ace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

func TestEvaluatePerformance(t *testing.T) {
	client := &fakeClient{
		generatorJSON: `{"reasoning_steps": ["solved"], "confidence": 0.8}`,
	}

	a, err := New(testConfig(), client, WithPlaybook(seededPlaybook()))
	require.NoError(t, err)

	samples := []AdaptSample{
		{Query: "how should I use caching here"},
		{Query: "what about caching again", GroundTruth: "42"},
	}
	report, err := a.EvaluatePerformance(context.Background(), samples)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalQueries)
	assert.Equal(t, 2, report.SuccessfulQueries)
	assert.Equal(t, 0, report.FailedQueries)
	assert.InDelta(t, 1.0, report.SuccessRate, 1e-9)
	assert.InDelta(t, 0.8, report.AverageConfidence, 1e-9)
	require.Len(t, report.QueryResults, 2)
	assert.Equal(t, samples[0].Query, report.QueryResults[0].Query)

	// Evaluation never reflects or writes to the playbook.
	assert.Equal(t, 1, a.Playbook().Len())
	assert.Equal(t, int64(0), a.Statistics().TotalReflections)
}

func TestEvaluatePerformanceCountsExecutorFailures(t *testing.T) {
	client := &fakeClient{
		generatorJSON: `{"reasoning_steps": ["write code"], "generated_code": "print(x)", "confidence": 0.4}`,
	}
	executor := func(_ context.Context, code string) (string, error) {
		return "", errors.New(errors.ToolExecutionFailed, "NameError: x is not defined")
	}

	a, err := New(testConfig(), client, WithPlaybook(seededPlaybook()), WithExecutor(executor))
	require.NoError(t, err)

	report, err := a.EvaluatePerformance(context.Background(), []AdaptSample{{Query: "run the snippet"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FailedQueries)
	assert.InDelta(t, 0.0, report.SuccessRate, 1e-9)
	assert.NotEmpty(t, report.QueryResults[0].ErrorMessage)
}

func TestEvaluatePerformanceRejectsEmptySet(t *testing.T) {
	a, err := New(testConfig(), &fakeClient{}, WithPlaybook(seededPlaybook()))
	require.NoError(t, err)

	_, err = a.EvaluatePerformance(context.Background(), nil)
	assert.Error(t, err)
}
