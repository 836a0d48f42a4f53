package ace

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/XiaoConstantine/ace-go/pkg/config"
	"github.com/XiaoConstantine/ace-go/pkg/curator"
	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/llm"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
	"github.com/XiaoConstantine/ace-go/pkg/tools"
)

const curatorSystemPrompt = `You are a master curator of knowledge. Your job is to identify what new insights should be added to an existing playbook based on a reflection.

Your task is to:
1. Review the existing playbook and the reflection
2. Identify ONLY the NEW insights, strategies, or mistakes that are MISSING from the current playbook
3. Avoid redundancy - don't suggest content that already exists
4. Focus on quality over quantity
5. Each suggestion should be actionable and specific

Always respond with a JSON object containing:
- reasoning: Your analysis process
- missing_insights: List of specific insights that should be added to the playbook`

// ACE runs the generation, reflection and curation loop around a
// shared playbook.
type ACE struct {
	config     config.Config
	pb         *playbook.Playbook
	engine     *curator.Engine
	generator  *Generator
	reflector  Reflector
	client     llm.Client
	classifier curator.Classifier
	registry   *tools.Registry
	store      Store
	executor   func(ctx context.Context, code string) (string, error)

	trajectories atomic.Int64
	successes    atomic.Int64
	failures     atomic.Int64
	reflections  atomic.Int64
	deltas       atomic.Int64
}

// Option configures an ACE instance.
type Option func(*ACE)

// WithReflector replaces the default LLM reflector.
func WithReflector(r Reflector) Option {
	return func(a *ACE) { a.reflector = r }
}

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c curator.Classifier) Option {
	return func(a *ACE) { a.classifier = c }
}

// WithToolRegistry gives the generator access to tools.
func WithToolRegistry(registry *tools.Registry) Option {
	return func(a *ACE) { a.registry = registry }
}

// WithStore enables playbook persistence.
func WithStore(store Store) Option {
	return func(a *ACE) { a.store = store }
}

// WithExecutor runs generated code and feeds the outcome into
// reflection.
func WithExecutor(executor func(ctx context.Context, code string) (string, error)) Option {
	return func(a *ACE) { a.executor = executor }
}

// WithPlaybook seeds the framework with an existing playbook.
func WithPlaybook(pb *playbook.Playbook) Option {
	return func(a *ACE) { a.pb = pb }
}

// New assembles the framework from configuration.
func New(cfg config.Config, client llm.Client, opts ...Option) (*ACE, error) {
	if client == nil {
		return nil, errors.New(errors.InvalidInput, "LLM client is required")
	}

	a := &ACE{
		config: cfg,
		client: client,
		engine: curator.NewEngine(curator.Config{
			MaxBullets:          cfg.ACE.MaxPlaybookBullets,
			SimilarityThreshold: cfg.ACE.SimilarityThreshold,
		}),
		classifier: curator.KeywordClassifier{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pb == nil {
		a.pb = playbook.New()
	}
	if a.reflector == nil {
		a.reflector = NewLLMReflector(ReflectorConfig{
			Model:       cfg.Models.Reflector.Model,
			Temperature: cfg.Models.Reflector.Temperature,
			MaxTokens:   cfg.Models.Reflector.MaxTokens,
			MaxRounds:   cfg.ACE.MaxReflectorRounds,
		}, client)
	}
	a.generator = NewGenerator(GeneratorConfig{
		Model:                cfg.Models.Generator.Model,
		Temperature:          cfg.Models.Generator.Temperature,
		MaxTokens:            cfg.Models.Generator.MaxTokens,
		MaxRetrievedBullets:  cfg.ACE.MaxRetrievedBullets,
		MinBulletHelpfulness: cfg.ACE.MinBulletHelpfulness,
	}, client, a.registry)

	return a, nil
}

// Playbook exposes the shared playbook for retrieval and export.
func (a *ACE) Playbook() *playbook.Playbook { return a.pb }

// TaskResult bundles the outcome of one query.
type TaskResult struct {
	Trajectory *Trajectory
	Reflection curator.Reflection
	Summary    curator.Summary
}

// SolveQuery runs the full online loop for one query: generate,
// execute, reflect and fold the lessons back into the playbook.
func (a *ACE) SolveQuery(ctx context.Context, query string) (*TaskResult, error) {
	return a.solve(ctx, query, "", true)
}

// SolveQueryWithGroundTruth additionally hands the expected answer to
// the reflector.
func (a *ACE) SolveQueryWithGroundTruth(ctx context.Context, query, groundTruth string) (*TaskResult, error) {
	return a.solve(ctx, query, groundTruth, true)
}

func (a *ACE) solve(ctx context.Context, query, groundTruth string, update bool) (*TaskResult, error) {
	if err := errors.CheckContext(ctx, "solve query"); err != nil {
		return nil, err
	}

	trajectory, err := a.generator.GenerateTrajectory(ctx, query, a.pb)
	if err != nil {
		return nil, err
	}
	trajectory = a.generator.ExecuteTrajectory(ctx, trajectory, a.executor)

	a.trajectories.Add(1)
	if trajectory.Success {
		a.successes.Add(1)
	} else {
		a.failures.Add(1)
	}

	reflection, err := a.reflector.Reflect(ctx, trajectory, a.pb, groundTruth)
	if err != nil {
		return nil, err
	}
	a.reflections.Add(1)

	result := &TaskResult{Trajectory: trajectory, Reflection: reflection}
	if update {
		result.Summary = a.UpdateFromReflection(ctx, reflection)
	}
	return result, nil
}

// UpdateFromReflection turns one reflection into delta operations and
// applies them atomically.
func (a *ACE) UpdateFromReflection(ctx context.Context, reflection curator.Reflection) curator.Summary {
	insights := a.identifyMissingInsights(ctx, reflection)
	ops := curator.OpsFromReflection(a.pb, reflection, insights, a.classifier)
	if len(ops) == 0 {
		return curator.Summary{}
	}
	summary := a.engine.Apply(ctx, a.pb, ops)
	a.deltas.Add(1)
	return summary
}

type missingInsightsResponse struct {
	Reasoning       string   `json:"reasoning"`
	MissingInsights []string `json:"missing_insights"`
}

// identifyMissingInsights asks the curator model which of the
// reflection's lessons the playbook lacks. When that fails, the key
// insight and correct approach are used directly so a transient model
// error never loses the lesson.
func (a *ACE) identifyMissingInsights(ctx context.Context, reflection curator.Reflection) []string {
	logger := logging.GetLogger()

	prompt := fmt.Sprintf(`Please analyze what insights are missing from this playbook.

CURRENT PLAYBOOK SUMMARY:
%s

REFLECTION TO ANALYZE:
%s

KEY INSIGHT: %s
ERROR IDENTIFICATION: %s
ROOT CAUSE: %s
CORRECT APPROACH: %s

Please identify what new insights should be added to the playbook.`,
		summarizePlaybook(a.pb),
		orNotProvided(reflection.Reasoning),
		orNotProvided(reflection.KeyInsight),
		orNotProvided(reflection.ErrorIdentification),
		orNotProvided(reflection.RootCauseAnalysis),
		orNotProvided(reflection.CorrectApproach))

	opts := []llm.GenerateOption{
		llm.WithSystemPrompt(curatorSystemPrompt),
		llm.WithTemperature(a.config.Models.Curator.Temperature),
	}
	if a.config.Models.Curator.Model != "" {
		opts = append(opts, llm.WithModel(a.config.Models.Curator.Model))
	}
	if a.config.Models.Curator.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(a.config.Models.Curator.MaxTokens))
	}

	var response missingInsightsResponse
	if err := a.client.GenerateJSON(ctx, prompt, &response, opts...); err != nil {
		logger.Warn(ctx, "insight identification failed, falling back to reflection fields: %v", err)

		var fallback []string
		if reflection.KeyInsight != "" {
			fallback = append(fallback, reflection.KeyInsight)
		}
		if len(reflection.CorrectApproach) > 20 {
			fallback = append(fallback, "Strategy: "+reflection.CorrectApproach)
		}
		return fallback
	}
	return response.MissingInsights
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func summarizePlaybook(pb *playbook.Playbook) string {
	if pb.Len() == 0 {
		return "Empty playbook - no bullets exist yet."
	}

	sections := pb.Sections()
	summary := fmt.Sprintf("Playbook contains %d bullets across %d sections:\n", pb.Len(), len(sections))
	for _, section := range sections {
		bullets := pb.BySection(section)
		summary += fmt.Sprintf("\n%s (%d bullets):\n", section, len(bullets))
		for i, b := range bullets {
			if i == 3 {
				summary += fmt.Sprintf("  ... and %d more\n", len(bullets)-3)
				break
			}
			summary += fmt.Sprintf("  - [%s] %s\n", b.Tag(), truncateContent(b.Content, 100))
		}
	}
	return summary
}

func truncateContent(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
