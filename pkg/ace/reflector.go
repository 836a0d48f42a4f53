package ace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/ace-go/pkg/curator"
	"github.com/XiaoConstantine/ace-go/pkg/llm"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// Reflector diagnoses a trajectory and tags the bullets it used.
type Reflector interface {
	Reflect(ctx context.Context, trajectory *Trajectory, pb *playbook.Playbook, groundTruth string) (curator.Reflection, error)
}

const reflectorSystemPrompt = `You are an expert analyst and educator. Your job is to diagnose why a model's reasoning went wrong by analyzing the gap between predicted results and expected outcomes.

Your task is to:
1. Carefully analyze the model's reasoning trajectory
2. Identify what went wrong (or could be better)
3. Determine the root cause of any errors
4. Provide actionable insights for improvement
5. Tag the playbook bullets that were used as helpful, harmful, or neutral

Always respond with a valid JSON object containing:
- reasoning: Your detailed analysis and thinking process
- error_identification: What specifically went wrong
- root_cause_analysis: Why the error occurred and what concept was misunderstood
- correct_approach: What should have been done instead
- key_insight: What strategy, formula, or principle should be remembered
- bullet_tags: Dictionary mapping bullet IDs to tags ("helpful", "harmful", "neutral")`

// ReflectorConfig tunes the reflection model and its refinement loop.
type ReflectorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxRounds bounds the total reflection passes: one initial pass
	// plus up to MaxRounds-1 refinements.
	MaxRounds int
}

// LLMReflector implements Reflector with iterative refinement. When
// the model cannot produce a structured reflection, a heuristic
// fallback tags used bullets by the trajectory's outcome so curation
// still proceeds.
type LLMReflector struct {
	config ReflectorConfig
	client llm.Client
	newID  func() string
}

// NewLLMReflector creates a reflector backed by client.
func NewLLMReflector(config ReflectorConfig, client llm.Client) *LLMReflector {
	if config.MaxRounds < 1 {
		config.MaxRounds = 1
	}
	return &LLMReflector{config: config, client: client, newID: uuid.NewString}
}

type reflectionResponse struct {
	Reasoning           string            `json:"reasoning"`
	ErrorIdentification string            `json:"error_identification,omitempty"`
	RootCauseAnalysis   string            `json:"root_cause_analysis,omitempty"`
	CorrectApproach     string            `json:"correct_approach,omitempty"`
	KeyInsight          string            `json:"key_insight,omitempty"`
	BulletTags          map[string]string `json:"bullet_tags,omitempty"`
	Improved            bool              `json:"improved,omitempty"`
}

// Reflect implements Reflector.
func (r *LLMReflector) Reflect(ctx context.Context, trajectory *Trajectory, pb *playbook.Playbook, groundTruth string) (curator.Reflection, error) {
	logger := logging.GetLogger()
	used := usedBullets(trajectory, pb)

	reflection, err := r.generate(ctx, trajectory, used, groundTruth)
	if err != nil {
		logger.Warn(ctx, "reflection generation failed, using heuristic fallback: %v", err)
		return r.fallback(trajectory), nil
	}

	for round := 1; round < r.config.MaxRounds; round++ {
		refined, improved, err := r.refine(ctx, reflection, trajectory, used, round)
		if err != nil || !improved {
			break
		}
		reflection = refined
	}
	return reflection, nil
}

func (r *LLMReflector) generate(ctx context.Context, trajectory *Trajectory, used []playbook.Bullet, groundTruth string) (curator.Reflection, error) {
	if groundTruth == "" {
		groundTruth = "Not provided"
	}
	prompt := fmt.Sprintf(`Please analyze this reasoning trajectory and provide a detailed reflection.

TRAJECTORY INFORMATION:
%s

USED PLAYBOOK BULLETS:
%s

GROUND TRUTH: %s

Please provide your analysis as a JSON object.`,
		formatTrajectory(trajectory), formatUsedBullets(used), groundTruth)

	var response reflectionResponse
	if err := r.client.GenerateJSON(ctx, prompt, &response, r.options()...); err != nil {
		return curator.Reflection{}, err
	}
	return r.toReflection(response), nil
}

func (r *LLMReflector) refine(ctx context.Context, current curator.Reflection, trajectory *Trajectory, used []playbook.Bullet, round int) (curator.Reflection, bool, error) {
	prompt := fmt.Sprintf(`This is refinement round %d. Review your previous reflection and improve it where possible.

PREVIOUS REFLECTION:
REASONING: %s
ERROR IDENTIFICATION: %s
ROOT CAUSE: %s
CORRECT APPROACH: %s
KEY INSIGHT: %s

TRAJECTORY INFORMATION:
%s

USED PLAYBOOK BULLETS:
%s

Respond with the full improved reflection as a JSON object, including an "improved" boolean that is true only if this version is materially better.`,
		round, current.Reasoning, current.ErrorIdentification, current.RootCauseAnalysis,
		current.CorrectApproach, current.KeyInsight,
		formatTrajectory(trajectory), formatUsedBullets(used))

	var response reflectionResponse
	if err := r.client.GenerateJSON(ctx, prompt, &response, r.options()...); err != nil {
		return curator.Reflection{}, false, err
	}

	refined := r.toReflection(response)
	refined.ID = current.ID
	// Tags from earlier rounds survive unless overridden.
	for id, tag := range current.BulletTags {
		if _, ok := refined.BulletTags[id]; !ok {
			if refined.BulletTags == nil {
				refined.BulletTags = make(map[string]playbook.Tag)
			}
			refined.BulletTags[id] = tag
		}
	}
	return refined, response.Improved, nil
}

func (r *LLMReflector) options() []llm.GenerateOption {
	opts := []llm.GenerateOption{
		llm.WithSystemPrompt(reflectorSystemPrompt),
		llm.WithTemperature(r.config.Temperature),
	}
	if r.config.Model != "" {
		opts = append(opts, llm.WithModel(r.config.Model))
	}
	if r.config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(r.config.MaxTokens))
	}
	return opts
}

func (r *LLMReflector) toReflection(response reflectionResponse) curator.Reflection {
	reflection := curator.Reflection{
		ID:                  r.newID(),
		Reasoning:           response.Reasoning,
		ErrorIdentification: response.ErrorIdentification,
		RootCauseAnalysis:   response.RootCauseAnalysis,
		CorrectApproach:     response.CorrectApproach,
		KeyInsight:          response.KeyInsight,
	}
	if len(response.BulletTags) > 0 {
		reflection.BulletTags = make(map[string]playbook.Tag, len(response.BulletTags))
		for id, raw := range response.BulletTags {
			switch playbook.Tag(strings.ToLower(raw)) {
			case playbook.TagHelpful:
				reflection.BulletTags[id] = playbook.TagHelpful
			case playbook.TagHarmful:
				reflection.BulletTags[id] = playbook.TagHarmful
			default:
				reflection.BulletTags[id] = playbook.TagNeutral
			}
		}
	}
	return reflection
}

// fallback tags every used bullet by the trajectory outcome: helpful
// on success, neutral on failure since the fault may lie elsewhere.
func (r *LLMReflector) fallback(trajectory *Trajectory) curator.Reflection {
	reflection := curator.Reflection{
		ID:        r.newID(),
		Reasoning: "Detailed reflection unavailable; tagged used bullets by trajectory outcome.",
	}
	if trajectory.ErrorMessage != "" {
		reflection.ErrorIdentification = trajectory.ErrorMessage
	}
	if len(trajectory.UsedBulletIDs) > 0 {
		reflection.BulletTags = make(map[string]playbook.Tag, len(trajectory.UsedBulletIDs))
		for _, id := range trajectory.UsedBulletIDs {
			if trajectory.Success {
				reflection.BulletTags[id] = playbook.TagHelpful
			} else {
				reflection.BulletTags[id] = playbook.TagNeutral
			}
		}
	}
	return reflection
}

func usedBullets(trajectory *Trajectory, pb *playbook.Playbook) []playbook.Bullet {
	var used []playbook.Bullet
	for _, id := range trajectory.UsedBulletIDs {
		if b, ok := pb.Get(id); ok {
			used = append(used, b)
		}
	}
	return used
}

func formatTrajectory(t *Trajectory) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n", t.Query)
	for i, step := range t.ReasoningSteps {
		fmt.Fprintf(&sb, "Step %d: %s\n", i+1, step)
	}
	if t.GeneratedCode != "" {
		fmt.Fprintf(&sb, "Generated code:\n%s\n", t.GeneratedCode)
	}
	fmt.Fprintf(&sb, "Success: %t\n", t.Success)
	if t.ExecutionResult != "" {
		fmt.Fprintf(&sb, "Execution result: %s\n", t.ExecutionResult)
	}
	if t.ErrorMessage != "" {
		fmt.Fprintf(&sb, "Error: %s\n", t.ErrorMessage)
	}
	return sb.String()
}

func formatUsedBullets(bullets []playbook.Bullet) string {
	if len(bullets) == 0 {
		return "No playbook bullets were used."
	}
	var sb strings.Builder
	for _, b := range bullets {
		fmt.Fprintf(&sb, "- [%s] (%s) %s\n", b.ID, b.Tag(), b.Content)
	}
	return sb.String()
}
