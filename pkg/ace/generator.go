package ace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/ace-go/pkg/llm"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/playbook"
	"github.com/XiaoConstantine/ace-go/pkg/retrieval"
	"github.com/XiaoConstantine/ace-go/pkg/tools"
)

const generatorSystemPrompt = `You are an expert AI assistant that solves problems step-by-step.
You have access to a curated playbook of strategies and insights from previous experiences.
Your task is to:
1. Carefully analyze the problem and the playbook
2. Apply relevant strategies from the playbook
3. Provide detailed reasoning steps
4. Generate code if needed
5. Explain your approach clearly

Always structure your response as a JSON object with the following fields:
- reasoning_steps: List of reasoning steps
- generated_code: Optional code solution
- confidence: Your confidence level (0-1)
- used_strategies: List of playbook strategies you used`

// GeneratorConfig tunes retrieval and generation.
type GeneratorConfig struct {
	Model                string
	Temperature          float64
	MaxTokens            int
	MaxRetrievedBullets  int
	MinBulletHelpfulness int
}

// Generator produces reasoning trajectories guided by the playbook.
type Generator struct {
	config GeneratorConfig
	client llm.Client
	tools  *tools.Registry
	newID  func() string
}

// NewGenerator creates a generator. The registry may be nil when no
// tools are available.
func NewGenerator(config GeneratorConfig, client llm.Client, registry *tools.Registry) *Generator {
	return &Generator{
		config: config,
		client: client,
		tools:  registry,
		newID:  uuid.NewString,
	}
}

type generatorResponse struct {
	ReasoningSteps []string `json:"reasoning_steps"`
	GeneratedCode  string   `json:"generated_code,omitempty"`
	Confidence     float64  `json:"confidence"`
	UsedStrategies []string `json:"used_strategies,omitempty"`
}

// GenerateTrajectory retrieves relevant bullets, prompts the model and
// records which bullets informed the attempt. When the model's answer
// cannot be parsed as a structured trajectory, the raw completion is
// kept as a single reasoning step rather than failing the task.
func (g *Generator) GenerateTrajectory(ctx context.Context, query string, pb *playbook.Playbook) (*Trajectory, error) {
	logger := logging.GetLogger()

	bullets := retrieval.Query(pb, query, g.config.MaxRetrievedBullets, g.config.MinBulletHelpfulness)

	prompt := g.buildPrompt(query, bullets)
	opts := []llm.GenerateOption{
		llm.WithSystemPrompt(generatorSystemPrompt),
		llm.WithTemperature(g.config.Temperature),
	}
	if g.config.Model != "" {
		opts = append(opts, llm.WithModel(g.config.Model))
	}
	if g.config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(g.config.MaxTokens))
	}

	trajectory := &Trajectory{
		ID:    g.newID(),
		Query: query,
	}
	for _, b := range bullets {
		trajectory.UsedBulletIDs = append(trajectory.UsedBulletIDs, b.ID)
	}

	var response generatorResponse
	if err := g.client.GenerateJSON(ctx, prompt, &response, opts...); err != nil {
		logger.Warn(ctx, "structured generation failed, falling back to plain text: %v", err)

		text, genErr := g.client.Generate(ctx, prompt, opts...)
		if genErr != nil {
			return nil, genErr
		}
		trajectory.ReasoningSteps = []string{text}
		trajectory.Confidence = 0.5
		return trajectory, nil
	}

	trajectory.ReasoningSteps = response.ReasoningSteps
	trajectory.GeneratedCode = response.GeneratedCode
	trajectory.Confidence = response.Confidence
	trajectory.UsedStrategies = response.UsedStrategies
	return trajectory, nil
}

// ExecuteTrajectory runs the trajectory's generated code through the
// executor and records the outcome. With no code, or no executor, the
// trajectory is considered successful as generated.
func (g *Generator) ExecuteTrajectory(ctx context.Context, trajectory *Trajectory, executor func(ctx context.Context, code string) (string, error)) *Trajectory {
	if trajectory.GeneratedCode == "" || executor == nil {
		trajectory.Success = true
		trajectory.ExecutionResult = "No code to execute"
		return trajectory
	}

	result, err := executor(ctx, trajectory.GeneratedCode)
	if err != nil {
		trajectory.Success = false
		trajectory.ErrorMessage = err.Error()
		trajectory.ExecutionResult = fmt.Sprintf("Execution error: %v", err)
		return trajectory
	}
	trajectory.Success = true
	trajectory.ExecutionResult = result
	return trajectory
}

func (g *Generator) buildPrompt(query string, bullets []playbook.Bullet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Problem: %s\n\n", query)
	sb.WriteString(formatBullets(bullets))
	if g.tools != nil && g.tools.Len() > 0 {
		sb.WriteString("\nAvailable tools:\n")
		for _, tool := range g.tools.List() {
			fmt.Fprintf(&sb, "- %s: %s\n", tool.Name(), tool.Description())
		}
	}
	sb.WriteString("\nPlease solve this problem using the playbook strategies and your reasoning.")
	return sb.String()
}

// formatBullets renders retrieved guidance grouped by section, with
// each bullet's derived tag.
func formatBullets(bullets []playbook.Bullet) string {
	if len(bullets) == 0 {
		return "No relevant strategies found in playbook.\n"
	}

	var sb strings.Builder
	sb.WriteString("ACE Playbook:\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	var sections []string
	bySection := make(map[string][]playbook.Bullet)
	for _, b := range bullets {
		if _, seen := bySection[b.Section]; !seen {
			sections = append(sections, b.Section)
		}
		bySection[b.Section] = append(bySection[b.Section], b)
	}

	for _, section := range sections {
		fmt.Fprintf(&sb, "\n%s:\n", strings.ToUpper(section))
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, b := range bySection[section] {
			fmt.Fprintf(&sb, "[%s] %s\n", strings.ToUpper(string(b.Tag())), b.Content)
		}
	}

	sb.WriteString(strings.Repeat("=", 50) + "\n")
	return sb.String()
}
