package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/ace-go/pkg/ace"
	"github.com/XiaoConstantine/ace-go/pkg/config"
	"github.com/XiaoConstantine/ace-go/pkg/llm"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	"github.com/XiaoConstantine/ace-go/pkg/retrieval"
	"github.com/XiaoConstantine/ace-go/pkg/tools"
)

var (
	configPath string
	epochs     int
	noSave     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	adaptCmd.Flags().IntVar(&epochs, "epochs", 0, "training epochs (0 uses the configured default)")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the playbook after solving")

	rootCmd.AddCommand(solveCmd, adaptCmd, evaluateCmd, queryCmd, statsCmd, exportCmd)
}

// setup loads configuration, wires logging and assembles the
// framework with its persisted playbook.
func setup(ctx context.Context) (*ace.ACE, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, err
	}

	severity := logging.ParseSeverity(cfg.Logging.Level)
	outputs := []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(true))}
	if cfg.Logging.File != "" {
		fileOutput, err := logging.NewFileOutput(cfg.Logging.File)
		if err != nil {
			return nil, config.Config{}, err
		}
		outputs = append(outputs, fileOutput)
	}
	logging.SetLogger(logging.NewLogger(logging.Config{Severity: severity, Outputs: outputs}))

	client, err := llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey:  cfg.Provider.Anthropic.APIKey,
		BaseURL: cfg.Provider.Anthropic.BaseURL,
		Model:   cfg.Models.Generator.Model,
	})
	if err != nil {
		return nil, config.Config{}, err
	}

	store, err := ace.NewStoreFromConfig(cfg.Storage)
	if err != nil {
		return nil, config.Config{}, err
	}

	opts := []ace.Option{ace.WithStore(store)}
	if cfg.MCP.Enabled && len(cfg.MCP.Servers) > 0 {
		registry := tools.NewRegistry()
		for name, server := range cfg.MCP.Servers {
			if _, err := tools.StartServer(ctx, registry, name, server.Command, server.Args...); err != nil {
				return nil, config.Config{}, err
			}
		}
		opts = append(opts, ace.WithToolRegistry(registry))
	}

	framework, err := ace.New(cfg, client, opts...)
	if err != nil {
		return nil, config.Config{}, err
	}
	if err := framework.LoadPlaybook(ctx); err != nil {
		return nil, config.Config{}, err
	}
	return framework, cfg, nil
}

var solveCmd = &cobra.Command{
	Use:   "solve [query]",
	Short: "Solve a query with playbook guidance and learn from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		framework, _, err := setup(ctx)
		if err != nil {
			return err
		}

		result, err := framework.SolveQuery(ctx, args[0])
		if err != nil {
			return err
		}

		for i, step := range result.Trajectory.ReasoningSteps {
			fmt.Printf("%d. %s\n", i+1, step)
		}
		if result.Trajectory.GeneratedCode != "" {
			fmt.Printf("\nGenerated code:\n%s\n", result.Trajectory.GeneratedCode)
		}
		fmt.Printf("\nPlaybook: +%d bullets, %d credited, %d deduped, %d evicted\n",
			result.Summary.Added, result.Summary.Adjusted, result.Summary.Deduped, result.Summary.Evicted)

		if noSave {
			return nil
		}
		return framework.SavePlaybook(ctx)
	},
}

var adaptCmd = &cobra.Command{
	Use:   "adapt [training-file]",
	Short: "Run offline adaptation over a training set",
	Long: `Runs the offline adaptation loop over a training file with one sample
per line. A line may carry an expected answer after a tab character:

    what is 2+2<TAB>4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		framework, _, err := setup(ctx)
		if err != nil {
			return err
		}

		samples, err := readSamples(args[0])
		if err != nil {
			return err
		}

		report, err := framework.OfflineAdapt(ctx, samples, ace.AdaptOptions{Epochs: epochs})
		if err != nil {
			return err
		}

		for _, epoch := range report.Epochs {
			fmt.Printf("epoch %d: success rate %.2f, playbook size %d, %d added, %d deduped\n",
				epoch.Epoch, epoch.SuccessRate, epoch.PlaybookSize,
				epoch.Applied.Added, epoch.Applied.Deduped)
		}
		fmt.Printf("playbook grew from %d to %d bullets\n",
			report.InitialPlaybookSize, report.FinalPlaybookSize)

		return framework.SavePlaybook(ctx)
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [test-file]",
	Short: "Measure success rate on a test set without updating the playbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		framework, _, err := setup(ctx)
		if err != nil {
			return err
		}

		samples, err := readSamples(args[0])
		if err != nil {
			return err
		}

		report, err := framework.EvaluatePerformance(ctx, samples)
		if err != nil {
			return err
		}

		for _, result := range report.QueryResults {
			status := "ok"
			if !result.Success {
				status = "failed"
			}
			fmt.Printf("%-6s %.2f  %s\n", status, result.Confidence, result.Query)
		}
		fmt.Printf("%d/%d succeeded, success rate %.2f, average confidence %.2f\n",
			report.SuccessfulQueries, report.TotalQueries,
			report.SuccessRate, report.AverageConfidence)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Show the playbook bullets relevant to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		framework, cfg, err := setup(cmd.Context())
		if err != nil {
			return err
		}

		bullets := retrieval.Query(framework.Playbook(), args[0],
			cfg.ACE.MaxRetrievedBullets, cfg.ACE.MinBulletHelpfulness)
		if len(bullets) == 0 {
			fmt.Println("no relevant bullets")
			return nil
		}
		for _, b := range bullets {
			fmt.Printf("[%s] (%s, +%d/-%d) %s\n",
				b.Section, b.Tag(), b.HelpfulCount, b.HarmfulCount, b.Content)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the persisted playbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		framework, _, err := setup(cmd.Context())
		if err != nil {
			return err
		}

		stats := framework.PlaybookStats()
		fmt.Printf("bullets: %d\n", stats.TotalBullets)
		fmt.Println("sections:")
		for section, count := range stats.Sections {
			fmt.Printf("  %s: %d\n", section, count)
		}
		fmt.Println("tags:")
		for tag, count := range stats.Tags {
			fmt.Printf("  %s: %d\n", tag, count)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the playbook snapshot as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		framework, _, err := setup(cmd.Context())
		if err != nil {
			return err
		}

		data, err := framework.Playbook().MarshalSnapshot()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func readSamples(path string) ([]ace.AdaptSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []ace.AdaptSample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		query, truth, _ := strings.Cut(line, "\t")
		samples = append(samples, ace.AdaptSample{Query: query, GroundTruth: strings.TrimSpace(truth)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
