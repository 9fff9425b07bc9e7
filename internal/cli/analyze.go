package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillscope/internal/ai"
	"skillscope/internal/analysis"
	"skillscope/internal/common"
	"skillscope/internal/config"
	"skillscope/internal/errors"
	"skillscope/internal/fallback"
	"skillscope/internal/passages"
	"skillscope/internal/search"
	"skillscope/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [passages-file]",
	Short: "Analyze the skill gaps for a career transition",
	Long: `Analyze the skill gaps between a current role and a target role.

Evidence passages about the target role can come from a JSON file (an array
of {source, content, url} objects) or, when the passage store is enabled,
from the stored corpus for the role pair. When the evidence is below the
configured threshold, one augmentation search is issued for the target role.

Each identified gap carries a severity level, a confidence score, how often
the evidence mentions the skill, and a short context summary.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

var (
	analyzeCurrentRole string
	analyzeTargetRole  string
	analyzeSkills      string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCurrentRole, "current", "", "Current role (required)")
	analyzeCmd.Flags().StringVar(&analyzeTargetRole, "target", "", "Target role (required)")
	analyzeCmd.Flags().StringVar(&analyzeSkills, "skills", "", "Comma-separated list of existing skills")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.MarkFlagRequired("current")
	_ = analyzeCmd.MarkFlagRequired("target")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	evidence, err := loadEvidence(cmd, args, cfg, logger)
	if err != nil {
		return err
	}

	aiService, err := ai.NewService(&cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	var searchClient search.Client
	if cfg.Search.Enabled {
		searchClient = search.NewHTTPClient(&cfg.Search, logger)
	}

	analyzer := analysis.NewAnalyzer(
		aiService.Provider,
		searchClient,
		fallback.NewGenerator(fallback.NewStaticCatalog()),
		config.NewAnalysisSettings(&cfg.Analysis),
		logger,
		nil,
	)

	tc := types.TransitionContext{
		CurrentRole:    analyzeCurrentRole,
		TargetRole:     analyzeTargetRole,
		ExistingSkills: splitSkills(analyzeSkills),
		Passages:       evidence,
	}

	logger.Info("Starting skill-gap analysis",
		"current_role", tc.CurrentRole,
		"target_role", tc.TargetRole,
		"passage_count", len(tc.Passages),
		"output_format", analyzeConfig.OutputFormat)

	gaps, err := analyzer.Analyze(ctx, tc)
	if err != nil {
		return fmt.Errorf("failed to analyze skill gaps: %w", err)
	}

	report := analysis.BuildReport(tc, gaps)
	if err := common.NewOutputHandler(logger).HandleOutput(report, analyzeConfig); err != nil {
		return err
	}

	logger.Info("Skill-gap analysis completed successfully",
		"analysis_id", report.AnalysisID,
		"gap_count", len(gaps))
	return nil
}

// loadEvidence reads passages from the file argument when given, otherwise
// from the passage store when enabled. No evidence at all is still valid:
// the analyzer escalates to augmentation search on thin evidence.
func loadEvidence(cmd *cobra.Command, args []string, cfg *config.Config, logger *errors.Logger) ([]types.Passage, error) {
	if len(args) == 1 {
		content, err := common.NewFileProcessor(logger).ReadPassagesFile(args[0])
		if err != nil {
			return nil, err
		}
		var evidence []types.Passage
		if err := json.Unmarshal([]byte(content), &evidence); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Passages file %s is not a JSON array of passages", args[0]), err)
		}
		return evidence, nil
	}

	if cfg.Passages.Enabled {
		store, err := passages.NewPostgresStore(cmd.Context(), cfg.Passages.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.FetchByTransition(cmd.Context(), analyzeCurrentRole, analyzeTargetRole)
	}

	logger.Debug("No passages file given and passage store disabled, starting with empty evidence")
	return nil, nil
}

func splitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
