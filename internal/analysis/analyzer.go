package analysis

import (
	"context"
	"strings"
	"time"

	"skillscope/internal/ai"
	"skillscope/internal/config"
	"skillscope/internal/errors"
	"skillscope/internal/fallback"
	"skillscope/internal/observability"
	"skillscope/internal/schema"
	"skillscope/internal/search"
	"skillscope/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Analyzer runs the skill-gap extraction pipeline. It holds no per-request
// state, so one Analyzer serves concurrent analyses.
type Analyzer struct {
	provider ai.CompletionProvider
	search   search.Client // nil when augmentation search is disabled
	fallback *fallback.Generator
	settings *config.AnalysisSettings
	logger   *errors.Logger
	metrics  *observability.Metrics
}

// NewAnalyzer wires the extraction pipeline. search may be nil; metrics may
// be nil when observability is disabled.
func NewAnalyzer(
	provider ai.CompletionProvider,
	searchClient search.Client,
	fallbackGen *fallback.Generator,
	settings *config.AnalysisSettings,
	logger *errors.Logger,
	metrics *observability.Metrics,
) *Analyzer {
	return &Analyzer{
		provider: provider,
		search:   searchClient,
		fallback: fallbackGen,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// Analyze extracts skill-gap records for one role transition.
//
// The pipeline is: build the evidence body, escalate to one augmentation
// search if the evidence is thin, make one extraction call, recover a JSON
// array from the completion, and validate the whole batch. A failure in the
// extract/parse/validate chain is resolved by the failure policy: "soft"
// substitutes deterministic fallback records, "hard" returns an
// AnalysisError naming the role pair and the failure kind.
func (a *Analyzer) Analyze(ctx context.Context, tc types.TransitionContext) ([]types.SkillGapAnalysis, error) {
	tracer := otel.Tracer("skillscope.analysis")
	ctx, span := tracer.Start(ctx, "analysis.analyze")
	defer span.End()

	span.SetAttributes(
		attribute.String("transition.current_role", tc.CurrentRole),
		attribute.String("transition.target_role", tc.TargetRole),
		attribute.Int("transition.passage_count", len(tc.Passages)),
	)

	if strings.TrimSpace(tc.CurrentRole) == "" || strings.TrimSpace(tc.TargetRole) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Both currentRole and targetRole are required", nil)
	}

	passages := tc.Passages
	evidence := buildEvidenceBody(passages)

	if threshold := a.settings.EvidenceThreshold(); len(evidence) < threshold {
		span.SetAttributes(attribute.Bool("analysis.augmented", true))
		passages = a.augment(ctx, tc, passages, len(evidence), threshold)
		evidence = buildEvidenceBody(passages)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policy := a.settings.FailurePolicy()
	span.SetAttributes(
		attribute.String("analysis.failure_policy", policy),
		attribute.Int("analysis.evidence_length", len(evidence)),
	)

	systemPrompt, userPrompt := buildPrompts(tc, evidence)

	start := time.Now()
	raw, usage, err := a.provider.Complete(ctx, systemPrompt, userPrompt)
	a.metrics.RecordExtractionDuration(ctx, time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return a.fail(ctx, span, tc, policy, FailureExtraction, err)
	}
	if usage != nil {
		a.metrics.RecordTokenUsage(ctx, usage.InputTokens, usage.OutputTokens)
	}

	payload, err := decodeCompletion(raw)
	if err != nil {
		return a.fail(ctx, span, tc, policy, FailureParse, err)
	}

	records, err := schema.Validate(payload)
	if err != nil {
		return a.fail(ctx, span, tc, policy, FailureValidation, err)
	}

	a.metrics.RecordAnalysis(ctx, policy, "success")
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("analysis.gap_count", len(records)),
	)
	return records, nil
}

// augment runs the single escalation search. Search failures are swallowed:
// the analysis proceeds with whatever evidence it already has.
func (a *Analyzer) augment(ctx context.Context, tc types.TransitionContext, passages []types.Passage, evidenceLen, threshold int) []types.Passage {
	if a.search == nil {
		a.logger.Debug("Evidence below threshold but augmentation search is disabled",
			"evidence_length", evidenceLen,
			"threshold", threshold)
		return passages
	}

	query := augmentationQuery(tc.TargetRole)
	a.logger.Info("Evidence below threshold, running augmentation search",
		"evidence_length", evidenceLen,
		"threshold", threshold,
		"query", query)

	results, err := a.search.Search(ctx, query)
	if err != nil {
		augErr := &AugmentationError{Query: query, Cause: err}
		a.logger.Warn("Augmentation search failed, continuing with existing evidence",
			"current_role", tc.CurrentRole,
			"target_role", tc.TargetRole,
			"error", augErr.Error())
		a.metrics.RecordAugmentation(ctx, false)
		return passages
	}

	a.metrics.RecordAugmentation(ctx, true)
	a.logger.Debug("Augmentation search returned passages", "count", len(results))

	merged := make([]types.Passage, 0, len(passages)+len(results))
	merged = append(merged, passages...)
	merged = append(merged, results...)
	return merged
}

// fail resolves an extraction/parse/validation failure per the policy.
func (a *Analyzer) fail(ctx context.Context, span trace.Span, tc types.TransitionContext, policy string, kind FailureKind, cause error) ([]types.SkillGapAnalysis, error) {
	span.RecordError(cause)
	span.SetAttributes(
		attribute.Bool("success", false),
		attribute.String("analysis.failure_kind", string(kind)),
	)

	if policy == config.FailurePolicySoft {
		a.logger.Warn("Analysis failed, substituting fallback records",
			"current_role", tc.CurrentRole,
			"target_role", tc.TargetRole,
			"failure_kind", string(kind),
			"error", cause.Error())
		a.metrics.RecordAnalysis(ctx, policy, "fallback")
		a.metrics.RecordFallback(ctx, string(kind))
		return a.fallback.Generate(tc.TargetRole), nil
	}

	a.logger.LogError(cause, "Analysis failed",
		"current_role", tc.CurrentRole,
		"target_role", tc.TargetRole,
		"failure_kind", string(kind))
	a.metrics.RecordAnalysis(ctx, policy, "error")
	return nil, &AnalysisError{
		CurrentRole: tc.CurrentRole,
		TargetRole:  tc.TargetRole,
		Kind:        kind,
		Cause:       cause,
	}
}

// BuildReport wraps analysis results with a unique ID for output and APIs.
func BuildReport(tc types.TransitionContext, gaps []types.SkillGapAnalysis) types.AnalysisReport {
	return types.AnalysisReport{
		AnalysisID:  uuid.NewString(),
		CurrentRole: tc.CurrentRole,
		TargetRole:  tc.TargetRole,
		SkillGaps:   gaps,
	}
}
