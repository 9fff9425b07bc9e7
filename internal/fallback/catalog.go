// Package fallback produces deterministic substitute skill-gap sets for
// deployments running the fail-soft policy. The per-role table is a stand-in
// for a real recommendation knowledge base, so the lookup is an interface the
// caller can swap without touching the extractor's control flow.
package fallback

import (
	"fmt"
	"strings"

	"skillscope/internal/types"
)

// Catalog maps a target role to a curated list of plausible skill gaps.
type Catalog interface {
	Lookup(targetRole string) ([]types.SkillGapAnalysis, bool)
}

// StaticCatalog is the built-in role table. Lookups are case-insensitive on
// the role name; the returned records are copies, so callers may mutate them.
type StaticCatalog struct {
	entries map[string][]types.SkillGapAnalysis
}

// NewStaticCatalog returns a catalog preloaded with the curated role table.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{entries: curatedRoles}
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(targetRole string) ([]types.SkillGapAnalysis, bool) {
	entry, ok := c.entries[strings.ToLower(strings.TrimSpace(targetRole))]
	if !ok {
		return nil, false
	}
	out := make([]types.SkillGapAnalysis, len(entry))
	copy(out, entry)
	return out, true
}

// Generator assembles the substitute result set served on analysis failure.
type Generator struct {
	catalog Catalog
}

// NewGenerator creates a generator backed by the given catalog.
func NewGenerator(catalog Catalog) *Generator {
	return &Generator{catalog: catalog}
}

// Generate returns the curated entries for the target role (if any) followed
// by the generic records. The output is fully determined by targetRole: two
// calls with the same role return content-equal sets.
func (g *Generator) Generate(targetRole string) []types.SkillGapAnalysis {
	gaps, _ := g.catalog.Lookup(targetRole)
	return append(gaps, genericGaps(targetRole)...)
}

// genericGaps are appended regardless of whether the role has a curated entry.
func genericGaps(targetRole string) []types.SkillGapAnalysis {
	return []types.SkillGapAnalysis{
		{
			SkillName:       "Technical Communication",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 60,
			MentionCount:    0,
			ContextSummary:  fmt.Sprintf("Explaining technical trade-offs to mixed audiences is expected of every %s.", targetRole),
		},
		{
			SkillName:       "Project Management",
			GapLevel:        types.GapLevelLow,
			ConfidenceScore: 55,
			MentionCount:    0,
			ContextSummary:  fmt.Sprintf("Coordinating delivery across teams comes up repeatedly in %s postings.", targetRole),
		},
	}
}

// curatedRoles is keyed by lowercased role name.
var curatedRoles = map[string][]types.SkillGapAnalysis{
	"machine learning engineer": {
		{
			SkillName:       "Deep Learning",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 85,
			MentionCount:    0,
			ContextSummary:  "Designing and training neural networks is core to a Machine Learning Engineer role.",
		},
		{
			SkillName:       "MLOps",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 75,
			MentionCount:    0,
			ContextSummary:  "Machine Learning Engineer positions expect experience productionizing and monitoring models.",
		},
		{
			SkillName:       "Distributed Systems",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 70,
			MentionCount:    0,
			ContextSummary:  "Training and serving at scale require distributed-systems fundamentals for a Machine Learning Engineer.",
		},
	},
	"data engineer": {
		{
			SkillName:       "Data Pipeline Orchestration",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 85,
			MentionCount:    0,
			ContextSummary:  "Building and scheduling reliable pipelines is the day-to-day of a Data Engineer.",
		},
		{
			SkillName:       "SQL Optimization",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 75,
			MentionCount:    0,
			ContextSummary:  "Data Engineer roles lean heavily on warehouse query tuning and data modeling.",
		},
	},
	"devops engineer": {
		{
			SkillName:       "Infrastructure as Code",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 85,
			MentionCount:    0,
			ContextSummary:  "Terraform-style provisioning is a baseline expectation for a DevOps Engineer.",
		},
		{
			SkillName:       "Kubernetes",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 80,
			MentionCount:    0,
			ContextSummary:  "Container orchestration appears in nearly every DevOps Engineer posting.",
		},
		{
			SkillName:       "CI/CD Pipelines",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 75,
			MentionCount:    0,
			ContextSummary:  "A DevOps Engineer owns the build and release automation end to end.",
		},
	},
	"product manager": {
		{
			SkillName:       "User Research",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 80,
			MentionCount:    0,
			ContextSummary:  "Grounding roadmap decisions in user evidence is central to a Product Manager role.",
		},
		{
			SkillName:       "Roadmap Prioritization",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 75,
			MentionCount:    0,
			ContextSummary:  "Product Manager positions expect structured prioritization across competing stakeholders.",
		},
	},
	"site reliability engineer": {
		{
			SkillName:       "Observability",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 85,
			MentionCount:    0,
			ContextSummary:  "Metrics, tracing and alerting design are foundational for a Site Reliability Engineer.",
		},
		{
			SkillName:       "Incident Response",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 75,
			MentionCount:    0,
			ContextSummary:  "Site Reliability Engineer roles run on-call rotations and structured postmortems.",
		},
	},
}
