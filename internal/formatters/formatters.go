package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillscope/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisReport", &ReportMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisReport:
		return "AnalysisReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter handles text formatting for analysis reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SKILL GAP ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Analysis ID: %s\n", report.AnalysisID))
	output.WriteString(fmt.Sprintf("Transition: %s -> %s\n\n", report.CurrentRole, report.TargetRole))

	if len(report.SkillGaps) == 0 {
		output.WriteString("No skill gaps identified.\n")
		return output.String(), nil
	}

	for i, gap := range report.SkillGaps {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, gap.SkillName))
		output.WriteString(fmt.Sprintf("   Gap Level: %s\n", gap.GapLevel))
		output.WriteString(fmt.Sprintf("   Confidence: %.0f/100\n", gap.ConfidenceScore))
		output.WriteString(fmt.Sprintf("   Mentions: %d\n", gap.MentionCount))
		output.WriteString(fmt.Sprintf("   Context: %s\n\n", gap.ContextSummary))
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "AnalysisReport"
}

// ReportMarkdownFormatter handles markdown formatting for analysis reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.AnalysisReport)
	if !ok {
		return "", fmt.Errorf("expected AnalysisReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Skill Gap Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Analysis ID:** `%s`\n\n", report.AnalysisID))
	output.WriteString(fmt.Sprintf("**Transition:** %s -> %s\n\n", report.CurrentRole, report.TargetRole))

	if len(report.SkillGaps) == 0 {
		output.WriteString("_No skill gaps identified._\n")
		return output.String(), nil
	}

	output.WriteString("| Skill | Gap Level | Confidence | Mentions |\n")
	output.WriteString("|-------|-----------|------------|----------|\n")
	for _, gap := range report.SkillGaps {
		output.WriteString(fmt.Sprintf("| %s | %s | %.0f | %d |\n",
			gap.SkillName, gap.GapLevel, gap.ConfidenceScore, gap.MentionCount))
	}
	output.WriteString("\n## Details\n\n")

	for _, gap := range report.SkillGaps {
		output.WriteString(fmt.Sprintf("### %s\n\n", gap.SkillName))
		output.WriteString(gap.ContextSummary)
		output.WriteString("\n\n")
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "AnalysisReport"
}

// GlobalRegistry is the default formatter registry used by output handlers
var GlobalRegistry = NewFormatterRegistry()
