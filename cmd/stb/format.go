package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"stb/internal/blueprint"
	"stb/internal/manifest"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the response as YAML. The value is round-tripped
// through JSON first so the YAML keys carry the same names as the JSON
// report contract.
func formatYAML(resp interface{}) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to decode intermediate JSON: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(out), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *AnalysisResponseCLI:
		return formatAnalysisHuman(v)
	case *LexResponseCLI:
		return formatLexHuman(v)
	case *HistoryResponseCLI:
		return formatHistoryHuman(v)
	case *HistoryShowResponseCLI:
		return formatHistoryShowHuman(v)
	case *manifest.BatchReport:
		return formatBatchHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// formatAnalysisHuman formats an AnalysisResponseCLI in human-readable format
func formatAnalysisHuman(resp *AnalysisResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Translation Blueprint: %s\n", resp.FileName))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.LexErrors) > 0 {
		b.WriteString("Lexical Errors:\n")
		for _, e := range resp.LexErrors {
			b.WriteString(fmt.Sprintf("  ! %s\n", e))
		}
		b.WriteString("\n")
	}

	writeBlueprint(&b, resp.Blueprint)

	if resp.SavedID != "" {
		b.WriteString(fmt.Sprintf("\nSaved to history: %s\n", resp.SavedID))
	}

	return b.String(), nil
}

// writeBlueprint renders the blueprint sections shared by analyze and
// history show.
func writeBlueprint(b *strings.Builder, bp *blueprint.Blueprint) {
	b.WriteString("Summary:\n")
	b.WriteString(fmt.Sprintf("  Priority:   %s\n", bp.Summary.TranslationPriority))
	b.WriteString(fmt.Sprintf("  Confidence: %s\n", bp.Summary.ConfidenceAssessment))
	b.WriteString(fmt.Sprintf("  Score:      %d\n", bp.Summary.ComplexityScore))
	b.WriteString(fmt.Sprintf("  Lines:      %d\n", bp.Summary.TotalLines))
	b.WriteString(fmt.Sprintf("  Tokens:     %d\n\n", bp.Summary.TotalTokens))

	b.WriteString("Construct Counts:\n")
	b.WriteString(fmt.Sprintf("  DATA Steps:        %d\n", bp.DetailedCounts.DataSteps))
	b.WriteString(fmt.Sprintf("  PROC Blocks:       %d\n", bp.DetailedCounts.ProcBlocks))
	b.WriteString(fmt.Sprintf("  PROC SQL Blocks:   %d\n", bp.DetailedCounts.ProcSQLBlocks))
	b.WriteString(fmt.Sprintf("  Macro Definitions: %d\n", bp.DetailedCounts.MacroDefinitions))
	b.WriteString(fmt.Sprintf("  Macro Calls:       %d\n", bp.DetailedCounts.MacroCalls))
	if len(bp.DetailedCounts.ProcTypesFound) > 0 {
		b.WriteString(fmt.Sprintf("  PROC Types:        %s\n", strings.Join(bp.DetailedCounts.ProcTypesFound, ", ")))
	}
	b.WriteString("\n")

	b.WriteString("Data Flow:\n")
	b.WriteString(fmt.Sprintf("  Datasets Created: %s\n", joinOrNone(bp.DataFlow.DatasetsCreated)))
	b.WriteString(fmt.Sprintf("  Datasets Used:    %s\n\n", joinOrNone(bp.DataFlow.DatasetsUsed)))

	if flags := complexityFlagLines(&bp.ComplexityFlags); len(flags) > 0 {
		b.WriteString("Complexity Flags:\n")
		for _, f := range flags {
			b.WriteString(fmt.Sprintf("  ! %s\n", f))
		}
		b.WriteString("\n")
	}

	b.WriteString("Recommendations:\n")
	for i, rec := range bp.Recommendations {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, rec))
	}
}

// complexityFlagLines converts the latched flags into display lines.
func complexityFlagLines(flags *blueprint.ComplexityFlags) []string {
	var lines []string
	if flags.HasRetainStatement {
		lines = append(lines, "RETAIN statement")
	}
	if flags.HasLagFunction {
		lines = append(lines, "LAG/DIF function")
	}
	if flags.HasMergeStatement {
		lines = append(lines, "MERGE statement")
	}
	if flags.HasArrayDeclarations {
		lines = append(lines, "ARRAY declarations")
	}
	if flags.PointerControlsCount > 0 {
		lines = append(lines, fmt.Sprintf("%d pointer controls", flags.PointerControlsCount))
	}
	if flags.HasLineHoldSingle {
		lines = append(lines, "trailing @ line hold")
	}
	if flags.HasLineHoldDouble {
		lines = append(lines, "trailing @@ line hold")
	}
	for _, concern := range flags.PlatformConcerns {
		lines = append(lines, fmt.Sprintf("platform concern: %s", concern))
	}
	return lines
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// formatLexHuman formats a LexResponseCLI in human-readable format
func formatLexHuman(resp *LexResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Token Stream: %s\n", resp.FileName))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Tokens: %d\n", resp.TokenCount))
	if len(resp.Errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors: %d\n", len(resp.Errors)))
	}
	b.WriteString("\n")

	for _, tok := range resp.Tokens {
		b.WriteString(fmt.Sprintf("  %4d  %-16s %s\n", tok.Line, tok.Kind, clipText(tok.Text)))
	}

	if len(resp.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range resp.Errors {
			b.WriteString(fmt.Sprintf("  ! %s\n", e))
		}
	}

	return b.String(), nil
}

// clipText makes token text safe for single-line display.
func clipText(text string) string {
	text = strings.ReplaceAll(text, "\n", "\\n")
	if len(text) > 48 {
		text = text[:45] + "..."
	}
	return text
}

// formatHistoryHuman formats a HistoryResponseCLI in human-readable format
func formatHistoryHuman(resp *HistoryResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Analysis History\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Analyses) == 0 {
		b.WriteString("No analyses recorded. Run 'stb analyze --save <file>' to add one.\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("%-8s  %-16s  %-24s %6s %6s  %s\n",
		"ID", "CREATED", "FILE", "LINES", "SCORE", "PRIORITY"))
	for _, a := range resp.Analyses {
		id := a.ID
		if len(id) > 8 {
			id = id[:8]
		}
		file := a.FileName
		if len(file) > 24 {
			file = file[:21] + "..."
		}
		b.WriteString(fmt.Sprintf("%-8s  %-16s  %-24s %6d %6d  %s\n",
			id, a.CreatedAt.Format("2006-01-02 15:04"), file, a.SourceLines, a.Score, a.Priority))
	}

	b.WriteString(fmt.Sprintf("\nShowing %d of %d analyses\n", len(resp.Analyses), resp.Total))

	return b.String(), nil
}

// formatHistoryShowHuman formats a HistoryShowResponseCLI in human-readable format
func formatHistoryShowHuman(resp *HistoryShowResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Analysis %s\n", resp.ID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString(fmt.Sprintf("File:    %s\n", resp.FileName))
	b.WriteString(fmt.Sprintf("Created: %s\n\n", resp.CreatedAt.Format("2006-01-02 15:04:05 MST")))

	if resp.Blueprint != nil {
		writeBlueprint(&b, resp.Blueprint)
	}

	if resp.Source != "" {
		b.WriteString("\nSource:\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		b.WriteString(resp.Source)
		if !strings.HasSuffix(resp.Source, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// formatBatchHuman formats a manifest.BatchReport in human-readable format
func formatBatchHuman(report *manifest.BatchReport) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Batch Analysis: %s\n", report.Manifest))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, prog := range report.Programs {
		if prog.Error != "" {
			b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", prog.Path, prog.Error))
			continue
		}
		b.WriteString(fmt.Sprintf("  ✓ %-32s %-6s  score %d, %d lines\n",
			prog.Path, prog.Priority, prog.Score, prog.Lines))
	}
	b.WriteString("\n")

	t := report.Totals
	b.WriteString(fmt.Sprintf("Programs: %d analyzed, %d failed\n", t.Analyzed, t.Failed))
	b.WriteString(fmt.Sprintf("Priority: %d high, %d medium, %d low\n", t.High, t.Medium, t.Low))
	b.WriteString(fmt.Sprintf("Totals:   %d lines, %d tokens\n", t.TotalLines, t.TotalTokens))

	return b.String(), nil
}
