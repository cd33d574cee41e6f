package export

import (
	"fmt"
	"strings"

	"stb/internal/blueprint"
)

// Summarize aggregates records by translation priority for the archive
// metadata header.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch blueprint.Priority(r.Priority) {
		case blueprint.PriorityHigh:
			s.High++
		case blueprint.PriorityMedium:
			s.Medium++
		default:
			s.Low++
		}
		s.TotalLines += r.SourceLines
		s.TotalTokens += r.TokenCount
	}
	return s
}

// FormatSummary renders archive metadata as a short human-readable block.
func FormatSummary(path string, meta *Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exported %d analyses to %s\n", meta.Count, path)
	fmt.Fprintf(&b, "  Priority: %d high, %d medium, %d low\n",
		meta.Summary.High, meta.Summary.Medium, meta.Summary.Low)
	fmt.Fprintf(&b, "  Totals:   %d lines, %d tokens\n",
		meta.Summary.TotalLines, meta.Summary.TotalTokens)
	return b.String()
}
