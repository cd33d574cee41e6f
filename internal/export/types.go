// Package export writes stored analyses to portable compressed archives.
// Archives are zstd-compressed JSON documents that can be read back without
// a database, so history can be moved between machines or attached to
// migration tickets.
package export

import (
	"encoding/json"
	"time"
)

// Archive is the top-level document written to an export file.
type Archive struct {
	Metadata Metadata `json:"metadata"`
	Analyses []Record `json:"analyses"`
}

// Metadata describes the archive and the tool that produced it.
type Metadata struct {
	Tool      string  `json:"tool"`
	Version   string  `json:"version"`
	Generated string  `json:"generated"` // ISO 8601 timestamp
	Count     int     `json:"count"`
	Summary   Summary `json:"summary"`
}

// Summary aggregates the archived analyses by translation priority.
type Summary struct {
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Low         int `json:"low"`
	TotalLines  int `json:"totalLines"`
	TotalTokens int `json:"totalTokens"`
}

// Record is one archived analysis. Blueprint carries the stored blueprint
// JSON verbatim; Source is only present when the export included sources.
type Record struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"createdAt"`
	FileName    string          `json:"fileName"`
	SourceLines int             `json:"sourceLines"`
	TokenCount  int             `json:"tokenCount"`
	ErrorCount  int             `json:"errorCount"`
	Score       int             `json:"score"`
	Priority    string          `json:"priority"`
	Blueprint   json.RawMessage `json:"blueprint"`
	Source      string          `json:"source,omitempty"`
}

// ExportOptions configures the export
type ExportOptions struct {
	Out           string // Output path (default: stb-analyses.json.zst)
	IncludeSource bool   // Embed original program text in each record
	Limit         int    // Limit total records (default: unlimited)
}

// DefaultOutputPath is used when no output path is given.
const DefaultOutputPath = "stb-analyses.json.zst"
