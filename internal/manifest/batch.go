package manifest

import (
	"os"
	"path"
	"sort"
	"strings"

	"stb/internal/blueprint"
	"stb/internal/logging"
	"stb/internal/paths"
)

// ProgramReport is the per-program slice of a batch report
type ProgramReport struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	SHA256    string   `json:"sha256,omitempty"`
	Lines     int      `json:"lines"`
	Tokens    int      `json:"tokens"`
	LexErrors int      `json:"lexErrors"`
	Score     int      `json:"score"`
	Priority  string   `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Owner     string   `json:"owner,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// BatchTotals aggregates counts across a batch run
type BatchTotals struct {
	Programs    int `json:"programs"`
	Analyzed    int `json:"analyzed"`
	Failed      int `json:"failed"`
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Low         int `json:"low"`
	TotalLines  int `json:"totalLines"`
	TotalTokens int `json:"totalTokens"`
}

// BatchReport is the combined result of analyzing every declared program.
// Programs are ordered by score descending, then path, so the riskiest
// translations surface first.
type BatchReport struct {
	Manifest string          `json:"manifest"`
	Programs []ProgramReport `json:"programs"`
	Totals   BatchTotals     `json:"totals"`
}

// Runner analyzes the programs a manifest declares
type Runner struct {
	logger *logging.Logger
}

// NewRunner creates a batch runner
func NewRunner(logger *logging.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run analyzes every program in the manifest. Unreadable programs are
// reported with an error instead of aborting the batch.
func (r *Runner) Run(workspaceRoot string, man *Manifest) *BatchReport {
	report := &BatchReport{
		Manifest: DeclarationFile,
		Programs: make([]ProgramReport, 0, len(man.Programs)),
	}

	for _, decl := range man.Programs {
		report.Programs = append(report.Programs, r.analyzeProgram(workspaceRoot, decl))
	}

	sort.Slice(report.Programs, func(i, j int) bool {
		a, b := report.Programs[i], report.Programs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Path < b.Path
	})

	for _, prog := range report.Programs {
		report.Totals.Programs++
		if prog.Error != "" {
			report.Totals.Failed++
			continue
		}
		report.Totals.Analyzed++
		report.Totals.TotalLines += prog.Lines
		report.Totals.TotalTokens += prog.Tokens

		switch blueprint.Priority(prog.Priority) {
		case blueprint.PriorityHigh:
			report.Totals.High++
		case blueprint.PriorityMedium:
			report.Totals.Medium++
		default:
			report.Totals.Low++
		}
	}

	return report
}

// analyzeProgram reads and analyzes one declared program
func (r *Runner) analyzeProgram(workspaceRoot string, decl ProgramDeclaration) ProgramReport {
	prog := ProgramReport{
		ID:    decl.ID,
		Name:  decl.Name,
		Path:  paths.NormalizePath(decl.Path),
		Tags:  decl.Tags,
		Owner: decl.Owner,
	}
	if prog.ID == "" {
		prog.ID = GenerateStableProgramID(decl.Path)
	}
	if prog.Name == "" {
		prog.Name = baseName(prog.Path)
	}

	data, err := os.ReadFile(paths.JoinWorkspacePath(workspaceRoot, prog.Path))
	if err != nil {
		r.logger.Warn("Failed to read program", map[string]interface{}{
			"path":  prog.Path,
			"error": err.Error(),
		})
		prog.Error = err.Error()
		return prog
	}

	prog.SHA256 = HashContent(data)

	result := blueprint.Analyze(string(data))
	summary := result.Blueprint.Summary
	prog.Lines = summary.TotalLines
	prog.Tokens = summary.TotalTokens
	prog.LexErrors = len(result.Errors)
	prog.Score = summary.ComplexityScore
	prog.Priority = string(summary.TranslationPriority)

	r.logger.Debug("Analyzed program", map[string]interface{}{
		"path":     prog.Path,
		"score":    prog.Score,
		"priority": prog.Priority,
	})

	return prog
}

// baseName returns the final path element without its extension
func baseName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
