// Package eval validates the analyzer against a curated corpus of SAS
// samples. A suite file declares what priority (and optionally what
// score and flags) each sample must produce; mismatches mean a
// detection rule regressed.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"stb/internal/blueprint"
	"stb/internal/errors"
	"stb/internal/logging"
)

// Case is one expectation about a sample program.
type Case struct {
	// ID is a unique identifier for this case.
	ID string `toml:"id" json:"id"`

	// File is the sample path, relative to the suite file.
	File string `toml:"file" json:"file"`

	// Priority is the expected translation priority tier.
	Priority string `toml:"priority" json:"priority"`

	// Score optionally pins the exact complexity score.
	Score *int `toml:"score" json:"score,omitempty"`

	// Flags optionally name complexity flags that must latch, using the
	// blueprint's flag keys (e.g. has_retain_statement).
	Flags []string `toml:"flags" json:"flags,omitempty"`
}

// SuiteFile is the root structure of a suite declaration.
type SuiteFile struct {
	Version int    `toml:"version"`
	Cases   []Case `toml:"case"`
}

// CaseResult captures the outcome of a single case.
type CaseResult struct {
	Case        Case     `json:"case"`
	Passed      bool     `json:"passed"`
	GotPriority string   `json:"gotPriority,omitempty"`
	GotScore    int      `json:"gotScore"`
	Mismatches  []string `json:"mismatches,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// SuiteResult aggregates results across all cases.
type SuiteResult struct {
	TotalCases  int     `json:"totalCases"`
	PassedCases int     `json:"passedCases"`
	FailedCases int     `json:"failedCases"`
	PassRate    float64 `json:"passRate"`

	Results []CaseResult `json:"results"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Suite runs analyzer cases loaded from a suite file.
type Suite struct {
	baseDir string
	logger  *logging.Logger
	cases   []Case
}

// NewSuite creates an empty evaluation suite.
func NewSuite(logger *logging.Logger) *Suite {
	return &Suite{
		logger: logger,
		cases:  make([]Case, 0),
	}
}

// LoadSuite loads and validates cases from a TOML suite file. Sample
// paths resolve relative to the suite file's directory.
func (s *Suite) LoadSuite(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewStbError(
			errors.SuiteInvalid,
			fmt.Sprintf("failed to read suite %s", path),
			err, nil, nil,
		)
	}

	var suiteFile SuiteFile
	if err := toml.Unmarshal(data, &suiteFile); err != nil {
		return errors.NewStbError(
			errors.SuiteInvalid,
			fmt.Sprintf("failed to parse suite %s", path),
			err, nil, nil,
		)
	}

	if err := validateCases(suiteFile.Cases); err != nil {
		return err
	}

	s.baseDir = filepath.Dir(path)
	s.cases = append(s.cases, suiteFile.Cases...)
	return nil
}

// AddCase adds a single case programmatically.
func (s *Suite) AddCase(c Case) {
	s.cases = append(s.cases, c)
}

// validateCases checks suite declarations for structural problems
func validateCases(cases []Case) error {
	var problems []string
	seen := make(map[string]bool)

	for i, c := range cases {
		label := c.ID
		if label == "" {
			label = fmt.Sprintf("case #%d", i+1)
			problems = append(problems, fmt.Sprintf("%s: missing required 'id' field", label))
		}
		if seen[c.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", label))
		}
		seen[c.ID] = true

		if c.File == "" {
			problems = append(problems, fmt.Sprintf("%s: missing required 'file' field", label))
		}

		switch blueprint.Priority(c.Priority) {
		case blueprint.PriorityLow, blueprint.PriorityMedium, blueprint.PriorityHigh:
		default:
			problems = append(problems, fmt.Sprintf("%s: priority %q is not Low, Medium, or High", label, c.Priority))
		}

		for _, flag := range c.Flags {
			if !knownFlag(flag) {
				problems = append(problems, fmt.Sprintf("%s: unknown flag %q", label, flag))
			}
		}
	}

	if len(problems) > 0 {
		return errors.NewStbError(
			errors.SuiteInvalid,
			fmt.Sprintf("%d problem(s) in suite", len(problems)),
			nil, nil, nil,
		).WithDetails(problems)
	}
	return nil
}

// Run analyzes every case sample and compares against expectations.
// Cases run in ID order so reports are stable across runs.
func (s *Suite) Run() (*SuiteResult, error) {
	if len(s.cases) == 0 {
		return nil, fmt.Errorf("no cases loaded")
	}

	ordered := make([]Case, len(s.cases))
	copy(ordered, s.cases)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	result := &SuiteResult{
		StartTime:  time.Now(),
		TotalCases: len(ordered),
		Results:    make([]CaseResult, 0, len(ordered)),
	}

	for _, c := range ordered {
		cr := s.runCase(c)
		result.Results = append(result.Results, cr)
		if cr.Passed {
			result.PassedCases++
		} else {
			result.FailedCases++
		}
	}

	result.EndTime = time.Now()
	result.PassRate = float64(result.PassedCases) / float64(result.TotalCases) * 100

	s.logger.Info("Suite finished", map[string]interface{}{
		"total":  result.TotalCases,
		"passed": result.PassedCases,
		"failed": result.FailedCases,
	})

	return result, nil
}

// runCase analyzes one sample and checks its expectations
func (s *Suite) runCase(c Case) CaseResult {
	cr := CaseResult{Case: c}

	samplePath := c.File
	if !filepath.IsAbs(samplePath) {
		samplePath = filepath.Join(s.baseDir, filepath.FromSlash(c.File))
	}

	data, err := os.ReadFile(samplePath)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	bp := blueprint.Analyze(string(data)).Blueprint
	cr.GotPriority = string(bp.Summary.TranslationPriority)
	cr.GotScore = bp.Summary.ComplexityScore

	if cr.GotPriority != c.Priority {
		cr.Mismatches = append(cr.Mismatches,
			fmt.Sprintf("priority: got %s, want %s", cr.GotPriority, c.Priority))
	}
	if c.Score != nil && cr.GotScore != *c.Score {
		cr.Mismatches = append(cr.Mismatches,
			fmt.Sprintf("score: got %d, want %d", cr.GotScore, *c.Score))
	}
	for _, flag := range c.Flags {
		if !flagSet(&bp.ComplexityFlags, flag) {
			cr.Mismatches = append(cr.Mismatches,
				fmt.Sprintf("flag %s: not set", flag))
		}
	}

	cr.Passed = len(cr.Mismatches) == 0
	return cr
}

// Flag keys match the blueprint's complexity_flags JSON spelling.
const (
	FlagRetain         = "has_retain_statement"
	FlagLag            = "has_lag_function"
	FlagMerge          = "has_merge_statement"
	FlagArrays         = "has_array_declarations"
	FlagLineHoldSingle = "has_line_hold_single"
	FlagLineHoldDouble = "has_line_hold_double"
)

func knownFlag(name string) bool {
	switch name {
	case FlagRetain, FlagLag, FlagMerge, FlagArrays, FlagLineHoldSingle, FlagLineHoldDouble:
		return true
	}
	return false
}

func flagSet(flags *blueprint.ComplexityFlags, name string) bool {
	switch name {
	case FlagRetain:
		return flags.HasRetainStatement
	case FlagLag:
		return flags.HasLagFunction
	case FlagMerge:
		return flags.HasMergeStatement
	case FlagArrays:
		return flags.HasArrayDeclarations
	case FlagLineHoldSingle:
		return flags.HasLineHoldSingle
	case FlagLineHoldDouble:
		return flags.HasLineHoldDouble
	}
	return false
}

// FormatReport generates a human-readable report.
func (r *SuiteResult) FormatReport() string {
	var sb strings.Builder

	sb.WriteString("=== Analyzer Evaluation Report ===\n\n")
	fmt.Fprintf(&sb, "Total Cases: %d\n", r.TotalCases)
	fmt.Fprintf(&sb, "Passed:      %d (%.1f%%)\n", r.PassedCases, r.PassRate)
	fmt.Fprintf(&sb, "Failed:      %d\n", r.FailedCases)
	fmt.Fprintf(&sb, "Duration:    %v\n\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))

	failed := make([]CaseResult, 0)
	for _, cr := range r.Results {
		if !cr.Passed {
			failed = append(failed, cr)
		}
	}

	if len(failed) > 0 {
		sb.WriteString("Failed Cases:\n")
		for _, cr := range failed {
			fmt.Fprintf(&sb, "  [%s] %s\n", cr.Case.ID, cr.Case.File)
			for _, m := range cr.Mismatches {
				fmt.Fprintf(&sb, "    %s\n", m)
			}
			if cr.Error != "" {
				fmt.Fprintf(&sb, "    Error: %s\n", cr.Error)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSON returns the result as JSON.
func (r *SuiteResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
