// Package blueprint derives translation-readiness blueprints from SAS
// source: a single-pass token classifier, a fixed-weight score and
// priority reducer, a recommendation generator, and the assembler
// combining them into one report.
package blueprint

// Summary is the headline block of a blueprint.
type Summary struct {
	TranslationPriority  Priority `json:"translation_priority"`
	ConfidenceAssessment string   `json:"confidence_assessment"`
	ComplexityScore      int      `json:"complexity_score"`
	TotalLines           int      `json:"total_lines"`
	TotalTokens          int      `json:"total_tokens"`
}

// DetailedCounts reports construct counts. The key spellings are part
// of the report contract; presentation layers show them verbatim.
type DetailedCounts struct {
	DataSteps        int      `json:"DATA Steps"`
	ProcBlocks       int      `json:"PROC Blocks"`
	ProcSQLBlocks    int      `json:"PROC SQL Blocks"`
	MacroDefinitions int      `json:"Macro Definitions"`
	MacroCalls       int      `json:"Macro Calls"`
	ProcTypesFound   []string `json:"PROC Types Found"`
}

// DataFlow lists dataset names touched by the program, deduplicated
// and sorted.
type DataFlow struct {
	DatasetsCreated []string `json:"datasets_created"`
	DatasetsUsed    []string `json:"datasets_used"`
}

// ComplexityFlags surfaces the latched risk findings.
type ComplexityFlags struct {
	HasRetainStatement   bool     `json:"has_retain_statement"`
	HasLagFunction       bool     `json:"has_lag_function"`
	HasMergeStatement    bool     `json:"has_merge_statement"`
	HasArrayDeclarations bool     `json:"has_array_declarations"`
	PointerControlsCount int      `json:"pointer_controls_count"`
	HasLineHoldSingle    bool     `json:"has_line_hold_single"`
	HasLineHoldDouble    bool     `json:"has_line_hold_double"`
	PlatformConcerns     []string `json:"platform_concerns"`
}

// Blueprint is the translation-readiness report for one program. It
// is fully determined by the scan state plus the source dimensions;
// every list field is present even when empty.
type Blueprint struct {
	Summary         Summary         `json:"summary"`
	DetailedCounts  DetailedCounts  `json:"detailed_counts"`
	DataFlow        DataFlow        `json:"data_flow"`
	ComplexityFlags ComplexityFlags `json:"complexity_flags"`
	Recommendations []string        `json:"recommendations"`
}

// Assemble combines scan state with the source dimensions into the
// final report. No detection logic lives here.
func Assemble(st *ScanState, totalLines, totalTokens int) *Blueprint {
	f := &st.Findings
	score := Score(f)
	priority, confidence := Rank(score)

	return &Blueprint{
		Summary: Summary{
			TranslationPriority:  priority,
			ConfidenceAssessment: confidence,
			ComplexityScore:      score,
			TotalLines:           totalLines,
			TotalTokens:          totalTokens,
		},
		DetailedCounts: DetailedCounts{
			DataSteps:        f.DataSteps,
			ProcBlocks:       f.ProcBlocks,
			ProcSQLBlocks:    f.ProcSQLBlocks,
			MacroDefinitions: f.MacroDefinitions,
			MacroCalls:       f.MacroCalls,
			ProcTypesFound:   sortedKeys(f.ProcTypes),
		},
		DataFlow: DataFlow{
			DatasetsCreated: sortedKeys(f.DatasetsCreated),
			DatasetsUsed:    sortedKeys(f.DatasetsUsed),
		},
		ComplexityFlags: ComplexityFlags{
			HasRetainStatement:   f.HasRetain,
			HasLagFunction:       f.HasLag,
			HasMergeStatement:    f.HasMerge,
			HasArrayDeclarations: f.HasArrays,
			PointerControlsCount: f.PointerControls,
			HasLineHoldSingle:    f.LineHoldSingle,
			HasLineHoldDouble:    f.LineHoldDouble,
			PlatformConcerns:     sortedKeys(f.PlatformConcerns),
		},
		Recommendations: Recommendations(f),
	}
}
