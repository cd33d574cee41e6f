package blueprint

import "sort"

// Findings accumulates what the classifier observed. Counters only
// grow and boolean flags latch: once true they stay true for the rest
// of the scan. Sets are deduplicated and case-normalized.
type Findings struct {
	DataSteps        int
	ProcBlocks       int
	ProcSQLBlocks    int
	MacroDefinitions int
	MacroCalls       int
	PointerControls  int

	HasRetain      bool
	HasLag         bool
	HasMerge       bool
	HasArrays      bool
	LineHoldSingle bool
	LineHoldDouble bool
	HasProcImport  bool

	ProcTypes        map[string]bool
	DatasetsCreated  map[string]bool
	DatasetsUsed     map[string]bool
	PlatformConcerns map[string]bool
}

// Context tracks which construct the scan is currently inside. Unlike
// Findings these toggle as boundaries are crossed, and they are
// scan-internal: they never surface in the blueprint.
type Context struct {
	InDataStep  bool
	InProcBlock bool
	CurrentProc string
}

// ScanState is the mutable accumulator for one classifier run. Each
// run gets a fresh instance; state is never shared or reused.
type ScanState struct {
	Findings Findings
	Context  Context
}

// NewScanState returns an empty state with initialized sets.
func NewScanState() *ScanState {
	return &ScanState{
		Findings: Findings{
			ProcTypes:        make(map[string]bool),
			DatasetsCreated:  make(map[string]bool),
			DatasetsUsed:     make(map[string]bool),
			PlatformConcerns: make(map[string]bool),
		},
	}
}

// sortedKeys returns the set's members in sorted order. The result is
// never nil so empty sets serialize as [] rather than null.
func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
