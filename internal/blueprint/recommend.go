package blueprint

import (
	"fmt"
	"strings"
)

// Recommendations renders advisory notes from the findings. The rule
// order is a contract: downstream reports rely on it being stable. If
// nothing fired, a single fallback note is returned instead of an
// empty list.
func Recommendations(f *Findings) []string {
	var recs []string

	if f.MacroDefinitions > 0 {
		recs = append(recs, "Manual review required for custom macro definitions.")
	}
	if f.ProcSQLBlocks > 0 {
		recs = append(recs, fmt.Sprintf("Verify logic of %d PROC SQL block(s).", f.ProcSQLBlocks))
	}
	if f.HasRetain {
		recs = append(recs, "RETAIN statements require stateful translation logic.")
	}
	if f.HasLag {
		recs = append(recs, "LAG functions need special handling for row context.")
	}
	if f.PointerControls > 0 {
		recs = append(recs, fmt.Sprintf(
			"Column pointer controls (@) detected: %d instance(s). Requires careful input parsing translation.",
			f.PointerControls))
	}
	if f.LineHoldSingle {
		recs = append(recs, "Single trailing @ detected: Line hold requires stateful INPUT buffer management.")
	}
	if f.LineHoldDouble {
		recs = append(recs, "Double trailing @@ detected: Complex line hold across multiple records.")
	}
	if len(f.PlatformConcerns) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Platform-specific code: %s. Review for portability.",
			strings.Join(sortedKeys(f.PlatformConcerns), ", ")))
	}
	if f.HasProcImport {
		recs = append(recs, "PROC IMPORT detected: Requires manual mapping to pandas.read_csv()/read_excel() with specific parameter analysis.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Code structure appears straightforward for automated translation.")
	}
	return recs
}
