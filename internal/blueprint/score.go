package blueprint

// Priority is the translation-readiness tier.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Score thresholds. These are fixed constants of the scoring model:
// changing them reclassifies every future input, so any change must
// ship as a new version.
const (
	highThreshold   = 25
	mediumThreshold = 15
)

// Score reduces findings to the weighted complexity score. Pure and
// deterministic: the same findings always produce the same score.
func Score(f *Findings) int {
	score := f.DataSteps*1 + f.ProcBlocks*1 + f.ProcSQLBlocks*2
	score += f.MacroDefinitions*5 + f.MacroCalls*2
	if f.HasRetain {
		score += 5
	}
	if f.HasLag {
		score += 5
	}
	if f.HasMerge {
		score += 3
	}
	if f.HasArrays {
		score += 3
	}
	score += f.PointerControls * 2
	if f.LineHoldDouble {
		score += 10
	}
	if f.LineHoldSingle {
		score += 8
	}
	score += 3 * len(f.PlatformConcerns)
	if f.HasProcImport {
		score += 10
	}
	return score
}

// Rank maps a score to its priority tier and confidence text.
func Rank(score int) (Priority, string) {
	switch {
	case score > highThreshold:
		return PriorityHigh, "Manual review strongly recommended"
	case score > mediumThreshold:
		return PriorityMedium, "Mixed automation with oversight"
	default:
		return PriorityLow, "Good candidate for automated translation"
	}
}
