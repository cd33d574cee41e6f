package blueprint

import "testing"

func TestScoreEmpty(t *testing.T) {
	f := &Findings{}
	if got := Score(f); got != 0 {
		t.Errorf("expected score 0 for empty findings, got %d", got)
	}
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name string
		f    Findings
		want int
	}{
		{"data step", Findings{DataSteps: 1}, 1},
		{"proc block", Findings{ProcBlocks: 1}, 1},
		{"proc sql", Findings{ProcSQLBlocks: 1}, 2},
		{"macro definition", Findings{MacroDefinitions: 1}, 5},
		{"macro call", Findings{MacroCalls: 1}, 2},
		{"retain", Findings{HasRetain: true}, 5},
		{"lag", Findings{HasLag: true}, 5},
		{"merge", Findings{HasMerge: true}, 3},
		{"arrays", Findings{HasArrays: true}, 3},
		{"pointer controls", Findings{PointerControls: 2}, 4},
		{"line hold double", Findings{LineHoldDouble: true}, 10},
		{"line hold single", Findings{LineHoldSingle: true}, 8},
		{"platform concern", Findings{PlatformConcerns: map[string]bool{"OS command": true}}, 3},
		{"proc import", Findings{HasProcImport: true}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.f); got != tt.want {
				t.Errorf("expected score %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreAdditive(t *testing.T) {
	f := Findings{
		DataSteps:        2,
		ProcBlocks:       2,
		ProcSQLBlocks:    1,
		MacroDefinitions: 1,
		MacroCalls:       1,
		HasRetain:        true,
		HasLag:           true,
		HasMerge:         true,
		HasArrays:        true,
		HasProcImport:    true,
		PlatformConcerns: map[string]bool{"absolute file path": true},
	}
	// 2 + 2 + 2 + 5 + 2 + 5 + 5 + 3 + 3 + 10 + 3
	if got := Score(&f); got != 42 {
		t.Errorf("expected score 42, got %d", got)
	}
}

func TestRankThresholds(t *testing.T) {
	tests := []struct {
		score      int
		priority   Priority
		confidence string
	}{
		{0, PriorityLow, "Good candidate for automated translation"},
		{15, PriorityLow, "Good candidate for automated translation"},
		{16, PriorityMedium, "Mixed automation with oversight"},
		{25, PriorityMedium, "Mixed automation with oversight"},
		{26, PriorityHigh, "Manual review strongly recommended"},
		{100, PriorityHigh, "Manual review strongly recommended"},
	}

	for _, tt := range tests {
		priority, confidence := Rank(tt.score)
		if priority != tt.priority {
			t.Errorf("Rank(%d) priority = %v, want %v", tt.score, priority, tt.priority)
		}
		if confidence != tt.confidence {
			t.Errorf("Rank(%d) confidence = %q, want %q", tt.score, confidence, tt.confidence)
		}
	}
}

func TestRankMonotonic(t *testing.T) {
	order := map[Priority]int{PriorityLow: 0, PriorityMedium: 1, PriorityHigh: 2}

	prev := PriorityLow
	for score := 0; score <= 60; score++ {
		priority, _ := Rank(score)
		if order[priority] < order[prev] {
			t.Fatalf("priority dropped from %v to %v at score %d", prev, priority, score)
		}
		prev = priority
	}
}
