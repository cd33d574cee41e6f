package blueprint

import (
	"strings"
	"testing"
)

func TestRecommendationsFallback(t *testing.T) {
	recs := Recommendations(&Findings{DataSteps: 3, ProcBlocks: 2})

	if len(recs) != 1 {
		t.Fatalf("expected single fallback recommendation, got %d: %v", len(recs), recs)
	}
	if recs[0] != "Code structure appears straightforward for automated translation." {
		t.Errorf("unexpected fallback text: %q", recs[0])
	}
}

func TestRecommendationsOrder(t *testing.T) {
	f := Findings{
		MacroDefinitions: 2,
		ProcSQLBlocks:    3,
		HasRetain:        true,
		HasLag:           true,
		PointerControls:  4,
		LineHoldSingle:   true,
		LineHoldDouble:   true,
		HasProcImport:    true,
		PlatformConcerns: map[string]bool{"OS command": true},
	}
	recs := Recommendations(&f)

	wantPrefixes := []string{
		"Manual review required for custom macro definitions.",
		"Verify logic of 3 PROC SQL block(s).",
		"RETAIN statements require stateful translation logic.",
		"LAG functions need special handling for row context.",
		"Column pointer controls (@) detected: 4 instance(s).",
		"Single trailing @ detected:",
		"Double trailing @@ detected:",
		"Platform-specific code: OS command.",
		"PROC IMPORT detected:",
	}

	if len(recs) != len(wantPrefixes) {
		t.Fatalf("expected %d recommendations, got %d: %v", len(wantPrefixes), len(recs), recs)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(recs[i], prefix) {
			t.Errorf("recommendation %d: expected prefix %q, got %q", i, prefix, recs[i])
		}
	}
}

func TestRecommendationsPlatformSorted(t *testing.T) {
	f := Findings{
		PlatformConcerns: map[string]bool{
			"filename pipe device": true,
			"OS command":           true,
			"absolute file path":   true,
		},
	}
	recs := Recommendations(&f)

	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	want := "Platform-specific code: OS command, absolute file path, filename pipe device. Review for portability."
	if recs[0] != want {
		t.Errorf("expected %q, got %q", want, recs[0])
	}
}

func TestRecommendationsDeterministic(t *testing.T) {
	f := Findings{
		MacroDefinitions: 1,
		HasRetain:        true,
		PlatformConcerns: map[string]bool{"OS command": true, "absolute file path": true},
	}

	first := Recommendations(&f)
	for i := 0; i < 10; i++ {
		again := Recommendations(&f)
		if len(again) != len(first) {
			t.Fatalf("recommendation count changed between runs")
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("recommendation %d changed: %q vs %q", j, first[j], again[j])
			}
		}
	}
}
