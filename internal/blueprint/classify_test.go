package blueprint

import (
	"reflect"
	"testing"

	"stb/internal/lexer"
)

func classify(src string) *ScanState {
	tokens, _ := lexer.Scan(src)
	return Classify(tokens, src)
}

func TestClassifyEmptySource(t *testing.T) {
	st := classify("")
	f := st.Findings

	if f.DataSteps != 0 || f.ProcBlocks != 0 || f.MacroDefinitions != 0 {
		t.Errorf("empty source should produce zero counters, got %+v", f)
	}
	if len(f.DatasetsCreated) != 0 || len(f.DatasetsUsed) != 0 {
		t.Errorf("empty source should produce empty sets, got %+v", f)
	}
}

func TestClassifySimpleStep(t *testing.T) {
	st := classify("DATA out; SET in; RUN;")
	f := st.Findings

	if f.DataSteps != 1 {
		t.Errorf("expected 1 data step, got %d", f.DataSteps)
	}
	if !f.DatasetsCreated["OUT"] {
		t.Errorf("expected OUT in datasets_created, got %v", sortedKeys(f.DatasetsCreated))
	}
	if !f.DatasetsUsed["IN"] {
		t.Errorf("expected IN in datasets_used, got %v", sortedKeys(f.DatasetsUsed))
	}
	if st.Context.InDataStep {
		t.Error("RUN should close the data step context")
	}
}

func TestClassifyDataStepGuards(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		steps int
	}{
		{"null step", "data _null_; put 'hi'; run;", 0},
		{"step option", "data step; run;", 0},
		{"data equals option", "proc print data=master; run;", 0},
		{"paren view", "data (view=v); run;", 0},
		{"plain step", "data out; run;", 1},
		{"case insensitive", "DaTa OuT; rUn;", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := classify(tt.src)
			if st.Findings.DataSteps != tt.steps {
				t.Errorf("expected %d data steps, got %d", tt.steps, st.Findings.DataSteps)
			}
		})
	}
}

func TestClassifyMultipleOutputs(t *testing.T) {
	st := classify("data report extras work.final; run;")
	f := st.Findings

	if f.DataSteps != 1 {
		t.Errorf("expected 1 data step, got %d", f.DataSteps)
	}
	want := []string{"EXTRAS", "REPORT", "WORK.FINAL"}
	if got := sortedKeys(f.DatasetsCreated); !reflect.DeepEqual(got, want) {
		t.Errorf("expected created %v, got %v", want, got)
	}
}

func TestClassifyDatasetOptions(t *testing.T) {
	src := "data out(keep=a b); set in1(where=(x>1)) lib.in2 end=eof; run;"
	st := classify(src)
	f := st.Findings

	if got := sortedKeys(f.DatasetsCreated); !reflect.DeepEqual(got, []string{"OUT"}) {
		t.Errorf("expected created [OUT], got %v", got)
	}
	want := []string{"IN1", "LIB.IN2"}
	if got := sortedKeys(f.DatasetsUsed); !reflect.DeepEqual(got, want) {
		t.Errorf("expected used %v, got %v", want, got)
	}
	// end=eof is an option, not a dataset
	if f.DatasetsUsed["EOF"] || f.DatasetsUsed["END"] {
		t.Errorf("option tokens leaked into datasets_used: %v", sortedKeys(f.DatasetsUsed))
	}
}

func TestClassifyConsecutiveSteps(t *testing.T) {
	t.Run("closed by run", func(t *testing.T) {
		st := classify("data a; run; data b; run;")
		if st.Findings.DataSteps != 2 {
			t.Errorf("expected 2 data steps, got %d", st.Findings.DataSteps)
		}
	})

	t.Run("unterminated step absorbs the next", func(t *testing.T) {
		// Without RUN the context never closes, so the second DATA
		// does not open a new step.
		st := classify("data a; x = 1; data b; run;")
		if st.Findings.DataSteps != 1 {
			t.Errorf("expected 1 data step, got %d", st.Findings.DataSteps)
		}
	})
}

func TestClassifyProcBlocks(t *testing.T) {
	src := `proc sort data=raw out=clean; by id; run;
proc means; run;
proc sql;
  create table t as select * from clean;
quit;`
	st := classify(src)
	f := st.Findings

	if f.ProcBlocks != 3 {
		t.Errorf("expected 3 proc blocks, got %d", f.ProcBlocks)
	}
	if f.ProcSQLBlocks != 1 {
		t.Errorf("expected 1 proc sql block, got %d", f.ProcSQLBlocks)
	}
	want := []string{"MEANS", "SORT", "SQL"}
	if got := sortedKeys(f.ProcTypes); !reflect.DeepEqual(got, want) {
		t.Errorf("expected proc types %v, got %v", want, got)
	}
}

func TestClassifyProcImport(t *testing.T) {
	st := classify(`proc import datafile="data.csv" out=parts; run;`)
	f := st.Findings

	if !f.HasProcImport {
		t.Error("expected has_proc_import latch")
	}
	if !f.ProcTypes["IMPORT"] {
		t.Errorf("expected IMPORT in proc types, got %v", sortedKeys(f.ProcTypes))
	}
}

func TestClassifyMacros(t *testing.T) {
	src := `%macro report(ds);
  proc print data=&ds; run;
%mend report;
%report(work.sales);
%let x = 1;
%put &x;`
	st := classify(src)
	f := st.Findings

	if f.MacroDefinitions != 1 {
		t.Errorf("expected 1 macro definition, got %d", f.MacroDefinitions)
	}
	if f.MacroCalls != 1 {
		t.Errorf("expected 1 macro call, got %d", f.MacroCalls)
	}
}

func TestClassifyMacroReservedNotCalls(t *testing.T) {
	src := `%macro a; %if 1 %then %do; %put hi; %end; %mend;
%sysfunc(upcase(x))`
	st := classify(src)
	f := st.Findings

	// %if/%then/%do/%put/%end/%mend/%sysfunc are macro-language
	// tokens, not user macro invocations
	if f.MacroCalls != 0 {
		t.Errorf("expected 0 macro calls, got %d", f.MacroCalls)
	}
	if f.MacroDefinitions != 1 {
		t.Errorf("expected 1 macro definition, got %d", f.MacroDefinitions)
	}
}

func TestClassifyNestedMacroDefinitions(t *testing.T) {
	st := classify("%macro outer; %macro inner; %mend inner; %mend outer;")
	if st.Findings.MacroDefinitions != 2 {
		t.Errorf("expected 2 macro definitions, got %d", st.Findings.MacroDefinitions)
	}
}

func TestClassifyRetainArrayMerge(t *testing.T) {
	src := `data out;
  merge left right;
  by id;
  retain total 0;
  array vals{3} v1-v3;
run;`
	st := classify(src)
	f := st.Findings

	if !f.HasRetain {
		t.Error("expected has_retain latch")
	}
	if !f.HasArrays {
		t.Error("expected has_arrays latch")
	}
	if !f.HasMerge {
		t.Error("expected has_merge latch")
	}
	want := []string{"LEFT", "RIGHT"}
	if got := sortedKeys(f.DatasetsUsed); !reflect.DeepEqual(got, want) {
		t.Errorf("expected used %v, got %v", want, got)
	}
}

func TestClassifyMergeOutsideDataStep(t *testing.T) {
	// MERGE is only a merge statement inside a data step
	st := classify("merge a b;")
	if st.Findings.HasMerge {
		t.Error("merge outside a data step should not latch")
	}
}

func TestClassifyLag(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"lag call", "data a; y = lag(x); run;", true},
		{"numbered lag", "data a; y = lag12(x); run;", true},
		{"lag without call", "data a; lag = 1; run;", false},
		{"identifier prefix", "data a; y = lagoon(x); run;", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := classify(tt.src)
			if st.Findings.HasLag != tt.want {
				t.Errorf("HasLag = %v, want %v", st.Findings.HasLag, tt.want)
			}
		})
	}
}

func TestClassifyPointerControls(t *testing.T) {
	src := `data fixed;
  infile raw;
  input @1 id 8. @12 name $20. @(col+1) extra;
run;`
	st := classify(src)
	f := st.Findings

	if f.PointerControls != 3 {
		t.Errorf("expected 3 pointer controls, got %d", f.PointerControls)
	}
	if f.LineHoldSingle || f.LineHoldDouble {
		t.Error("pointer controls should not latch line holds")
	}
}

func TestClassifyLineHolds(t *testing.T) {
	t.Run("double trailing", func(t *testing.T) {
		st := classify("data pairs; input x y @@; run;")
		f := st.Findings
		if !f.LineHoldDouble {
			t.Error("expected line_hold_double latch")
		}
		if f.LineHoldSingle {
			t.Error("@@ must not also latch the single hold")
		}
	})

	t.Run("single trailing", func(t *testing.T) {
		st := classify("data head; input kind $ @; run;")
		f := st.Findings
		if !f.LineHoldSingle {
			t.Error("expected line_hold_single latch")
		}
		if f.LineHoldDouble {
			t.Error("single @ must not latch the double hold")
		}
	})

	t.Run("pointer and hold in one statement", func(t *testing.T) {
		st := classify("data rec; input @15 code $ @; run;")
		f := st.Findings
		if f.PointerControls != 1 {
			t.Errorf("expected 1 pointer control, got %d", f.PointerControls)
		}
		if !f.LineHoldSingle {
			t.Error("expected line_hold_single latch")
		}
	})

	t.Run("at outside input", func(t *testing.T) {
		st := classify("data a; x = 1; run; @@;")
		f := st.Findings
		if f.LineHoldSingle || f.LineHoldDouble || f.PointerControls != 0 {
			t.Error("@ tokens outside an INPUT statement should be ignored")
		}
	})
}

func TestClassifyPlatformConcerns(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"x command",
			`x 'rm -rf /tmp/scratch';`,
			[]string{"OS command"},
		},
		{
			"call system",
			`data _null_; call system('dir'); run;`,
			[]string{"OS command"},
		},
		{
			"systask",
			`systask command "backup.cmd" wait;`,
			[]string{"OS command"},
		},
		{
			"sysexec",
			`%sysexec del report.lst;`,
			[]string{"OS command"},
		},
		{
			"filename pipe",
			`filename ls pipe 'ls -l';`,
			[]string{"filename pipe device"},
		},
		{
			"sysfunc host probe",
			`%put %sysfunc(fileexist(c-drive));`,
			[]string{"host filesystem function"},
		},
		{
			"drive letter path",
			`proc import datafile="C:\data\sales.csv" out=sales; run;`,
			[]string{"absolute file path"},
		},
		{
			"unc path",
			`infile '\\server\share\input.txt';`,
			[]string{"absolute file path"},
		},
		{
			"url is not a drive path",
			`filename web url "http://example.com/data";`,
			nil,
		},
		{
			"x as a variable",
			`data a; x = 1; run;`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := classify(tt.src)
			got := sortedKeys(st.Findings.PlatformConcerns)
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected concerns %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClassifyPlatformConcernsDeduplicated(t *testing.T) {
	src := `x 'one'; x 'two'; %sysexec three;`
	st := classify(src)

	got := sortedKeys(st.Findings.PlatformConcerns)
	if !reflect.DeepEqual(got, []string{"OS command"}) {
		t.Errorf("expected deduplicated [OS command], got %v", got)
	}
}

func TestClassifyCommentsIgnored(t *testing.T) {
	src := `* data fake;
/* proc sql; quit; */
%* %macro ghost;
data real; run;`
	st := classify(src)
	f := st.Findings

	if f.DataSteps != 1 {
		t.Errorf("expected 1 data step, got %d", f.DataSteps)
	}
	if f.ProcBlocks != 0 {
		t.Errorf("commented proc should not count, got %d", f.ProcBlocks)
	}
	if f.MacroDefinitions != 0 {
		t.Errorf("commented macro should not count, got %d", f.MacroDefinitions)
	}
	if !f.DatasetsCreated["REAL"] || f.DatasetsCreated["FAKE"] {
		t.Errorf("unexpected datasets_created: %v", sortedKeys(f.DatasetsCreated))
	}
}

func TestClassifyDatalinesOpaque(t *testing.T) {
	src := `data points;
input x y @@;
datalines;
data fake; proc sql; %macro no;
;
run;`
	st := classify(src)
	f := st.Findings

	// Raw data lines must not be classified
	if f.DataSteps != 1 {
		t.Errorf("expected 1 data step, got %d", f.DataSteps)
	}
	if f.ProcBlocks != 0 || f.MacroDefinitions != 0 {
		t.Errorf("datalines content leaked into classification: %+v", f)
	}
}

func TestClassifyFreshState(t *testing.T) {
	src := "data a; set b; run;"
	tokens, _ := lexer.Scan(src)

	first := Classify(tokens, src)
	second := Classify(tokens, src)

	if !reflect.DeepEqual(first, second) {
		t.Error("classifying the same tokens twice should produce equal state")
	}

	// Mutating one run's sets must not leak into the other
	first.Findings.DatasetsUsed["LEAK"] = true
	if second.Findings.DatasetsUsed["LEAK"] {
		t.Error("scan state is shared between runs")
	}
}
