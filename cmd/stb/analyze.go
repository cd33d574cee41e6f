package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"stb/internal/blueprint"
	"stb/internal/lexer"
	"stb/internal/storage"
)

var (
	analyzeSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a SAS program",
	Long: `Analyze a SAS program without executing it and print its translation
blueprint: construct counts, dataset flow, complexity flags, and a
prioritized effort estimate.

Analysis is a single lexical pass; malformed source still produces a
blueprint, with lexical errors reported alongside it.

Examples:
  stb analyze etl_main.sas
  stb analyze etl_main.sas --format=json
  stb analyze etl_main.sas --save`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Save the result to the workspace history database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(formatFlag)
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	result := blueprint.Analyze(string(source))

	resp := &AnalysisResponseCLI{
		FileName:  filepath.Base(filePath),
		LexErrors: lexErrorStrings(result.Errors),
		Blueprint: result.Blueprint,
	}

	if analyzeSave {
		workspaceRoot := mustGetWorkspaceRoot()
		db, store := mustOpenStore(workspaceRoot, logger)
		defer db.Close()

		blueprintJSON, err := json.Marshal(result.Blueprint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding blueprint: %v\n", err)
			os.Exit(1)
		}

		analysis := &storage.Analysis{
			FileName:      resp.FileName,
			SourceLines:   result.Blueprint.Summary.TotalLines,
			TokenCount:    result.Blueprint.Summary.TotalTokens,
			ErrorCount:    len(result.Errors),
			Score:         result.Blueprint.Summary.ComplexityScore,
			Priority:      string(result.Blueprint.Summary.TranslationPriority),
			BlueprintJSON: string(blueprintJSON),
			Source:        string(source),
		}
		if err := store.Insert(analysis); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving analysis: %v\n", err)
			os.Exit(1)
		}
		resp.SavedID = analysis.ID
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("Analysis completed", map[string]interface{}{
		"file":     resp.FileName,
		"score":    result.Blueprint.Summary.ComplexityScore,
		"duration": time.Since(start).Milliseconds(),
	})
}

// AnalysisResponseCLI contains an analysis result for CLI output
type AnalysisResponseCLI struct {
	FileName  string               `json:"fileName"`
	LexErrors []string             `json:"lexErrors,omitempty"`
	Blueprint *blueprint.Blueprint `json:"blueprint"`
	SavedID   string               `json:"savedId,omitempty"`
}

func lexErrorStrings(errs []lexer.LexError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.String())
	}
	return out
}
