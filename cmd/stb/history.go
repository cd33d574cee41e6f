package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stb/internal/blueprint"
	"stb/internal/storage"
)

var (
	historyLimit      int
	historyShowSource bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved analyses",
	Long: `List and inspect analyses saved to the workspace history database.

Analyses are saved with 'stb analyze --save' or through the HTTP API
when history is enabled.

Examples:
  stb history list
  stb history list --limit=5
  stb history show a1b2c3d4
  stb history show a1b2c3d4 --source`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses, newest first",
	Run:   runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved analysis",
	Long: `Show a saved analysis including its full blueprint. The ID may be
abbreviated to any unique prefix of the full UUID.

Examples:
  stb history show a1b2c3d4
  stb history show a1b2c3d4 --source`,
	Args: cobra.ExactArgs(1),
	Run:  runHistoryShow,
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of analyses to list (0 = all)")
	historyShowCmd.Flags().BoolVar(&historyShowSource, "source", false, "Include the stored program source")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	workspaceRoot := mustGetWorkspaceRoot()

	db, store := mustOpenStore(workspaceRoot, logger)
	defer db.Close()

	summaries, err := store.List(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing analyses: %v\n", err)
		os.Exit(1)
	}

	total, err := store.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting analyses: %v\n", err)
		os.Exit(1)
	}

	resp := &HistoryResponseCLI{
		Analyses: make([]HistoryEntryCLI, 0, len(summaries)),
		Total:    total,
	}
	for _, s := range summaries {
		resp.Analyses = append(resp.Analyses, HistoryEntryCLI{
			ID:          s.ID,
			CreatedAt:   s.CreatedAt,
			FileName:    s.FileName,
			SourceLines: s.SourceLines,
			TokenCount:  s.TokenCount,
			ErrorCount:  s.ErrorCount,
			Score:       s.Score,
			Priority:    s.Priority,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	workspaceRoot := mustGetWorkspaceRoot()

	db, store := mustOpenStore(workspaceRoot, logger)
	defer db.Close()

	analysis, err := resolveAnalysisID(store, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var bp blueprint.Blueprint
	if err := json.Unmarshal([]byte(analysis.BlueprintJSON), &bp); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding stored blueprint: %v\n", err)
		os.Exit(1)
	}

	resp := &HistoryShowResponseCLI{
		ID:        analysis.ID,
		CreatedAt: analysis.CreatedAt,
		FileName:  analysis.FileName,
		Blueprint: &bp,
	}
	if historyShowSource {
		resp.Source = analysis.Source
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

// resolveAnalysisID looks up an analysis by full ID or unique ID prefix.
// The human listing truncates IDs to eight characters, so prefixes are
// the common way users refer back to an analysis.
func resolveAnalysisID(store *storage.AnalysisStore, id string) (*storage.Analysis, error) {
	analysis, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		return analysis, nil
	}

	summaries, err := store.List(0)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, s := range summaries {
		if strings.HasPrefix(s.ID, id) {
			matches = append(matches, s.ID)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no analysis with ID %q", id)
	case 1:
		analysis, err = store.Get(matches[0])
		if err != nil {
			return nil, err
		}
		if analysis == nil {
			return nil, fmt.Errorf("no analysis with ID %q", matches[0])
		}
		return analysis, nil
	default:
		return nil, fmt.Errorf("ID prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

// HistoryResponseCLI contains the analysis history listing for CLI output
type HistoryResponseCLI struct {
	Analyses []HistoryEntryCLI `json:"analyses"`
	Total    int               `json:"total"`
}

// HistoryEntryCLI represents one saved analysis in the listing
type HistoryEntryCLI struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	FileName    string    `json:"fileName"`
	SourceLines int       `json:"sourceLines"`
	TokenCount  int       `json:"tokenCount"`
	ErrorCount  int       `json:"errorCount"`
	Score       int       `json:"score"`
	Priority    string    `json:"priority"`
}

// HistoryShowResponseCLI contains one saved analysis with its blueprint
type HistoryShowResponseCLI struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"createdAt"`
	FileName  string               `json:"fileName"`
	Blueprint *blueprint.Blueprint `json:"blueprint"`
	Source    string               `json:"source,omitempty"`
}
