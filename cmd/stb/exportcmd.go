package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stb/internal/export"
)

var (
	exportOut           string
	exportIncludeSource bool
	exportLimit         int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved analyses to a compressed archive",
	Long: `Export the workspace analysis history to a zstd-compressed JSON
archive for sharing or downstream tooling.

Records are written oldest first so archives of the same history are
byte-stable. Program sources are omitted unless --include-source is
set.

Examples:
  stb export
  stb export --out=reports/q3.json.zst --include-source
  stb export --limit=100`,
	Run: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", export.DefaultOutputPath, "Output archive path")
	exportCmd.Flags().BoolVar(&exportIncludeSource, "include-source", false, "Include program sources in the archive")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Export at most this many records (0 = all)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	workspaceRoot := mustGetWorkspaceRoot()

	db, store := mustOpenStore(workspaceRoot, logger)
	defer db.Close()

	exporter := export.NewExporter(store, logger)
	path, meta, err := exporter.Export(export.ExportOptions{
		Out:           exportOut,
		IncludeSource: exportIncludeSource,
		Limit:         exportLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting analyses: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		fmt.Print(export.FormatSummary(path, meta))
		return
	}

	output, err := FormatResponse(meta, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
