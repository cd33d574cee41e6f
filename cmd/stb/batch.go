package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stb/internal/manifest"
)

var (
	batchValidate bool
	batchInit     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [manifest-file]",
	Short: "Analyze every program declared in " + manifest.DeclarationFile,
	Long: `Analyze all SAS programs declared in a manifest and print a combined
report, ordered so the riskiest translations surface first.

The manifest defaults to ` + manifest.DeclarationFile + ` in the workspace root.
Programs that cannot be read are reported in the output instead of
aborting the batch.

Examples:
  stb batch
  stb batch --init
  stb batch --validate
  stb batch legacy/PROGRAMS.toml --format=json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchValidate, "validate", false, "Validate the manifest without analyzing")
	batchCmd.Flags().BoolVar(&batchInit, "init", false, "Create an example manifest and exit")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)
	workspaceRoot := mustGetWorkspaceRoot()

	manifestFile := manifest.DeclarationFile
	if len(args) == 1 {
		manifestFile = args[0]
	}

	if batchInit {
		filePath := filepath.Join(workspaceRoot, manifestFile)
		if _, err := os.Stat(filePath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: %s already exists\n", manifestFile)
			os.Exit(1)
		}
		if err := manifest.CreateExample(filePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating manifest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created example manifest: %s\n", manifestFile)
		fmt.Println("Edit it to declare your programs, then run 'stb batch'.")
		return
	}

	man, err := manifest.Load(workspaceRoot, manifestFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if man == nil {
		fmt.Fprintf(os.Stderr, "Error: no %s found in %s\n", manifestFile, workspaceRoot)
		fmt.Fprintln(os.Stderr, "Run 'stb batch --init' to create an example manifest.")
		os.Exit(1)
	}

	if err := man.Validate(workspaceRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if batchValidate {
		fmt.Printf("Manifest OK: %d program(s) declared\n", len(man.Programs))
		return
	}

	runner := manifest.NewRunner(logger)
	report := runner.Run(workspaceRoot, man)

	output, err := FormatResponse(report, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	if report.Totals.Failed > 0 {
		os.Exit(1)
	}
}
