package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stb/internal/eval"
)

var (
	evalSuitePath string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run an analyzer evaluation suite",
	Long: `Run a TOML evaluation suite against the analyzer and report pass/fail
per case.

A suite declares SAS snippets with expected blueprint properties:
construct counts, complexity flags, score bounds, and priority. Suites
pin analyzer behavior so lexer or classifier changes that shift
results are caught immediately.

Examples:
  stb eval --suite=eval/core.toml
  stb eval --suite=eval/core.toml --format=json`,
	Run: runEvalSuite,
}

func init() {
	evalCmd.Flags().StringVar(&evalSuitePath, "suite", "", "Path to the evaluation suite TOML file (required)")
	_ = evalCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(evalCmd)
}

func runEvalSuite(cmd *cobra.Command, args []string) {
	logger := newLogger(formatFlag)

	suite := eval.NewSuite(logger)
	if err := suite.LoadSuite(evalSuitePath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading suite: %v\n", err)
		os.Exit(1)
	}

	result, err := suite.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running suite: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		fmt.Println(result.FormatReport())

		if result.FailedCases == 0 {
			fmt.Printf("✓ All %d cases passed\n", result.TotalCases)
		} else {
			fmt.Printf("✗ %d of %d cases failed\n", result.FailedCases, result.TotalCases)
		}
	} else {
		output, err := FormatResponse(result, OutputFormat(formatFlag))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(output)
	}

	// Exit with failure if cases failed
	if result.FailedCases > 0 {
		os.Exit(1)
	}
}
