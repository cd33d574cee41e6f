package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stb/internal/lexer"
)

var (
	lexTrivia bool
)

var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "Print the token stream of a SAS program",
	Long: `Lex a SAS program and print its token stream. Useful for inspecting
how the analyzer reads a program before it classifies constructs.

Whitespace and comment tokens are omitted unless --trivia is set.

Examples:
  stb lex etl_main.sas
  stb lex etl_main.sas --trivia
  stb lex etl_main.sas --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runLex,
}

func init() {
	lexCmd.Flags().BoolVar(&lexTrivia, "trivia", false, "Include whitespace and comment tokens")
	rootCmd.AddCommand(lexCmd)
}

func runLex(cmd *cobra.Command, args []string) {
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	src := string(source)
	tokens, errs := lexer.Scan(src)

	resp := &LexResponseCLI{
		FileName:   filepath.Base(filePath),
		TokenCount: len(tokens),
		Tokens:     make([]LexTokenCLI, 0, len(tokens)),
		Errors:     lexErrorStrings(errs),
	}
	for _, tok := range tokens {
		if !lexTrivia && tok.Kind.Trivia() {
			continue
		}
		resp.Tokens = append(resp.Tokens, LexTokenCLI{
			Kind:  tok.Kind.String(),
			Line:  tok.Line,
			Start: tok.Start,
			Stop:  tok.Stop,
			Text:  tok.Text(src),
		})
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

// LexResponseCLI contains a token stream for CLI output
type LexResponseCLI struct {
	FileName   string        `json:"fileName"`
	TokenCount int           `json:"tokenCount"`
	Tokens     []LexTokenCLI `json:"tokens"`
	Errors     []string      `json:"errors,omitempty"`
}

// LexTokenCLI represents one token in the stream
type LexTokenCLI struct {
	Kind  string `json:"kind"`
	Line  int    `json:"line"`
	Start int    `json:"start"`
	Stop  int    `json:"stop"`
	Text  string `json:"text"`
}
