package blueprint

import (
	"strings"

	"stb/internal/lexer"
)

// Result pairs a blueprint with the token stream and lexical errors
// it was derived from. Its shape is the /parse response payload.
type Result struct {
	Tokens    []lexer.Token    `json:"tokens"`
	Errors    []lexer.LexError `json:"errors"`
	Blueprint *Blueprint       `json:"blueprint"`
}

// Analyze lexes SAS source and derives its translation-readiness
// blueprint. It is a total function: any input, including empty or
// malformed source, produces a blueprint. Lexical problems travel in
// Errors as data and never abort the analysis.
func Analyze(source string) *Result {
	tokens, errs := lexer.Scan(source)
	state := Classify(tokens, source)

	totalLines := strings.Count(source, "\n") + 1
	bp := Assemble(state, totalLines, len(tokens))

	if errs == nil {
		errs = []lexer.LexError{}
	}
	return &Result{
		Tokens:    tokens,
		Errors:    errs,
		Blueprint: bp,
	}
}
