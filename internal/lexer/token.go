package lexer

import (
	"fmt"
	"strings"
)

// Kind classifies a scanned span of SAS source.
type Kind uint8

const (
	// KindWS is a run of whitespace
	KindWS Kind = iota
	// KindComment is a block, statement, or macro comment
	KindComment
	// KindKeyword is an identifier matching a recognized SAS keyword
	KindKeyword
	// KindIdent is an identifier (names are not reserved in SAS)
	KindIdent
	// KindMacroIdent is a %-prefixed macro statement or invocation name
	KindMacroIdent
	// KindMacroVar is an &-prefixed macro variable reference
	KindMacroVar
	// KindString is a quoted string literal
	KindString
	// KindNumber is a numeric literal
	KindNumber
	// KindSemicolon is a statement terminator
	KindSemicolon
	// KindAt is a single @ (pointer control or line hold)
	KindAt
	// KindLParen is (
	KindLParen
	// KindRParen is )
	KindRParen
	// KindOperator is any other single-character operator or punctuation
	KindOperator
	// KindDatalines is the raw data block following a DATALINES/CARDS statement
	KindDatalines
	// KindEOF marks the end of the token stream
	KindEOF
)

var kindNames = [...]string{
	KindWS:         "ws",
	KindComment:    "comment",
	KindKeyword:    "keyword",
	KindIdent:      "ident",
	KindMacroIdent: "macro-ident",
	KindMacroVar:   "macro-var",
	KindString:     "string",
	KindNumber:     "number",
	KindSemicolon:  "semicolon",
	KindAt:         "at",
	KindLParen:     "lparen",
	KindRParen:     "rparen",
	KindOperator:   "operator",
	KindDatalines:  "datalines",
	KindEOF:        "eof",
}

// String returns the stable name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalJSON serializes the kind as its stable name rather than a number.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Trivia reports whether the kind never affects classification.
func (k Kind) Trivia() bool {
	return k == KindWS || k == KindComment
}

// IdentLike reports whether the kind can stand where a name is expected.
// SAS keywords are not reserved words, so a dataset may be called DATA.
func (k Kind) IdentLike() bool {
	return k == KindIdent || k == KindKeyword
}

// Token is a classified half-open span [Start, Stop) into the source.
// Tokens are immutable; text is derived from the source on demand.
type Token struct {
	Kind  Kind `json:"kind"`
	Start int  `json:"start"`
	Stop  int  `json:"stop"`
	Line  int  `json:"line"`
}

// Text returns the raw source text covered by the token.
func (t Token) Text(src string) string {
	return src[t.Start:t.Stop]
}

// Upper returns the token text normalized to uppercase.
// SAS keywords and names compare case-insensitively.
func (t Token) Upper(src string) string {
	return strings.ToUpper(t.Text(src))
}

// LexError describes a malformed region the scanner recovered from.
// Lexical errors are data: they accompany the token stream and never
// abort a scan.
type LexError struct {
	Message string `json:"message"`
	Offset  int    `json:"offset"`
	Line    int    `json:"line"`
}

// String renders the error for human-readable output.
func (e LexError) String() string {
	return fmt.Sprintf("line %d: %s (offset %d)", e.Line, e.Message, e.Offset)
}

// keywords lists identifiers lifted to KindKeyword. The classifier
// matches construct boundaries and risk statements against these.
var keywords = map[string]bool{
	"DATA":       true,
	"PROC":       true,
	"RUN":        true,
	"QUIT":       true,
	"SET":        true,
	"MERGE":      true,
	"RETAIN":     true,
	"ARRAY":      true,
	"INPUT":      true,
	"INFILE":     true,
	"FILE":       true,
	"FILENAME":   true,
	"LIBNAME":    true,
	"BY":         true,
	"OUTPUT":     true,
	"WHERE":      true,
	"IF":         true,
	"THEN":       true,
	"ELSE":       true,
	"DO":         true,
	"END":        true,
	"X":          true,
	"CALL":       true,
	"DATALINES":  true,
	"CARDS":      true,
	"DATALINES4": true,
	"CARDS4":     true,
}
