package lexer

import (
	"strings"
	"unicode/utf8"
)

// Scan tokenizes SAS source in a single forward pass. It always returns
// a token stream ending in a KindEOF token; malformed regions are
// recovered from and reported as LexErrors alongside the tokens.
//
// Whitespace and comments are emitted as trivia tokens so that spans
// tile the source. Two SAS rules require statement-position context:
// a `*` opens a comment only at the start of a statement, and the raw
// block after a DATALINES/CARDS statement is consumed verbatim up to
// its terminating semicolon line.
func Scan(src string) ([]Token, []LexError) {
	s := &scanner{src: src, line: 1, stmtStart: true}
	for s.pos < len(s.src) {
		s.next()
	}
	s.emit(KindEOF, s.pos, s.line)
	return s.tokens, s.errs
}

// datalines variants armed by a statement-initial keyword
const (
	dataNone = iota
	dataPlain // DATALINES / CARDS: block ends at a line starting with ;
	dataQuad  // DATALINES4 / CARDS4: block ends at a line starting with ;;;;
)

type scanner struct {
	src       string
	pos       int
	line      int
	stmtStart bool
	pending   int // armed datalines variant, consumed by the next ;
	tokens    []Token
	errs      []LexError
}

func (s *scanner) next() {
	start, startLine := s.pos, s.line
	wasStmtStart := s.stmtStart
	c := s.src[s.pos]

	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		s.scanWS()
		s.emit(KindWS, start, startLine)

	case c == '/' && s.peekAt(1) == '*':
		s.scanBlockComment(start, startLine)
		s.emit(KindComment, start, startLine)

	case c == '*' && wasStmtStart:
		// Statement comment: * ... ; (valid only in statement position)
		s.scanToSemicolon()
		s.emit(KindComment, start, startLine)

	case c == '%':
		if s.peekAt(1) == '*' {
			// Macro comment: %* ... ;
			s.scanToSemicolon()
			s.emit(KindComment, start, startLine)
		} else if isIdentStart(s.peekAt(1)) {
			s.pos++
			s.scanIdent()
			s.emit(KindMacroIdent, start, startLine)
		} else {
			s.pos++
			s.emit(KindOperator, start, startLine)
		}

	case c == '&':
		s.pos++
		for s.pos < len(s.src) && s.src[s.pos] == '&' {
			s.pos++
		}
		if s.pos < len(s.src) && isIdentStart(s.src[s.pos]) {
			s.scanIdent()
			s.emit(KindMacroVar, start, startLine)
		} else {
			s.emit(KindOperator, start, startLine)
		}

	case c == '\'' || c == '"':
		s.scanString(c, start, startLine)
		s.emit(KindString, start, startLine)

	case isDigit(c) || (c == '.' && isDigit(s.peekAt(1))):
		s.scanNumber()
		s.emit(KindNumber, start, startLine)

	case isIdentStart(c):
		s.scanIdent()
		word := strings.ToUpper(s.src[start:s.pos])
		if keywords[word] {
			s.emit(KindKeyword, start, startLine)
			if wasStmtStart {
				switch word {
				case "DATALINES", "CARDS":
					s.pending = dataPlain
				case "DATALINES4", "CARDS4":
					s.pending = dataQuad
				}
			}
			// THEN and ELSE are followed by a nested statement
			if word == "THEN" || word == "ELSE" {
				s.stmtStart = true
			}
		} else {
			s.emit(KindIdent, start, startLine)
		}

	case c == ';':
		s.pos++
		s.emit(KindSemicolon, start, startLine)
		if s.pending != dataNone {
			s.scanDatalines()
		}

	case c == '@':
		s.pos++
		s.emit(KindAt, start, startLine)

	case c == '(':
		s.pos++
		s.emit(KindLParen, start, startLine)

	case c == ')':
		s.pos++
		s.emit(KindRParen, start, startLine)

	case c >= '!' && c <= '~':
		s.pos++
		s.emit(KindOperator, start, startLine)

	default:
		// Control bytes and non-ASCII outside strings/comments become
		// operator tokens so spans still tile the source.
		_, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.pos += size
		s.addError("unexpected character", start, startLine)
		s.emit(KindOperator, start, startLine)
	}
}

// emit records the token [start, s.pos) and updates statement position.
// Trivia is transparent: only a semicolon re-arms statement position.
func (s *scanner) emit(k Kind, start, line int) {
	s.tokens = append(s.tokens, Token{Kind: k, Start: start, Stop: s.pos, Line: line})
	switch k {
	case KindWS, KindComment:
	case KindSemicolon:
		s.stmtStart = true
	default:
		s.stmtStart = false
		s.pending = dataNone
	}
}

func (s *scanner) peekAt(off int) byte {
	if p := s.pos + off; p < len(s.src) {
		return s.src[p]
	}
	return 0
}

func (s *scanner) addError(msg string, offset, line int) {
	s.errs = append(s.errs, LexError{Message: msg, Offset: offset, Line: line})
}

func (s *scanner) scanWS() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\n':
			s.line++
			s.pos++
		case ' ', '\t', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) scanBlockComment(start, startLine int) {
	s.pos += 2
	idx := strings.Index(s.src[s.pos:], "*/")
	if idx < 0 {
		s.line += strings.Count(s.src[s.pos:], "\n")
		s.pos = len(s.src)
		s.addError("unterminated block comment", start, startLine)
		return
	}
	s.line += strings.Count(s.src[s.pos:s.pos+idx], "\n")
	s.pos += idx + 2
}

// scanToSemicolon consumes up to but not including the next semicolon.
// Statement and macro comments end there; the ; is emitted separately.
func (s *scanner) scanToSemicolon() {
	for s.pos < len(s.src) && s.src[s.pos] != ';' {
		if s.src[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
}

func (s *scanner) scanString(quote byte, start, startLine int) {
	s.pos++
	for {
		idx := strings.IndexByte(s.src[s.pos:], quote)
		if idx < 0 {
			s.line += strings.Count(s.src[s.pos:], "\n")
			s.pos = len(s.src)
			s.addError("unterminated string literal", start, startLine)
			return
		}
		s.line += strings.Count(s.src[s.pos:s.pos+idx], "\n")
		s.pos += idx + 1
		if s.pos < len(s.src) && s.src[s.pos] == quote {
			// Doubled quote stays inside the literal
			s.pos++
			continue
		}
		return
	}
}

func (s *scanner) scanNumber() {
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		s.pos++
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		p := s.pos + 1
		if p < len(s.src) && (s.src[p] == '+' || s.src[p] == '-') {
			p++
		}
		if p < len(s.src) && isDigit(s.src[p]) {
			s.pos = p
			for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
				s.pos++
			}
		}
	}
}

func (s *scanner) scanIdent() {
	for s.pos < len(s.src) && isIdentCont(s.src[s.pos]) {
		s.pos++
	}
}

// scanDatalines consumes the raw block following a DATALINES/CARDS
// statement as a single opaque token. The block ends before the first
// line whose leading non-blank characters are the terminator; scanning
// resumes at that line so its semicolon(s) are emitted normally. A
// block running to end of input is not an error.
func (s *scanner) scanDatalines() {
	variant := s.pending
	s.pending = dataNone
	start, startLine := s.pos, s.line

	for s.pos < len(s.src) {
		lineStart := s.pos
		lineEnd := len(s.src)
		nl := strings.IndexByte(s.src[s.pos:], '\n')
		if nl >= 0 {
			lineEnd = s.pos + nl
		}

		trimmed := strings.TrimLeft(s.src[lineStart:lineEnd], " \t\r")
		terminator := ";"
		if variant == dataQuad {
			terminator = ";;;;"
		}
		if strings.HasPrefix(trimmed, terminator) {
			break
		}

		if nl < 0 {
			s.pos = len(s.src)
			break
		}
		s.pos = lineEnd + 1
		s.line++
	}

	if s.pos > start {
		s.emit(KindDatalines, start, startLine)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
