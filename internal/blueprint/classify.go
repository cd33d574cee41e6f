package blueprint

import (
	"strings"

	"stb/internal/lexer"
)

// Classify walks the token stream in a single forward pass and returns
// the accumulated scan state. It never fails: tokens that match no
// rule are skipped, and malformed constructs degrade to whatever the
// rules could still observe.
func Classify(tokens []lexer.Token, src string) *ScanState {
	c := &classifier{src: src, state: NewScanState()}

	// Trivia never affects state; dropping it up front gives every
	// rule O(1) peeks at significant neighbors.
	c.sig = make([]lexer.Token, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.Kind.Trivia() {
			c.sig = append(c.sig, tok)
		}
	}

	for i := 0; i < len(c.sig); i++ {
		tok := c.sig[i]
		switch tok.Kind {
		case lexer.KindKeyword:
			c.keyword(i, tok)
		case lexer.KindMacroIdent:
			c.macro(i, tok)
		case lexer.KindIdent:
			c.ident(i, tok)
		case lexer.KindString:
			c.literal(tok)
		}
	}

	return c.state
}

type classifier struct {
	sig   []lexer.Token
	src   string
	state *ScanState
}

// stmtInitial reports whether sig[i] begins a statement: it is first,
// follows a semicolon, or follows THEN/ELSE (which nest a statement).
func (c *classifier) stmtInitial(i int) bool {
	if i == 0 {
		return true
	}
	prev := c.sig[i-1]
	if prev.Kind == lexer.KindSemicolon {
		return true
	}
	if prev.Kind == lexer.KindKeyword {
		switch prev.Upper(c.src) {
		case "THEN", "ELSE":
			return true
		}
	}
	return false
}

// peek returns the kind at j, or KindEOF past the end.
func (c *classifier) peek(j int) lexer.Kind {
	if j < 0 || j >= len(c.sig) {
		return lexer.KindEOF
	}
	return c.sig[j].Kind
}

// upperAt returns the normalized text at j, or "" past the end.
func (c *classifier) upperAt(j int) string {
	if j < 0 || j >= len(c.sig) {
		return ""
	}
	return c.sig[j].Upper(c.src)
}

func (c *classifier) isOp(j int, op string) bool {
	return c.peek(j) == lexer.KindOperator && c.sig[j].Text(c.src) == op
}

func (c *classifier) addConcern(tag string) {
	c.state.Findings.PlatformConcerns[tag] = true
}

func (c *classifier) keyword(i int, tok lexer.Token) {
	f := &c.state.Findings
	ctx := &c.state.Context

	switch tok.Upper(c.src) {
	case "DATA":
		// A DATA statement opens a step unless it is really the
		// DATA= option form, a view/step control, or _NULL_.
		if !c.stmtInitial(i) || ctx.InDataStep {
			return
		}
		if c.isOp(i+1, "=") || c.peek(i+1) == lexer.KindLParen {
			return
		}
		switch c.upperAt(i + 1) {
		case "_NULL_", "STEP":
			return
		}
		f.DataSteps++
		ctx.InDataStep = true
		c.datasetList(i+1, f.DatasetsCreated)

	case "PROC":
		if !c.stmtInitial(i) || ctx.InProcBlock {
			return
		}
		f.ProcBlocks++
		ctx.InProcBlock = true
		ctx.CurrentProc = ""
		if c.peek(i + 1).IdentLike() {
			ctx.CurrentProc = c.upperAt(i + 1)
			f.ProcTypes[ctx.CurrentProc] = true
			switch ctx.CurrentProc {
			case "SQL":
				f.ProcSQLBlocks++
			case "IMPORT":
				f.HasProcImport = true
			}
		}

	case "RUN", "QUIT":
		if !c.stmtInitial(i) {
			return
		}
		ctx.InDataStep = false
		ctx.InProcBlock = false
		ctx.CurrentProc = ""

	case "RETAIN":
		if c.stmtInitial(i) {
			f.HasRetain = true
		}

	case "ARRAY":
		if c.stmtInitial(i) {
			f.HasArrays = true
		}

	case "MERGE":
		if c.stmtInitial(i) && ctx.InDataStep {
			f.HasMerge = true
			c.datasetList(i+1, f.DatasetsUsed)
		}

	case "SET":
		if c.stmtInitial(i) && ctx.InDataStep {
			c.datasetList(i+1, f.DatasetsUsed)
		}

	case "INPUT":
		if c.stmtInitial(i) {
			c.inputStatement(i + 1)
		}

	case "FILENAME":
		if c.stmtInitial(i) {
			c.filenameStatement(i + 1)
		}

	case "X":
		// Host command statement: X 'command'; or bare X;
		if c.stmtInitial(i) &&
			(c.peek(i+1) == lexer.KindString || c.peek(i+1) == lexer.KindSemicolon) {
			c.addConcern("OS command")
		}

	case "CALL":
		if c.stmtInitial(i) && c.upperAt(i+1) == "SYSTEM" {
			c.addConcern("OS command")
		}
	}
}

// reservedMacroNames are macro-language statements and built-in macro
// functions: %-tokens that are not user macro invocations.
var reservedMacroNames = map[string]bool{
	"MACRO": true, "MEND": true,
	"IF": true, "THEN": true, "ELSE": true,
	"DO": true, "END": true, "TO": true, "BY": true,
	"UNTIL": true, "WHILE": true,
	"LET": true, "PUT": true, "GLOBAL": true, "LOCAL": true,
	"SYMDEL": true, "GOTO": true, "RETURN": true, "ABORT": true,
	"INCLUDE": true, "WINDOW": true, "DISPLAY": true, "INPUT": true,
	"SYSEXEC": true, "SYSFUNC": true, "SYSEVALF": true, "SYSCALL": true,
	"EVAL": true, "SCAN": true, "SUBSTR": true, "UPCASE": true,
	"LENGTH": true, "INDEX": true, "STR": true, "NRSTR": true,
	"QUOTE": true, "NRQUOTE": true, "BQUOTE": true, "NRBQUOTE": true,
	"SUPERQ": true, "UNQUOTE": true, "TRIM": true, "LEFT": true,
	"CMPRES": true, "SYSGET": true,
}

// hostFunctions are %SYSFUNC targets that touch the host filesystem.
var hostFunctions = map[string]bool{
	"FILEEXIST": true, "FDELETE": true, "FCOPY": true, "FAPPEND": true,
	"RENAME": true, "DCREATE": true, "DOPEN": true, "DREAD": true,
	"PATHNAME": true, "FILENAME": true,
}

func (c *classifier) macro(i int, tok lexer.Token) {
	f := &c.state.Findings
	name := strings.TrimPrefix(tok.Upper(c.src), "%")

	switch name {
	case "MACRO":
		// Counted per occurrence; nested definitions each count.
		f.MacroDefinitions++

	case "SYSEXEC":
		c.addConcern("OS command")

	case "SYSFUNC":
		if c.peek(i+1) == lexer.KindLParen && hostFunctions[c.upperAt(i+2)] {
			c.addConcern("host filesystem function")
		}

	default:
		if reservedMacroNames[name] {
			return
		}
		// A user macro invocation: %name( or %name;
		switch c.peek(i + 1) {
		case lexer.KindLParen, lexer.KindSemicolon:
			f.MacroCalls++
		}
	}
}

func (c *classifier) ident(i int, tok lexer.Token) {
	upper := tok.Upper(c.src)

	// LAG family used as a function call
	if isLagName(upper) && c.peek(i+1) == lexer.KindLParen {
		c.state.Findings.HasLag = true
		return
	}

	if upper == "SYSTASK" && c.stmtInitial(i) {
		c.addConcern("OS command")
	}
}

func (c *classifier) literal(tok lexer.Token) {
	text := tok.Text(c.src)
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	if hasWindowsPath(text) {
		c.addConcern("absolute file path")
	}
}

// datasetList records dataset names from the list following a
// DATA/SET/MERGE keyword, up to the statement terminator. Option
// groups in parentheses and name=value options are skipped, and
// two-level lib.member names are joined.
func (c *classifier) datasetList(from int, into map[string]bool) {
	depth := 0
	for j := from; j < len(c.sig); j++ {
		tok := c.sig[j]
		switch tok.Kind {
		case lexer.KindSemicolon, lexer.KindEOF:
			return
		case lexer.KindLParen:
			depth++
		case lexer.KindRParen:
			if depth > 0 {
				depth--
			}
		default:
			if depth > 0 || !tok.Kind.IdentLike() {
				continue
			}
			// name=value option (END=, NOBS=, POINT=, ...)
			if c.isOp(j+1, "=") {
				j++
				switch c.peek(j + 1) {
				case lexer.KindIdent, lexer.KindKeyword, lexer.KindNumber,
					lexer.KindString, lexer.KindMacroVar:
					j++
				}
				continue
			}
			name := tok.Upper(c.src)
			if c.isOp(j+1, ".") && c.peek(j+2).IdentLike() {
				name = name + "." + c.upperAt(j+2)
				j += 2
			}
			into[name] = true
		}
	}
}

// inputStatement scans one INPUT statement for pointer controls and
// trailing line holds. An @ followed by a position (number, variable,
// or expression) moves the column pointer; an @ or @@ immediately
// before the terminator holds the line.
func (c *classifier) inputStatement(from int) {
	f := &c.state.Findings
	for j := from; j < len(c.sig); j++ {
		switch c.sig[j].Kind {
		case lexer.KindSemicolon, lexer.KindEOF:
			return
		case lexer.KindAt:
			next := c.peek(j + 1)
			switch {
			case next == lexer.KindAt:
				after := c.peek(j + 2)
				if after == lexer.KindSemicolon || after == lexer.KindEOF {
					f.LineHoldDouble = true
				}
				j++
			case next == lexer.KindSemicolon || next == lexer.KindEOF:
				f.LineHoldSingle = true
			case next == lexer.KindNumber || next == lexer.KindLParen ||
				next == lexer.KindIdent || next == lexer.KindKeyword ||
				next == lexer.KindMacroVar:
				f.PointerControls++
			}
		}
	}
}

// filenameStatement flags FILENAME statements that attach a pipe
// device, which shells out on the host.
func (c *classifier) filenameStatement(from int) {
	for j := from; j < len(c.sig); j++ {
		tok := c.sig[j]
		if tok.Kind == lexer.KindSemicolon || tok.Kind == lexer.KindEOF {
			return
		}
		if tok.Kind.IdentLike() && tok.Upper(c.src) == "PIPE" {
			c.addConcern("filename pipe device")
			return
		}
	}
}

// isLagName matches LAG and the numbered LAGn family.
func isLagName(upper string) bool {
	if !strings.HasPrefix(upper, "LAG") {
		return false
	}
	for i := 3; i < len(upper); i++ {
		if upper[i] < '0' || upper[i] > '9' {
			return false
		}
	}
	return true
}

// hasWindowsPath detects drive-letter and UNC paths inside a string
// literal body. Forward-slash relative paths stay quiet; only clearly
// host-specific shapes are flagged.
func hasWindowsPath(s string) bool {
	if strings.HasPrefix(s, `\\`) {
		return true
	}
	for i := 1; i+1 < len(s); i++ {
		if s[i] != ':' || (s[i+1] != '\\' && s[i+1] != '/') {
			continue
		}
		if !isAlpha(s[i-1]) {
			continue
		}
		// the drive letter must stand alone: "C:\x" yes, "http://" no
		if i == 1 || !isAlnum(s[i-2]) {
			return true
		}
	}
	return false
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}
