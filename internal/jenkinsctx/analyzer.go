// Package jenkinsctx classifies the syntactic context around a cursor position
// in a Jenkins Pipeline buffer. Matching is line/region-local pattern
// recognition, not Groovy parsing.
package jenkinsctx

import (
	"regexp"
	"strings"
)

// Kind is the type of completion context at a cursor position.
type Kind int

const (
	KindBare Kind = iota
	KindMemberAccess
	KindParameterList
	KindBlockBody
)

func (k Kind) String() string {
	switch k {
	case KindBare:
		return "bare"
	case KindMemberAccess:
		return "member-access"
	case KindParameterList:
		return "parameter-list"
	case KindBlockBody:
		return "block-body"
	default:
		return "unknown"
	}
}

// CursorContext describes what surrounds the cursor. Computed fresh per
// request and discarded afterwards.
type CursorContext struct {
	Kind Kind

	// Partial is the token text already typed at the cursor.
	Partial string

	// Receiver is the dotted prefix for KindMemberAccess, e.g. "env" or "utils".
	Receiver string

	// Function and TypedParams are set for KindParameterList.
	Function    string
	TypedParams []string

	// BlockKind is the header keyword of the innermost open block for
	// KindBlockBody, e.g. "post".
	BlockKind string

	Line int
	Col  int
}

// Statements rarely span more than a handful of lines; cap the backward scan
// so a lone "(" near the top of a large file stays cheap.
const maxStatementLines = 20

// keywords that look like a call head but never take named parameters.
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "assert": true, "synchronized": true,
}

var blockHeaderRE = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*(?:\([^()]*\))?\s*$`)

// Analyzer classifies cursor contexts over buffer lines.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies the context at (line, col), both zero-based, col being an
// offset into lines[line]. Out-of-range positions degrade to an empty Bare
// context rather than failing.
func (a *Analyzer) Analyze(lines []string, line, col int) *CursorContext {
	ctx := &CursorContext{Kind: KindBare, Line: line, Col: col}
	if line < 0 || line >= len(lines) {
		return ctx
	}
	current := lines[line]
	if col < 0 {
		col = 0
	}
	if col > len(current) {
		col = len(current)
	}

	// 1. Backward scan over identifier and '.' characters.
	start := col
	for start > 0 && (isIdentChar(current[start-1]) || current[start-1] == '.') {
		start--
	}
	run := current[start:col]

	// 2. Dotted member access: split on the last '.'.
	if dot := strings.LastIndexByte(run, '.'); dot >= 0 {
		receiver := run[:dot]
		if receiver != "" {
			ctx.Kind = KindMemberAccess
			ctx.Receiver = receiver
			ctx.Partial = run[dot+1:]
			return ctx
		}
		// Leading dot with no receiver: treat the member as a bare token.
		run = run[dot+1:]
		start += dot + 1
	}
	ctx.Partial = run

	masked := maskLines(lines, line, col)

	// 3. Open parameter list on the current statement.
	if fn, typed, ok := a.findOpenCall(masked, line, start); ok {
		ctx.Kind = KindParameterList
		ctx.Function = fn
		ctx.TypedParams = typed
		return ctx
	}

	// 4. Innermost open block.
	if block := innermostBlock(masked, line, start); block == "post" {
		ctx.Kind = KindBlockBody
		ctx.BlockKind = block
		return ctx
	}

	// 5. Bare prefix.
	return ctx
}

// WordAt isolates the identifier under or immediately left of col. Used by
// hover, which needs the token boundary scan without the full classification.
func WordAt(lineText string, col int) string {
	if col < 0 || col > len(lineText) {
		return ""
	}
	start := col
	for start > 0 && isIdentChar(lineText[start-1]) {
		start--
	}
	end := col
	for end < len(lineText) && isIdentChar(lineText[end]) {
		end++
	}
	return lineText[start:end]
}

// findOpenCall scans backward from (line, col) for an unmatched '(' on the
// same logical statement and extracts the call name plus the parameter names
// already typed between the paren and the cursor.
func (a *Analyzer) findOpenCall(masked []string, line, col int) (string, []string, bool) {
	depth := 0
	firstLine := line - maxStatementLines
	if firstLine < 0 {
		firstLine = 0
	}

	for li := line; li >= firstLine; li-- {
		text := masked[li]
		j := len(text)
		if li == line {
			j = col
		}
		for j > 0 {
			j--
			switch text[j] {
			case ')':
				depth++
			case '(':
				if depth > 0 {
					depth--
					continue
				}
				name := callNameBefore(text, j)
				if name == "" || controlKeywords[name] {
					return "", nil, false
				}
				args := collectText(masked, li, j+1, line, col)
				return name, typedParamNames(args), true
			case '{', '}', ';':
				if depth == 0 {
					return "", nil, false
				}
			}
		}
	}
	return "", nil, false
}

// callNameBefore extracts the identifier immediately preceding position j.
func callNameBefore(text string, j int) string {
	end := j
	for end > 0 && text[end-1] == ' ' {
		end--
	}
	start := end
	for start > 0 && isIdentChar(text[start-1]) {
		start--
	}
	return text[start:end]
}

// collectText joins the masked region between (fromLine, fromCol) and
// (toLine, toCol) into one string.
func collectText(masked []string, fromLine, fromCol, toLine, toCol int) string {
	if fromLine == toLine {
		return masked[fromLine][fromCol:toCol]
	}
	var b strings.Builder
	b.WriteString(masked[fromLine][fromCol:])
	for li := fromLine + 1; li < toLine; li++ {
		b.WriteByte('\n')
		b.WriteString(masked[li])
	}
	b.WriteByte('\n')
	b.WriteString(masked[toLine][:toCol])
	return b.String()
}

// typedParamNames splits args on top-level commas and keeps the name before
// each ':'. Commas nested in parens, brackets, or braces do not split; string
// contents were masked out earlier.
func typedParamNames(args string) []string {
	names := []string{}
	depth := 0
	segStart := 0
	flush := func(end int) {
		seg := args[segStart:end]
		if colon := strings.IndexByte(seg, ':'); colon >= 0 {
			if name := strings.TrimSpace(seg[:colon]); isIdent(name) {
				names = append(names, name)
			}
		}
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				segStart = i + 1
			}
		}
	}
	flush(len(args))
	return names
}

// innermostBlock walks the masked text up to the cursor, tracking {} nesting,
// and returns the header keyword of the innermost open block.
func innermostBlock(masked []string, line, col int) string {
	var stack []string
	var pending strings.Builder

	for li := 0; li <= line; li++ {
		text := masked[li]
		end := len(text)
		if li == line {
			end = col
		}
		for j := 0; j < end; j++ {
			switch text[j] {
			case '{':
				header := ""
				if m := blockHeaderRE.FindStringSubmatch(pending.String()); m != nil {
					header = m[1]
				}
				stack = append(stack, header)
				pending.Reset()
			case '}':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				pending.Reset()
			case ';':
				pending.Reset()
			default:
				pending.WriteByte(text[j])
			}
		}
		pending.WriteByte(' ')
	}

	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// maskLines blanks string literal contents and line comments so structural
// characters inside them are not counted. Only the lines up to the cursor are
// needed; later lines are passed through untouched.
func maskLines(lines []string, line, col int) []string {
	masked := make([]string, len(lines))
	for i := range lines {
		if i > line {
			masked[i] = lines[i]
			continue
		}
		masked[i] = maskLine(lines[i], i == line, col)
	}
	return masked
}

// maskLine replaces quoted regions with spaces and trims // comments. A quote
// left open at the cursor masks through to it, so a half-typed string never
// contributes parens or commas.
func maskLine(text string, isCursorLine bool, col int) string {
	out := []byte(text)
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			out[i] = ' '
			if c == '\\' && i+1 < len(text) {
				i++
				out[i] = ' '
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			out[i] = ' '
		case '/':
			if i+1 < len(text) && text[i+1] == '/' {
				if !isCursorLine || i >= col {
					return string(out[:i]) + strings.Repeat(" ", len(text)-i)
				}
			}
		}
	}
	return string(out)
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
