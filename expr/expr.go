package expr

import (
	"fmt"
	"strconv"

	"github.com/mapexpr/mapexpr/path"
	"github.com/mapexpr/mapexpr/value"
)

// FilterCall is one pipeline stage: a filter name plus its literal
// arguments, already resolved to Values (spec.md §3 "Expression IR").
type FilterCall struct {
	Name string
	Args []value.Value
}

// IR is the compiled form of one `{{ ... }}` leaf, per spec.md §3/§4.4.
type IR struct {
	Raw        string // the original "{{ ... }}" source, used as the cache key
	SourcePath path.Path
	Filters    []FilterCall
	Default    *value.Value // non-nil when "?? literal" was present
}

// UnterminatedExpressionError reports a leaf that looks like it starts an
// expression but never closes, or is missing a required grammar element.
type UnterminatedExpressionError struct {
	Raw    string
	Offset int
	Reason string
}

func (e *UnterminatedExpressionError) Error() string {
	return fmt.Sprintf("unterminated expression at byte %d in %q: %s", e.Offset, e.Raw, e.Reason)
}

// BadLiteralError reports a malformed literal or unexpected character.
type BadLiteralError struct {
	Offset int
	Reason string
}

func (e *BadLiteralError) Error() string {
	return fmt.Sprintf("bad literal at byte %d: %s", e.Offset, e.Reason)
}

// LooksLikeExpression reports whether raw is, after trimming surrounding
// whitespace, a single `{{ ... }}` span — the test the Template Compiler
// uses (spec.md §4.6) to decide a scalar leaf is an expression rather
// than a literal string.
func LooksLikeExpression(raw string) bool {
	trimmed := trimSpace(raw)
	return len(trimmed) >= 4 && trimmed[:2] == "{{" && trimmed[len(trimmed)-2:] == "}}"
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

// Parse compiles raw (the full "{{ ... }}" string, including delimiters)
// into an IR using the given lexing Mode. Parse is pure: it never
// consults a cache — callers wanting the cached form should go through
// the expr Cache wrapper (see cache.go).
func Parse(raw string, mode Mode) (*IR, error) {
	trimmed := trimSpace(raw)
	leading := len(raw) - len(leftTrimSpace(raw))

	if len(trimmed) < 4 || trimmed[:2] != "{{" {
		return nil, &UnterminatedExpressionError{Raw: raw, Offset: 0, Reason: "missing opening '{{'"}
	}
	if trimmed[len(trimmed)-2:] != "}}" {
		return nil, &UnterminatedExpressionError{Raw: raw, Offset: len(raw), Reason: "missing closing '}}'"}
	}

	body := trimmed[2 : len(trimmed)-2]
	bodyOffset := leading + 2

	l := newLexer(body, bodyOffset, mode)

	tok, err := l.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokIdent {
		return nil, &UnterminatedExpressionError{Raw: raw, Offset: tok.offset, Reason: "expected a source path"}
	}
	srcPath, err := path.Parse(tok.text)
	if err != nil {
		return nil, &BadLiteralError{Offset: tok.offset, Reason: err.Error()}
	}

	ir := &IR{Raw: raw, SourcePath: srcPath}

	tok, err = l.next()
	if err != nil {
		return nil, err
	}
	for {
		switch tok.kind {
		case tokPipe:
			fc, next, ferr := parseFilter(l)
			if ferr != nil {
				return nil, ferr
			}
			ir.Filters = append(ir.Filters, fc)
			tok = next
			continue
		case tokCoalesce:
			lit, next, lerr := parseLiteral(l)
			if lerr != nil {
				return nil, lerr
			}
			ir.Default = &lit
			tok = next
			continue
		case tokEOF:
			return ir, nil
		default:
			return nil, &UnterminatedExpressionError{Raw: raw, Offset: tok.offset, Reason: "unexpected trailing content"}
		}
	}
}

// parseFilter consumes "ident(:arg)*" and returns the FilterCall plus the
// token that follows it (so the caller's loop can react without an extra
// peek).
func parseFilter(l *lexer) (FilterCall, token, error) {
	tok, err := l.next()
	if err != nil {
		return FilterCall{}, token{}, err
	}
	if tok.kind != tokIdent {
		return FilterCall{}, token{}, &UnterminatedExpressionError{Offset: tok.offset, Reason: "expected a filter name after '|'"}
	}
	fc := FilterCall{Name: tok.text}

	next, err := l.next()
	if err != nil {
		return FilterCall{}, token{}, err
	}
	for next.kind == tokColon {
		lit, err := parseOneLiteral(l)
		if err != nil {
			return FilterCall{}, token{}, err
		}
		fc.Args = append(fc.Args, lit)
		next, err = l.next()
		if err != nil {
			return FilterCall{}, token{}, err
		}
	}
	return fc, next, nil
}

// parseLiteral consumes one literal token (for the "?? literal" default)
// and returns the value plus the token immediately after it, matching
// parseFilter's "value, next" shape.
func parseLiteral(l *lexer) (value.Value, token, error) {
	lit, err := parseOneLiteral(l)
	if err != nil {
		return value.Null, token{}, err
	}
	next, err := l.next()
	if err != nil {
		return value.Null, token{}, err
	}
	return lit, next, nil
}

func parseOneLiteral(l *lexer) (value.Value, error) {
	tok, err := l.next()
	if err != nil {
		return value.Null, err
	}
	return literalFromToken(tok)
}

func literalFromToken(tok token) (value.Value, error) {
	switch tok.kind {
	case tokString:
		return value.String(tok.text), nil
	case tokNumber:
		if i, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
			return value.Int(i), nil
		}
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return value.Null, &BadLiteralError{Offset: tok.offset, Reason: "invalid number " + tok.text}
		}
		return value.Float(f), nil
	case tokIdent:
		switch tok.text {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		case "null":
			return value.Null, nil
		default:
			return value.Null, &BadLiteralError{Offset: tok.offset, Reason: "expected a literal, got identifier " + tok.text}
		}
	default:
		return value.Null, &BadLiteralError{Offset: tok.offset, Reason: "expected a literal"}
	}
}

func leftTrimSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}
