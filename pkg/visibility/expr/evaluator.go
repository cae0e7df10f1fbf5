package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formdeps/pkg/fieldpath"
	"github.com/goliatone/go-formdeps/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator.
//
// Supported operators:
// - truthiness: `enabled`, `!enabled`
// - equality: `attendeeType == "speaker"`, `value != null`
// - ordering on numbers: `count >= 2`, `value < 10`
// - composition: `a == true && b != false`, `a || (b && !c)`
//
// Identifiers are field paths resolved against Context.Values (dotted or
// bracketed). `value` resolves to Context.Current unless the snapshot has a
// `value` field, and the `extras.` prefix reads Context.Extras.
type Evaluator struct {
	cache sync.Map // rule -> exprNode
}

var (
	_ visibility.Evaluator = (*Evaluator)(nil)
	_ visibility.Compiler  = (*Evaluator)(nil)
)

func New() *Evaluator { return &Evaluator{} }

// Eval parses (or reuses) rule and evaluates it against ctx.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	node, err := e.parse(rule)
	if err != nil {
		return false, fmt.Errorf("%w (field %q)", err, fieldPath)
	}
	if node == nil {
		return true, nil
	}
	return node.eval(ctx)
}

// Compile checks rule syntax and caches the parsed tree.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.parse(rule)
	return err
}

func (e *Evaluator) parse(rule string) (exprNode, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	if cached, ok := e.cache.Load(trimmed); ok {
		return cached.(exprNode), nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	node, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	e.cache.Store(trimmed, node)
	return node, nil
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isOperatorByte(ch byte) bool {
	switch ch {
	case '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}

	for i < len(input) {
		ch := input[i]
		if isSpace(ch) {
			i++
			continue
		}

		switch ch {
		case '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case '!':
			if peek(1) == '=' {
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case '=':
			if peek(1) != '=' {
				return nil, errors.New("visibility/expr: unexpected '='; use '=='")
			}
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case '<', '>':
			kind, raw := tokenLt, "<"
			if ch == '>' {
				kind, raw = tokenGt, ">"
			}
			if peek(1) == '=' {
				kind++
				raw += "="
				i++
			}
			tokens = append(tokens, token{kind: kind, raw: raw})
			i++
		case '&':
			if peek(1) != '&' {
				return nil, errors.New("visibility/expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case '|':
			if peek(1) != '|' {
				return nil, errors.New("visibility/expr: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case '"', '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = next
		default:
			start := i
			for i < len(input) && !isSpace(input[i]) && !isOperatorByte(input[i]) {
				i++
			}
			tokens = append(tokens, classifyWord(input[start:i]))
		}
	}

	return tokens, nil
}

// readString consumes a quoted literal starting at input[start] and returns the
// unquoted value with the index following the closing quote.
func readString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("visibility/expr: invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("visibility/expr: unterminated string literal")
}

func classifyWord(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil", "undefined":
		return token{kind: tokenNull, raw: "null"}
	}
	if looksLikeNumber(raw) {
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return token{kind: tokenNumber, raw: raw}
		}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type exprNode interface {
	eval(ctx visibility.Context) (bool, error)
}

type exprOr struct{ left, right exprNode }

func (n exprOr) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(ctx)
}

type exprAnd struct{ left, right exprNode }

func (n exprAnd) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(ctx)
}

type exprNot struct{ inner exprNode }

func (n exprNot) eval(ctx visibility.Context) (bool, error) {
	ok, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literal struct {
	kind tokenKind
	raw  string
	num  float64
}

type exprCompare struct {
	identifier string
	op         token
	literal    literal
}

func (n exprCompare) eval(ctx visibility.Context) (bool, error) {
	value, _ := lookup(ctx, n.identifier)

	switch n.op.kind {
	case tokenLt, tokenLte, tokenGt, tokenGte:
		if n.literal.kind != tokenNumber {
			return false, fmt.Errorf("visibility/expr: operator %q requires a number literal", n.op.raw)
		}
		got, ok := coerceNumber(value)
		if !ok {
			return false, nil
		}
		switch n.op.kind {
		case tokenLt:
			return got < n.literal.num, nil
		case tokenLte:
			return got <= n.literal.num, nil
		case tokenGt:
			return got > n.literal.num, nil
		default:
			return got >= n.literal.num, nil
		}
	}

	var equal bool
	switch n.literal.kind {
	case tokenNull:
		equal = value == nil
	case tokenBool:
		got, _ := coerceBool(value)
		equal = got == (n.literal.raw == "true")
	case tokenNumber:
		got, ok := coerceNumber(value)
		equal = ok && got == n.literal.num
	default:
		equal = coerceString(value) == n.literal.raw
	}
	if n.op.kind == tokenNeq {
		return !equal, nil
	}
	return equal, nil
}

type exprTruthy struct{ identifier string }

func (n exprTruthy) eval(ctx visibility.Context) (bool, error) {
	value, ok := lookup(ctx, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("visibility/expr: empty expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}
	if _, err := fieldpath.Parse(ident.raw); err != nil {
		return nil, fmt.Errorf("visibility/expr: invalid identifier %q: %w", ident.raw, err)
	}

	for _, kind := range []tokenKind{tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte} {
		op, ok := stream.consume(kind)
		if !ok {
			continue
		}
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return exprCompare{identifier: ident.raw, op: op, literal: lit}, nil
	}

	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	_, ok := s.consume(kind)
	return ok
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("visibility/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString, tokenBool, tokenNull:
		return literal{kind: tok.kind, raw: tok.raw}, nil
	case tokenNumber:
		num, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return literal{}, fmt.Errorf("visibility/expr: invalid number literal %q", tok.raw)
		}
		return literal{kind: tokenNumber, raw: tok.raw, num: num}, nil
	case tokenIdentifier:
		// Bare words compare as strings: `attendeeType == speaker`.
		return literal{kind: tokenString, raw: tok.raw}, nil
	default:
		return literal{}, fmt.Errorf("visibility/expr: expected literal, got %q", tok.raw)
	}
}

func lookup(ctx visibility.Context, key string) (any, bool) {
	if rest, ok := strings.CutPrefix(key, visibility.ExtrasName+"."); ok {
		p, err := fieldpath.Parse(rest)
		if err != nil {
			return nil, false
		}
		return fieldpath.Get(ctx.Extras, p)
	}

	p, err := fieldpath.Parse(key)
	if err != nil {
		return nil, false
	}
	if value, ok := fieldpath.Get(ctx.Values, p); ok {
		return value, true
	}
	if first, ok := p[0].(fieldpath.Key); ok && string(first) == visibility.CurrentValueName {
		if len(p) == 1 {
			return ctx.Current, ctx.Current != nil
		}
		if nested, ok := ctx.Current.(map[string]any); ok {
			return fieldpath.Get(nested, p[1:])
		}
	}
	return nil, false
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if n, ok := coerceNumber(value); ok {
		return n != 0
	}
	return true
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
