package pattern

import (
	"fmt"
	"strings"
)

// TokenKind classifies a template token.
type TokenKind int

const (
	// Simple matches one word, or a non-greedy run before a literal.
	Simple TokenKind = iota
	// List matches a delimited sequence; values split on the delimiter.
	List
	// Greedy matches as much as possible up to the next literal.
	Greedy
	// Regex matches the author-supplied validator verbatim.
	Regex
	// Optional matches like Simple but tolerates a missing value.
	Optional
)

func (k TokenKind) String() string {
	switch k {
	case Simple:
		return "simple"
	case List:
		return "list"
	case Greedy:
		return "greedy"
	case Regex:
		return "regex"
	case Optional:
		return "optional"
	}
	return "unknown"
}

// Token is one {{...}} placeholder of a template. Tokens are produced
// transiently during compilation and never persisted.
type Token struct {
	Name string
	Kind TokenKind
	// Delimiter separates list items. Significant whitespace is preserved:
	// it is never trimmed.
	Delimiter string
	// Validator is the verbatim regex of a Regex token.
	Validator string
}

// CursorToken is the reserved control token name. It is not a variable:
// interpolation passes it through untouched so a later step can locate an
// insertion point and strip it explicitly.
const CursorToken = "cursor"

// segment is either a literal run of template text or a token.
type segment struct {
	literal string
	token   *Token
}

// Error reports a template or extraction failure.
type Error struct {
	Token string // offending token name, when known
	Msg   string
}

func (e *Error) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("pattern: %s {{%s}}", e.Msg, e.Token)
	}
	return "pattern: " + e.Msg
}

// IsMissingValue reports whether err is a missing required value/variable
// failure.
func IsMissingValue(err error) bool {
	pe, ok := err.(*Error)
	return ok && strings.HasPrefix(pe.Msg, "missing")
}

// ParsePattern tokenizes a template left to right and returns its tokens.
// An unmatched or unterminated "{{" is rejected.
func ParsePattern(template string) ([]Token, error) {
	segs, err := split(template)
	if err != nil {
		return nil, err
	}
	tokens := make([]Token, 0, len(segs))
	for _, s := range segs {
		if s.token != nil {
			tokens = append(tokens, *s.token)
		}
	}
	return tokens, nil
}

// split scans the template into alternating literal and token segments.
func split(template string) ([]segment, error) {
	var segs []segment
	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			break
		}
		if open > 0 {
			segs = append(segs, segment{literal: rest[:open]})
		}
		rest = rest[open+2:]
		close := strings.Index(rest, "}}")
		if close < 0 {
			return nil, &Error{Msg: "unterminated {{ in template"}
		}
		tok, err := parseToken(rest[:close])
		if err != nil {
			return nil, err
		}
		segs = append(segs, segment{token: tok})
		rest = rest[close+2:]
	}
	// A stray "}}" without an opener is plain text, but a lone "{" pair
	// split across the scan is not possible here; only check the closer.
	if rest != "" {
		segs = append(segs, segment{literal: rest})
	}
	return segs, nil
}

// parseToken interprets the body between braces: name plus an optional
// modifier (+ * : ?) and its extra payload.
func parseToken(body string) (*Token, error) {
	if body == "" {
		return nil, &Error{Msg: "empty token"}
	}

	// The expression form ({{a.b}}, {{n * 2}}, {{items[0]}}) carries no
	// modifier suffix; it is recognized by Interpolate, not here. Only a
	// trailing modifier on a bare name is significant for matching.
	name := body

	if idx := strings.Index(body, ":"); idx > 0 && !strings.Contains(body[:idx], " ") {
		head := body[idx-1]
		if head == '+' {
			// {{name+:<delim>}} — delimiter is everything after the colon,
			// not trimmed.
			return &Token{Name: body[:idx-1], Kind: List, Delimiter: body[idx+1:]}, nil
		}
		// {{name:<regex>}}
		return &Token{Name: body[:idx], Kind: Regex, Validator: body[idx+1:]}, nil
	}

	switch {
	case strings.HasSuffix(name, "+"):
		return &Token{Name: name[:len(name)-1], Kind: List, Delimiter: " "}, nil
	case strings.HasSuffix(name, "*"):
		return &Token{Name: name[:len(name)-1], Kind: Greedy}, nil
	case strings.HasSuffix(name, "?"):
		return &Token{Name: name[:len(name)-1], Kind: Optional}, nil
	}
	return &Token{Name: name, Kind: Simple}, nil
}
