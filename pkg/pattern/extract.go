package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ExtractValues matches text against a template and returns the values
// captured by its tokens. List tokens yield []string (items trimmed, empties
// dropped); every other kind yields string.
//
// A missing value for a required token is an *Error with the token name. A
// pattern consisting solely of optional tokens that does not match succeeds
// with an empty map.
func ExtractValues(text, template string) (map[string]any, error) {
	segs, err := split(template)
	if err != nil {
		return nil, err
	}

	re, tokens, err := compile(segs)
	if err != nil {
		return nil, err
	}

	match := re.FindStringSubmatch(text)
	if match == nil {
		if required := firstRequired(tokens); required != "" {
			return nil, &Error{Token: required, Msg: "missing value for required token"}
		}
		// All-optional pattern with no match is a success with no values.
		return map[string]any{}, nil
	}

	values := make(map[string]any, len(tokens))
	names := re.SubexpNames()
	for i, name := range names {
		if i == 0 || name == "" {
			continue
		}
		tok := tokenByName(tokens, name)
		if tok == nil {
			continue
		}
		raw := match[i]
		if raw == "" && tok.Kind != Optional {
			return nil, &Error{Token: tok.Name, Msg: "missing value for required token"}
		}
		if tok.Kind == List {
			values[tok.Name] = splitList(raw, tok.Delimiter)
			continue
		}
		values[tok.Name] = raw
	}
	return values, nil
}

// compile builds one anchored regex from the template segments.
//
// Canonical trailing rule: a simple token with no following literal matches
// exactly one word (>=1 non-space), a trailing optional matches zero or more
// non-space characters. Greedy and list tokens are unbounded when last.
func compile(segs []segment) (*regexp.Regexp, []Token, error) {
	var sb strings.Builder
	sb.WriteString("^")

	var tokens []Token
	for i, seg := range segs {
		if seg.token == nil {
			sb.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		tok := *seg.token
		if !identRe.MatchString(tok.Name) {
			return nil, nil, &Error{Token: tok.Name, Msg: "invalid token name in extraction pattern"}
		}
		tokens = append(tokens, tok)
		group := fmt.Sprintf("(?P<%s>", tok.Name)
		boundedByLiteral := nextLiteral(segs, i) != ""

		switch tok.Kind {
		case Greedy, List:
			if boundedByLiteral {
				sb.WriteString(group + ".+?)")
			} else {
				sb.WriteString(group + ".+)")
			}
		case Regex:
			sb.WriteString(group + tok.Validator + ")")
		case Optional:
			if boundedByLiteral {
				sb.WriteString(group + ".*?)")
			} else {
				sb.WriteString(group + `\S*)`)
			}
		default: // Simple
			if boundedByLiteral {
				sb.WriteString(group + ".+?)")
			} else {
				sb.WriteString(group + `\S+)`)
			}
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, nil, &Error{Msg: "invalid extraction pattern: " + err.Error()}
	}
	return re, tokens, nil
}

// nextLiteral returns the first non-empty literal after segment i, skipping
// nothing: only an immediately bounded token uses a non-greedy capture.
func nextLiteral(segs []segment, i int) string {
	for _, seg := range segs[i+1:] {
		if seg.token == nil {
			return seg.literal
		}
		return ""
	}
	return ""
}

func firstRequired(tokens []Token) string {
	for _, t := range tokens {
		if t.Kind != Optional {
			return t.Name
		}
	}
	return ""
}

func tokenByName(tokens []Token, name string) *Token {
	for i := range tokens {
		if tokens[i].Name == name {
			return &tokens[i]
		}
	}
	return nil
}

// splitList splits a captured list on its delimiter, trims each item and
// drops empties.
func splitList(raw, delim string) []string {
	if delim == "" {
		delim = " "
	}
	parts := strings.Split(raw, delim)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}
