package pattern

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pathRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*|\[[^\]]+\])*$`)

// Interpolate substitutes token values into a template.
//
// Interpolation is strict: a required token with no resolvable value is an
// *Error; a ?-suffixed token degrades to the empty string. The reserved
// {{cursor}} control token is passed through untouched. Token bodies that
// are not a plain variable path are evaluated as expressions (dot/bracket
// access, arithmetic and comparisons only).
func Interpolate(template string, vars map[string]any) (string, error) {
	return InterpolateWith(template, vars, nil)
}

// InterpolateWith behaves like Interpolate but passes every substituted
// value through transform before it is written. Literal template text is
// never transformed; the shell action uses this for shell-safe escaping.
func InterpolateWith(template string, vars map[string]any, transform func(string) string) (string, error) {
	segs, err := split(template)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, seg := range segs {
		if seg.token == nil {
			sb.WriteString(seg.literal)
			continue
		}
		tok := seg.token
		if tok.Name == CursorToken && tok.Kind == Simple {
			sb.WriteString("{{" + CursorToken + "}}")
			continue
		}

		val, ok, err := lookup(tok.Name, vars)
		if err != nil {
			return "", err
		}
		if !ok {
			if tok.Kind == Optional {
				continue
			}
			return "", &Error{Token: tok.Name, Msg: "missing variable"}
		}
		out := formatValue(val, tok)
		if transform != nil {
			out = transform(out)
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// lookup resolves a token body: plain paths read the variable map directly,
// anything else goes through the expression evaluator.
func lookup(body string, vars map[string]any) (any, bool, error) {
	if pathRe.MatchString(body) {
		val, ok := Resolve(body, vars)
		return val, ok, nil
	}
	val, err := Eval(body, vars)
	if err != nil {
		if IsMissingValue(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Resolve reads a dot/bracket path (a.b, items[0].name, row["key"]) out of
// the variable map. Reads never mutate the underlying values.
func Resolve(path string, vars map[string]any) (any, bool) {
	key, rest := splitPathHead(path)
	if key == "" {
		return nil, false
	}
	cur, ok := vars[key]
	if !ok {
		return nil, false
	}
	for rest != "" {
		var seg string
		seg, rest = splitPathHead(rest)
		cur, ok = index(cur, seg)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// splitPathHead pops the first path segment. Bracket segments are returned
// with their quotes stripped.
func splitPathHead(path string) (head, rest string) {
	path = strings.TrimPrefix(path, ".")
	if strings.HasPrefix(path, "[") {
		end := strings.Index(path, "]")
		if end < 0 {
			return "", ""
		}
		head = strings.Trim(path[1:end], `"'`)
		return head, path[end+1:]
	}
	end := strings.IndexAny(path, ".[")
	if end < 0 {
		return path, ""
	}
	return path[:end], path[end:]
}

// index applies one path segment to a structured value.
func index(val any, seg string) (any, bool) {
	switch v := val.(type) {
	case map[string]any:
		out, ok := v[seg]
		return out, ok
	case map[string]string:
		out, ok := v[seg]
		return out, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	case []string:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(v) {
			return nil, false
		}
		return v[i], true
	}
	return nil, false
}

// formatValue serializes a resolved value for substitution. Structured
// values use compact JSON; lists interpolated through a list token join on
// the token's delimiter.
func formatValue(val any, tok *Token) string {
	if tok != nil && tok.Kind == List {
		if items, ok := val.([]string); ok {
			delim := tok.Delimiter
			if delim == "" {
				delim = " "
			}
			return strings.Join(items, delim)
		}
	}
	return FormatValue(val)
}

// FormatValue serializes a value the way interpolation does: strings
// verbatim, numbers without a trailing mantissa, structured values as
// compact JSON.
func FormatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case map[string]any, []any, []string, map[string]string:
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(out)
	}
	return fmt.Sprintf("%v", val)
}

// StripCursor removes the first {{cursor}} marker and reports the byte
// offset it occupied, or -1 when the text carries no marker.
func StripCursor(text string) (string, int) {
	marker := "{{" + CursorToken + "}}"
	idx := strings.Index(text, marker)
	if idx < 0 {
		return text, -1
	}
	return text[:idx] + text[idx+len(marker):], idx
}
