package pattern

import (
	"strconv"
	"strings"
)

// comparison operators, longest first so ">=" wins over ">".
var comparisonOps = []string{"==", "!=", ">=", "<=", ">", "<"}

// EvaluateCondition interpolates the expression, then recognizes at most one
// comparison operator. Operands parse as best-effort literals (number,
// boolean, null, string). With no operator the interpolated value is tested
// for truthiness, where the literal strings "false", "0", "null" and
// "undefined" (and emptiness) are false.
func EvaluateCondition(expr string, vars map[string]any) (bool, error) {
	resolved, err := Interpolate(expr, vars)
	if err != nil {
		return false, err
	}

	for _, op := range comparisonOps {
		idx := strings.Index(resolved, op)
		if idx < 0 {
			continue
		}
		left := parseLiteral(strings.TrimSpace(resolved[:idx]))
		right := parseLiteral(strings.TrimSpace(resolved[idx+len(op):]))
		return compare(left, right, op), nil
	}

	return Truthy(strings.TrimSpace(resolved)), nil
}

// Truthy reports the boolean reading of an interpolated string.
func Truthy(s string) bool {
	switch strings.ToLower(s) {
	case "", "false", "0", "null", "undefined":
		return false
	}
	return true
}

// parseLiteral turns an operand string into its best-effort typed value.
func parseLiteral(s string) any {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	return s
}

// compare applies one comparison operator. Numbers compare numerically;
// everything else falls back to string comparison.
func compare(left, right any, op string) bool {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if lok && rok {
		switch op {
		case "==":
			return ln == rn
		case "!=":
			return ln != rn
		case ">":
			return ln > rn
		case "<":
			return ln < rn
		case ">=":
			return ln >= rn
		case "<=":
			return ln <= rn
		}
	}

	ls, rs := FormatValue(left), FormatValue(right)
	switch op {
	case "==":
		return ls == rs
	case "!=":
		return ls != rs
	case ">":
		return ls > rs
	case "<":
		return ls < rs
	case ">=":
		return ls >= rs
	case "<=":
		return ls <= rs
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
