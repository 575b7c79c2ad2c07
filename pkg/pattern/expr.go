package pattern

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Eval evaluates a small, explicitly-scoped expression against the variable
// map: literals, dot/bracket variable access, unary -/!, * / %, + -,
// comparisons and && ||. There is deliberately no function call syntax and
// no assignment; the evaluator is a hard security boundary, not a script
// host.
func Eval(expr string, vars map[string]any) (any, error) {
	p := &exprParser{src: expr, vars: vars}
	val, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, &Error{Msg: fmt.Sprintf("unexpected %q in expression", p.src[p.pos:])}
	}
	return val, nil
}

type exprParser struct {
	src  string
	pos  int
	vars map[string]any
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) take(op string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], op) {
		p.pos += len(op)
		return true
	}
	return false
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.take("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = truthyVal(left) || truthyVal(right)
	}
	return left, nil
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.take("&&") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = truthyVal(left) && truthyVal(right)
	}
	return left, nil
}

func (p *exprParser) parseComparison() (any, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for _, op := range comparisonOps {
		// Guard: "<" must not consume the "<" of an unparsed "<=".
		if p.take(op) {
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return compare(left, right, op), nil
		}
	}
	return left, nil
}

func (p *exprParser) parseAdditive() (any, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		if p.take("+") {
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left, err = add(left, right)
			if err != nil {
				return nil, err
			}
			continue
		}
		if p.peek() == '-' {
			p.pos++
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left, err = arith(left, right, "-")
			if err != nil {
				return nil, err
			}
			continue
		}
		return left, nil
	}
}

func (p *exprParser) parseMultiplicative() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek() {
		case '*':
			op = "*"
		case '/':
			op = "/"
		case '%':
			op = "%"
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = arith(left, right, op)
		if err != nil {
			return nil, err
		}
	}
}

func (p *exprParser) parseUnary() (any, error) {
	if p.take("!") {
		val, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !truthyVal(val), nil
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
		val, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n, ok := toNumber(val)
		if !ok {
			return nil, &Error{Msg: "cannot negate a non-number"}
		}
		return -n, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, &Error{Msg: "unexpected end of expression"}
	}

	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		val, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.take(")") {
			return nil, &Error{Msg: "missing closing parenthesis"}
		}
		return val, nil
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	}

	return p.parsePath()
}

func (p *exprParser) parseString(quote byte) (any, error) {
	end := strings.IndexByte(p.src[p.pos+1:], quote)
	if end < 0 {
		return nil, &Error{Msg: "unterminated string literal"}
	}
	val := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return val, nil
}

func (p *exprParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, &Error{Msg: "invalid number " + p.src[start:p.pos]}
	}
	return n, nil
}

// parsePath reads an identifier with optional .field and [index] accessors
// and resolves it against the variable map.
func (p *exprParser) parsePath() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' {
			p.pos++
			continue
		}
		if r == '[' {
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				return nil, &Error{Msg: "unterminated index in expression"}
			}
			p.pos += end + 1
			continue
		}
		break
	}
	path := p.src[start:p.pos]
	if path == "" {
		return nil, &Error{Msg: fmt.Sprintf("unexpected %q in expression", p.src[p.pos:])}
	}

	switch path {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}

	val, ok := Resolve(path, p.vars)
	if !ok {
		return nil, &Error{Token: path, Msg: "missing variable"}
	}
	return val, nil
}

func truthyVal(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	case float64:
		return b != 0
	case string:
		return Truthy(b)
	}
	return true
}

// add concatenates strings and sums numbers; mixing falls back to string
// concatenation, which matches how authored templates use "+".
func add(left, right any) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if lok && rok {
		return ln + rn, nil
	}
	return FormatValue(left) + FormatValue(right), nil
}

func arith(left, right any, op string) (any, error) {
	ln, lok := toNumber(left)
	rn, rok := toNumber(right)
	if !lok || !rok {
		return nil, &Error{Msg: fmt.Sprintf("operator %q needs numeric operands", op)}
	}
	switch op {
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		if rn == 0 {
			return nil, &Error{Msg: "division by zero"}
		}
		return ln / rn, nil
	case "%":
		if rn == 0 {
			return nil, &Error{Msg: "division by zero"}
		}
		return float64(int64(ln) % int64(rn)), nil
	}
	return nil, &Error{Msg: "unknown operator " + op}
}
