// Package eval provides the evaluator behind the console's execute operation.
//
// The console core treats evaluation as an opaque collaborator; the Calc
// evaluator here is the implementation the shipped binary uses, a small
// arithmetic expression language. Evaluation failures are display values,
// never console failures.
package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zjrosen/conch/internal/log"
)

// Calc evaluates arithmetic expressions: + - * / % ^, parentheses, unary
// minus, float and integer literals, and a few named constants.
type Calc struct{}

// NewCalc returns the demo calculator evaluator.
func NewCalc() Calc { return Calc{} }

// Evaluate parses and evaluates source. The returned error is meant for
// display in the console output, exactly like a successful result.
func (Calc) Evaluate(source string) (string, error) {
	p := &parser{lexer: newLexer(source)}
	p.advance()
	v, err := p.parseExpr(0)
	if err != nil {
		log.Debug(log.CatEval, "evaluation failed", "source", source, "error", err)
		return "", err
	}
	if p.tok.kind != tokenEOF {
		return "", fmt.Errorf("unexpected %q", p.tok.literal)
	}
	log.Debug(log.CatEval, "evaluated", "source", source, "result", v)
	return formatValue(v), nil
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenCaret
	tokenLParen
	tokenRParen
	tokenIllegal
)

type token struct {
	kind    tokenKind
	literal string
	pos     int
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() token {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]
	switch ch {
	case '+':
		l.pos++
		return token{tokenPlus, "+", start}
	case '-':
		l.pos++
		return token{tokenMinus, "-", start}
	case '*':
		l.pos++
		return token{tokenStar, "*", start}
	case '/':
		l.pos++
		return token{tokenSlash, "/", start}
	case '%':
		l.pos++
		return token{tokenPercent, "%", start}
	case '^':
		l.pos++
		return token{tokenCaret, "^", start}
	case '(':
		l.pos++
		return token{tokenLParen, "(", start}
	case ')':
		l.pos++
		return token{tokenRParen, ")", start}
	}

	if isDigit(ch) || ch == '.' {
		for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
			l.pos++
		}
		return token{tokenNumber, l.input[start:l.pos], start}
	}
	if isLetter(ch) {
		for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
			l.pos++
		}
		return token{tokenIdent, l.input[start:l.pos], start}
	}

	l.pos++
	return token{tokenIllegal, string(ch), start}
}

func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch byte) bool { return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' }

// Binding powers for the Pratt loop. Caret binds tightest and is
// right-associative.
var bindingPower = map[tokenKind]int{
	tokenPlus:    10,
	tokenMinus:   10,
	tokenStar:    20,
	tokenSlash:   20,
	tokenPercent: 20,
	tokenCaret:   30,
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type parser struct {
	lexer *lexer
	tok   token
}

func (p *parser) advance() {
	p.tok = p.lexer.next()
}

func (p *parser) parseExpr(minBP int) (float64, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return 0, err
	}

	for {
		bp, ok := bindingPower[p.tok.kind]
		if !ok || bp <= minBP {
			return left, nil
		}
		op := p.tok.kind
		p.advance()

		// Right associativity for ^ comes from recursing with bp-1.
		nextBP := bp
		if op == tokenCaret {
			nextBP = bp - 1
		}
		right, err := p.parseExpr(nextBP)
		if err != nil {
			return 0, err
		}
		left, err = apply(op, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func (p *parser) parsePrefix() (float64, error) {
	switch p.tok.kind {
	case tokenNumber:
		v, err := strconv.ParseFloat(p.tok.literal, 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", p.tok.literal)
		}
		p.advance()
		return v, nil

	case tokenIdent:
		name := strings.ToLower(p.tok.literal)
		v, ok := constants[name]
		if !ok {
			return 0, fmt.Errorf("unknown name %q", p.tok.literal)
		}
		p.advance()
		return v, nil

	case tokenMinus:
		p.advance()
		v, err := p.parsePrefix()
		if err != nil {
			return 0, err
		}
		return -v, nil

	case tokenLParen:
		p.advance()
		v, err := p.parseExpr(0)
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokenRParen {
			return 0, fmt.Errorf("missing closing paren")
		}
		p.advance()
		return v, nil

	case tokenEOF:
		return 0, fmt.Errorf("unexpected end of input")

	default:
		return 0, fmt.Errorf("unexpected %q", p.tok.literal)
	}
}

func apply(op tokenKind, left, right float64) (float64, error) {
	switch op {
	case tokenPlus:
		return left + right, nil
	case tokenMinus:
		return left - right, nil
	case tokenStar:
		return left * right, nil
	case tokenSlash:
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case tokenPercent:
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return math.Mod(left, right), nil
	case tokenCaret:
		return math.Pow(left, right), nil
	default:
		return 0, fmt.Errorf("unknown operator")
	}
}
