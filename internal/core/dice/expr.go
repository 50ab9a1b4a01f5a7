package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidExpr indicates a malformed dice expression.
var ErrInvalidExpr = errors.New("invalid dice expression")

// Expr is a parsed dice expression of the form NdM, NdM+K or NdM-K.
type Expr struct {
	Count    int
	Sides    int
	Modifier int
}

// ExprResult traces a rolled expression with per-die values.
type ExprResult struct {
	Expression string `json:"expression"`
	Dice       []int  `json:"dice"`
	Modifier   int    `json:"modifier"`
	Total      int    `json:"total"`
}

// ParseExpr parses an expression such as "2d6", "1d8+3" or "4d4-1".
func ParseExpr(expression string) (Expr, error) {
	trimmed := strings.TrimSpace(strings.ToLower(expression))
	dIdx := strings.IndexByte(trimmed, 'd')
	if dIdx <= 0 {
		return Expr{}, fmt.Errorf("%w: %q", ErrInvalidExpr, expression)
	}

	count, err := strconv.Atoi(trimmed[:dIdx])
	if err != nil || count <= 0 {
		return Expr{}, fmt.Errorf("%w: %q has invalid die count", ErrInvalidExpr, expression)
	}

	rest := trimmed[dIdx+1:]
	modifier := 0
	if modIdx := strings.IndexAny(rest, "+-"); modIdx >= 0 {
		var err error
		modifier, err = strconv.Atoi(rest[modIdx:])
		if err != nil {
			return Expr{}, fmt.Errorf("%w: %q has invalid modifier", ErrInvalidExpr, expression)
		}
		rest = rest[:modIdx]
	}

	sides, err := strconv.Atoi(rest)
	if err != nil || sides <= 0 {
		return Expr{}, fmt.Errorf("%w: %q has invalid die sides", ErrInvalidExpr, expression)
	}

	return Expr{Count: count, Sides: sides, Modifier: modifier}, nil
}

// String renders the expression in canonical NdM±K form.
func (e Expr) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// RollExpr parses and rolls an expression on the stream.
func (s *Stream) RollExpr(expression string) (ExprResult, error) {
	expr, err := ParseExpr(expression)
	if err != nil {
		return ExprResult{}, err
	}
	return s.RollParsed(expr), nil
}

// RollParsed rolls an already-parsed expression on the stream.
func (s *Stream) RollParsed(expr Expr) ExprResult {
	values := make([]int, expr.Count)
	total := expr.Modifier
	for i := range values {
		values[i] = s.Intn(expr.Sides) + 1
		total += values[i]
	}
	return ExprResult{
		Expression: expr.String(),
		Dice:       values,
		Modifier:   expr.Modifier,
		Total:      total,
	}
}
