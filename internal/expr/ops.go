package expr

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

type operator string

const (
	opEq       operator = "=="
	opNeq      operator = "!="
	opGt       operator = ">"
	opGte      operator = ">="
	opLt       operator = "<"
	opLte      operator = "<="
	opContains operator = "contains"
	opMatches  operator = "matches"
)

func apply(op operator, left, right any) (bool, error) {
	switch op {
	case opEq:
		return looseEqual(left, right), nil
	case opNeq:
		return !looseEqual(left, right), nil
	case opGt, opGte, opLt, opLte:
		return orderCompare(op, left, right)
	case opContains:
		ls, ok := left.(string)
		if !ok {
			return false, fmt.Errorf("expr: contains needs a string left operand, got %T", left)
		}
		return strings.Contains(ls, fmt.Sprintf("%v", right)), nil
	case opMatches:
		ls, lok := left.(string)
		pattern, rok := right.(string)
		if !lok || !rok {
			return false, fmt.Errorf("expr: matches needs string operands, got %T and %T", left, right)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("expr: invalid pattern %q: %w", pattern, err)
		}
		return re.MatchString(ls), nil
	default:
		return false, fmt.Errorf("expr: unknown operator %q", op)
	}
}

// looseEqual compares numbers by value and everything else by string form,
// so "5 == 5.0" and untyped JSON numbers behave as a user expects.
func looseEqual(left, right any) bool {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		return math.Abs(lf-rf) < 1e-9
	}
	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		return ok && lb == rb
	}
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

func orderCompare(op operator, left, right any) (bool, error) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return false, fmt.Errorf("expr: operator %s needs numeric operands, got %T and %T", op, left, right)
	}
	switch op {
	case opGt:
		return lf > rf, nil
	case opGte:
		return lf >= rf, nil
	case opLt:
		return lf < rf, nil
	default:
		return lf <= rf, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
