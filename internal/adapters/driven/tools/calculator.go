package tools

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/casbin/govaluate"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

const allowedExpressionChars = "0123456789+-*/.()sincotanlogqrtpie"

var identifierPattern = regexp.MustCompile(`[a-z]+`)

var calculatorFunctions = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"log":  unary(math.Log),
	"sqrt": unary(math.Sqrt),
}

var calculatorConstants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

// calculate evaluates a restricted arithmetic expression. Anything outside
// the character whitelist is rejected before parsing.
func calculate(expression string) domain.ToolResult {
	expr := strings.ToLower(strings.ReplaceAll(expression, " ", ""))
	for _, r := range expr {
		if !strings.ContainsRune(allowedExpressionChars, r) {
			return failed(Calculator, "Invalid characters in expression")
		}
	}

	for _, ident := range identifierPattern.FindAllString(expr, -1) {
		_, isFunc := calculatorFunctions[ident]
		_, isConst := calculatorConstants[ident]
		if !isFunc && !isConst {
			return failed(Calculator, fmt.Sprintf("Calculation error: unknown name '%s'", ident))
		}
	}

	evaluable, err := govaluate.NewEvaluableExpressionWithFunctions(expr, calculatorFunctions)
	if err != nil {
		return failed(Calculator, "Calculation error: "+err.Error())
	}
	value, err := evaluable.Evaluate(calculatorConstants)
	if err != nil {
		return failed(Calculator, "Calculation error: "+err.Error())
	}

	n, isNumber := value.(float64)
	if !isNumber {
		return failed(Calculator, fmt.Sprintf("Calculation error: unexpected result %v", value))
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return failed(Calculator, "Calculation error: result is not a finite number")
	}
	return ok("Result: " + FormatNumber(n))
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		x, isNumber := args[0].(float64)
		if !isNumber {
			return nil, fmt.Errorf("argument must be a number")
		}
		return fn(x), nil
	}
}
