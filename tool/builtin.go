package tool

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ClockTriggers select the clock tool.
var ClockTriggers = []string{"time", "today", "date", "now", "tonight", "tomorrow", "yesterday"}

// NewClockTool reports the current date and time. now defaults to time.Now.
func NewClockTool(now func() time.Time) *FunctionTool {
	if now == nil {
		now = time.Now
	}
	return NewQueryTool("current_time", "The current local date and time.", func(ctx context.Context, _ string) (string, error) {
		return now().Format("Monday, 2 January 2006 15:04 MST"), nil
	})
}

// CalculatorTriggers select the calculator tool.
var CalculatorTriggers = []string{"calculate", "compute", "plus", "minus", "times", "divided", "multiply", "sum"}

var (
	binaryExprRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(\+|-|\*|/|x|plus|minus|times|multiplied by|divided by)\s*(-?\d+(?:\.\d+)?)`)
)

// NewCalculatorTool evaluates the first binary arithmetic expression in the
// query, e.g. "what is 12 times 4".
func NewCalculatorTool() *FunctionTool {
	return NewQueryTool("calculator", "Evaluates a simple arithmetic expression from the request.", func(ctx context.Context, query string) (string, error) {
		m := binaryExprRe.FindStringSubmatch(strings.ToLower(query))
		if m == nil {
			return "", NewToolError("calculator", "no arithmetic expression found", "NO_EXPRESSION")
		}
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)

		var r float64
		switch m[2] {
		case "+", "plus":
			r = a + b
		case "-", "minus":
			r = a - b
		case "*", "x", "times", "multiplied by":
			r = a * b
		case "/", "divided by":
			if b == 0 {
				return "", NewToolError("calculator", "division by zero", "DIVISION_BY_ZERO")
			}
			r = a / b
		}
		return fmt.Sprintf("%s %s %s = %s", m[1], m[2], m[3], strconv.FormatFloat(r, 'f', -1, 64)), nil
	})
}
