package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Executor implements the interface.
var _ driven.ToolExecutor = (*Executor)(nil)

// Tool names.
const (
	Calculator     = "calculator"
	DateCalculator = "date_calculator"
	TextAnalyzer   = "text_analyzer"
)

// Executor dispatches tool calls by name.
type Executor struct {
	now func() time.Time
	log *logger.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the clock used by date operations.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates a tool executor.
func NewExecutor(log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{now: time.Now, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the named tool. It never panics.
func (e *Executor) Execute(_ context.Context, name string, args map[string]any) (result domain.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(name, fmt.Sprintf("Tool execution error: %v", r))
		}
	}()

	e.log.Debug("Executing tool %s with %d args", name, len(args))

	var err error
	switch name {
	case Calculator:
		var expr string
		if expr, err = stringArg(args, "expression"); err == nil {
			result = calculate(expr)
		}
	case DateCalculator:
		result, err = e.dateCalculator(args)
	case TextAnalyzer:
		result, err = analyzeText(args)
	default:
		return failed(name, "Unknown tool: "+name)
	}
	if err != nil {
		return failed(name, "Tool execution error: "+err.Error())
	}
	result.Tool = name
	return result
}

// Definitions describes the registry for remote function calling.
func (e *Executor) Definitions() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        Calculator,
			Description: "Perform mathematical calculations",
			Parameters: []domain.ToolParameter{{
				Name:        "expression",
				Type:        "string",
				Description: "Mathematical expression to evaluate (e.g., '2+2', 'sqrt(16)', 'sin(30)')",
				Required:    true,
			}},
		},
		{
			Name:        DateCalculator,
			Description: "Calculate dates, time differences, or get current date/time",
			Parameters: []domain.ToolParameter{
				{
					Name:        "operation",
					Type:        "string",
					Description: "Type of date operation",
					Enum:        []string{opCurrentDate, opCurrentTime, opDateDiff, opAddDays},
					Required:    true,
				},
				{Name: "date1", Type: "string", Description: "First date in YYYY-MM-DD format (for date_diff, add_days)"},
				{Name: "date2", Type: "string", Description: "Second date in YYYY-MM-DD format (for date_diff)"},
				{Name: "days", Type: "integer", Description: "Number of days to add (for add_days)"},
			},
		},
		{
			Name:        TextAnalyzer,
			Description: "Analyze text for word count, character count, or extract specific patterns",
			Parameters: []domain.ToolParameter{
				{Name: "text", Type: "string", Description: "Text to analyze", Required: true},
				{
					Name:        "analysis_type",
					Type:        "string",
					Description: "Type of analysis to perform",
					Enum:        []string{analysisWordCount, analysisCharCount, analysisNumbers, analysisEmails},
					Required:    true,
				},
			},
		},
	}
}

func ok(text string) domain.ToolResult {
	return domain.ToolResult{Text: text, OK: true}
}

func failed(name, text string) domain.ToolResult {
	return domain.ToolResult{Tool: name, Text: text}
}

// stringArg reads a required argument, formatting non-string values.
func stringArg(args map[string]any, key string) (string, error) {
	v, found := args[key]
	if !found || v == nil {
		return "", fmt.Errorf("missing argument %q", key)
	}
	if s, isString := v.(string); isString {
		return s, nil
	}
	return fmt.Sprint(v), nil
}
