package local

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/tools"
)

var (
	mathCues = []string{
		"calculate", "compute", "math", "what is", "how much", "solve",
		"add", "subtract", "multiply", "divide", "plus", "minus", "times",
	}
	textCues = []string{
		"word count", "character count", "count words", "count characters",
		"how many words", "how many characters",
	}

	// Spelled-out operators, rewritten before expressions are extracted.
	operatorWords = strings.NewReplacer(
		" divided by ", " / ",
		" plus ", " + ",
		" minus ", " - ",
		" multiplied by ", " * ",
		" times ", " * ",
	)

	arithmetic = regexp.MustCompile(`[0-9+\-*/().\s%]+`)
	isoDate    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	digit      = regexp.MustCompile(`[0-9]`)
	mathChar   = regexp.MustCompile(`[0-9+\-*/().%]`)
)

// runTools answers deterministic calculation, date and text-analysis
// questions directly. It returns false when no trigger matches.
func (g *Generator) runTools(ctx context.Context, question, context string) (string, bool) {
	q := strings.ToLower(question)

	// A bare expression such as "12*3" needs no cue word.
	if containsAny(q, mathCues...) || mathChar.MatchString(question) {
		if expr, ok := extractExpression(question); ok {
			res := g.tools.Execute(ctx, tools.Calculator, map[string]any{"expression": expr})
			return "Calculation: " + res.Text, true
		}
	}

	switch {
	case strings.Contains(q, "today") || strings.Contains(q, "current date"):
		return g.date(ctx, map[string]any{"operation": "current_date"}), true
	case strings.Contains(q, "current time") || strings.Contains(q, "what time"):
		return g.date(ctx, map[string]any{"operation": "current_time"}), true
	case strings.Contains(q, "days between"):
		if dates := isoDate.FindAllString(question, 2); len(dates) == 2 {
			return g.date(ctx, map[string]any{
				"operation": "date_diff",
				"date1":     dates[0],
				"date2":     dates[1],
			}), true
		}
	}

	if context == "" {
		return "", false
	}
	switch {
	case containsAny(q, textCues...) && strings.Contains(q, "word"):
		return g.analyze(ctx, context, "word_count"), true
	case containsAny(q, textCues...) && strings.Contains(q, "char"):
		return g.analyze(ctx, context, "char_count"), true
	case strings.Contains(q, "extract") && strings.Contains(q, "email"):
		return g.analyze(ctx, context, "extract_emails"), true
	case strings.Contains(q, "extract") && strings.Contains(q, "number"):
		return g.analyze(ctx, context, "extract_numbers"), true
	}
	return "", false
}

func (g *Generator) date(ctx context.Context, args map[string]any) string {
	return g.tools.Execute(ctx, tools.DateCalculator, args).Text
}

func (g *Generator) analyze(ctx context.Context, text, kind string) string {
	return g.tools.Execute(ctx, tools.TextAnalyzer, map[string]any{"text": text, "analysis_type": kind}).Text
}

// extractExpression finds the first run of arithmetic characters that holds
// both a digit and an operator. Percent signs become "/100" and ISO dates are
// never read as subtraction.
func extractExpression(question string) (string, bool) {
	text := " " + strings.ToLower(question) + " "
	text = isoDate.ReplaceAllString(text, " ")
	text = operatorWords.Replace(text)

	for _, run := range arithmetic.FindAllString(text, -1) {
		run = strings.TrimSpace(run)
		if len(run) <= 2 || !digit.MatchString(run) || !strings.ContainsAny(run, "+-*/%") {
			continue
		}
		return strings.ReplaceAll(run, "%", "/100"), true
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
