package tools

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Text analysis types.
const (
	analysisWordCount = "word_count"
	analysisCharCount = "char_count"
	analysisNumbers   = "extract_numbers"
	analysisEmails    = "extract_emails"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
)

func analyzeText(args map[string]any) (domain.ToolResult, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return domain.ToolResult{}, err
	}
	kind, err := stringArg(args, "analysis_type")
	if err != nil {
		return domain.ToolResult{}, err
	}

	switch kind {
	case analysisWordCount:
		return ok(fmt.Sprintf("Word count: %d", len(strings.Fields(text)))), nil
	case analysisCharCount:
		return ok(fmt.Sprintf("Character count: %d", utf8.RuneCountInString(text))), nil
	case analysisNumbers:
		return ok("Numbers found: " + strings.Join(numberPattern.FindAllString(text, -1), ", ")), nil
	case analysisEmails:
		return ok("Emails found: " + strings.Join(emailPattern.FindAllString(text, -1), ", ")), nil
	default:
		return failed(TextAnalyzer, "Unknown analysis type"), nil
	}
}
