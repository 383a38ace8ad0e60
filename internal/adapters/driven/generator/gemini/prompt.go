package gemini

import (
	"regexp"
	"strings"
)

const maxHintsPerKind = 5

var entityPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Dates", regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)},
	{"Numbers", regexp.MustCompile(`\b\d+(?:\.\d+)?(?:%|\$|€|£)?\b`)},
	{"Organizations", regexp.MustCompile(`\b[A-Z][a-z]+ (?:Inc|Corp|LLC|Ltd|Company|Organization)\b`)},
	{"Proper Nouns", regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)},
}

// entityHints lists up to five distinct matches per entity kind, first seen first.
// It returns "" when the context has no recognisable entities.
func entityHints(context string) string {
	var lines []string
	for _, p := range entityPatterns {
		seen := make(map[string]struct{})
		var items []string
		for _, m := range p.re.FindAllString(context, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			items = append(items, m)
			if len(items) == maxHintsPerKind {
				break
			}
		}
		if len(items) > 0 {
			lines = append(lines, p.label+": "+strings.Join(items, ", "))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Key Entities Identified:\n" + strings.Join(lines, "\n") + "\n"
}

const instructions = `Instructions:
- Carefully read ALL context sections [Context 1], [Context 2], etc.
- Pay attention to named entities, relationships, and semantic connections
- For questions about totals/summaries, combine information from multiple sections
- Answer using ONLY the information provided in the context
- Be thorough for complex questions (total experience, overall summary, etc.)
- If asking about totals, add up all relevant information from different sections
- Cite specific details when possible
- If context is insufficient, clearly state what's missing
- Understand nuances, implications, and logical inferences from the context
- Provide abstractive summaries when requested, not just extractive quotes
- You have access to tools for calculations, date operations, and text analysis - use them when needed
- For mathematical calculations, use the calculator tool
- For date-related questions (current date, current time, date differences), use the date_calculator tool
- For text analysis tasks (word count, character count, extract data), use the text_analyzer tool
- If the document context doesn't contain the answer and you have a relevant tool, use the tool instead`

// buildPrompt assembles the single user turn sent to the model.
func buildPrompt(question, context string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant that answers questions based on provided document context.\n\n")
	sb.WriteString("Document Context (analyze ALL sections):\n")
	sb.WriteString(context)
	sb.WriteString("\n\n")
	sb.WriteString(entityHints(context))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(instructions)
	sb.WriteString("\n\nAnswer (use tools when appropriate):")
	return sb.String()
}
