package local

import "strings"

// questionType routes a question to a handler.
type questionType int

const (
	factual questionType = iota
	summary
	numerical
	definition
	comparison
)

func (t questionType) String() string {
	switch t {
	case summary:
		return "summary"
	case numerical:
		return "numerical"
	case definition:
		return "definition"
	case comparison:
		return "comparison"
	default:
		return "factual"
	}
}

// Cue lists in priority order; the first list with a match wins.
var classifierCues = []struct {
	kind questionType
	cues []string
}{
	{summary, []string{"summary", "summarize", "overview", "brief", "main points"}},
	{numerical, []string{"how many", "how much", "number", "count", "age", "years", "percent", "percentage"}},
	{definition, []string{"what is", "define", "definition", "meaning", "means"}},
	{comparison, []string{"compare", "difference", "versus", "vs", "better", "worse"}},
}

// classify matches cue substrings against the lower-cased question.
func classify(question string) questionType {
	q := strings.ToLower(question)
	for _, c := range classifierCues {
		if containsAny(q, c.cues...) {
			return c.kind
		}
	}
	return factual
}
