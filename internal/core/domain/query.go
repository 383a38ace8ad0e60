package domain

import (
	"fmt"
	"strings"
	"time"
)

// NoInformationMessage is returned when retrieval finds nothing.
const NoInformationMessage = "I don't have any relevant information to answer your question. " +
	"Please upload some documents first."

// aggregationCues widen retrieval for questions that span many sections.
var aggregationCues = []string{"total", "overall", "summary", "all", "entire"}

// IsAggregateQuestion reports whether the question contains an aggregation cue.
// Cues are matched as substrings of the lower-cased question.
func IsAggregateQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, cue := range aggregationCues {
		if strings.Contains(q, cue) {
			return true
		}
	}
	return false
}

// RetrievalWidth returns how many chunks to request for a question.
func RetrievalWidth(question string, defaultResults, aggregateResults int) int {
	if IsAggregateQuestion(question) {
		return aggregateResults
	}
	return defaultResults
}

// BuildContext labels each result as [Context N] in retrieval order.
func BuildContext(results []SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[Context %d]: %s", i+1, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// QueryResult is what a query returns to its caller.
type QueryResult struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
	QueryID  string   `json:"query_id"`
}

// QueryRecord is the telemetry row written for every answered query.
type QueryRecord struct {
	QueryID         string
	Timestamp       time.Time
	Question        string
	Response        string
	ContextLength   int
	ChunkCount      int
	SearchTime      time.Duration
	GenerationTime  time.Duration
	TotalTime       time.Duration
	Sources         []string
	SearchDistances []float64

	// UserRating is nil until the user grades the answer.
	UserRating *int
	Feedback   string
}

// StreamFunc receives incremental response fragments in emission order.
type StreamFunc func(fragment string)
