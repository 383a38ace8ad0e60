package local

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/nlp"
)

const (
	topSentences        = 3
	topDefinitions      = 2
	entityBoostPerMatch = 0.3
	maxEntityBoost      = 0.5
	summaryTopics       = 3
	summaryPhrases      = 5
)

var (
	numberMention  = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?(?:\s*%|\s*percent|\s*years?|\s*months?|\s*days?)?\b`)
	definitionCues = []string{" is ", " are ", " means ", " refers to ", " defined as ", " called "}
	comparisonCues = []string{"compare", "difference", "versus", "vs", "better", "worse", "than", "while", "whereas"}
	documentCues   = []string{"document", "file", "this"}
)

type scored struct {
	text  string
	score float64
}

// best sorts by descending score, keeping input order for ties, and returns
// at most n texts.
func best(items []scored, n int) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.text
	}
	return out
}

func (g *Generator) summarize(context string, sentences []string) string {
	if len(sentences) <= topSentences {
		return "Summary:\n\n" + context
	}

	entityCounts := newCounter()
	phraseCounts := newCounter()
	for _, s := range sentences {
		entityCounts.add(g.entities.Entities(s)...)
		phraseCounts.add(nlp.Keywords(s)...)
	}
	entities := entityCounts.top(summaryTopics)
	phrases := phraseCounts.top(summaryPhrases)

	items := make([]scored, len(sentences))
	for i, s := range sentences {
		lower := strings.ToLower(s)
		var score float64
		for _, e := range entities {
			if strings.Contains(lower, strings.ToLower(e)) {
				score += 2
			}
		}
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				score++
			}
		}
		items[i] = scored{s, score}
	}

	var sb strings.Builder
	sb.WriteString("Summary:\n\n")
	topics := append(append([]string(nil), entities...), phrases[:min(3, len(phrases))]...)
	if len(topics) > 0 {
		sb.WriteString("Key topics: " + strings.Join(topics, ", ") + ". ")
	}
	sb.WriteString(strings.Join(best(items, topSentences), " "))
	return sb.String()
}

func (g *Generator) facts(question string, sentences []string, results []domain.SearchResult) string {
	if len(sentences) == 0 {
		return "No relevant information found."
	}

	qEntities := g.entities.Entities(question)
	qWords := nlp.KeywordSet(question)

	var items []scored
	for _, s := range sentences {
		score := nlp.Jaccard(qWords, nlp.KeywordSet(s)) + entityBoost(qEntities, g.entities.Entities(s))
		if score > 0 {
			items = append(items, scored{s, score})
		}
	}
	if len(items) == 0 {
		return "I couldn't find specific information to answer your question."
	}

	entityInfo := ""
	if len(qEntities) > 0 {
		entityInfo = "Key entities: " + strings.Join(qEntities[:min(5, len(qEntities))], ", ") + "\n"
	}
	body := strings.Join(best(items, topSentences), "\n\n")

	if containsAny(strings.ToLower(question), documentCues...) {
		return documentInfo(results) + "\n" + entityInfo + "\nRelevant information:\n\n" + body
	}
	return "Based on the documents:\n" + entityInfo + "\n\n" + body
}

// entityBoost adds a fixed amount for every question/sentence entity pair where
// one contains the other, capped at maxEntityBoost.
func entityBoost(question, sentence []string) float64 {
	var boost float64
	for _, q := range question {
		q = strings.ToLower(q)
		for _, s := range sentence {
			s = strings.ToLower(s)
			if strings.Contains(s, q) || strings.Contains(q, s) {
				boost += entityBoostPerMatch
			}
		}
	}
	return min(boost, maxEntityBoost)
}

func (g *Generator) numbers(question string, sentences []string) string {
	qWords := nlp.KeywordSet(question)
	var found []string
	for _, s := range sentences {
		if numberMention.MatchString(s) && nlp.Overlap(qWords, nlp.KeywordSet(s)) > 0 {
			found = append(found, s)
			if len(found) == topSentences {
				break
			}
		}
	}
	if len(found) == 0 {
		return "No specific numerical information found for your question."
	}
	return "Numerical information found:\n\n" + strings.Join(found, "\n\n")
}

func (g *Generator) define(question string, sentences []string) string {
	terms := g.entities.Entities(question)
	if len(terms) == 0 {
		for _, w := range nlp.Keywords(question) {
			if len([]rune(w)) > 3 {
				terms = append(terms, w)
			}
		}
	}
	if len(terms) == 0 {
		return g.mostRelevant(question, sentences)
	}

	var found []string
	for _, s := range sentences {
		lower := strings.ToLower(s)
		sEntities := g.entities.Entities(s)
		for _, term := range terms {
			t := strings.ToLower(term)
			if entityBoost([]string{t}, sEntities) > 0 ||
				(strings.Contains(lower, t) && containsAny(lower, definitionCues...)) {
				found = append(found, s)
				break
			}
		}
		if len(found) == topDefinitions {
			break
		}
	}
	if len(found) == 0 {
		return "No clear definition found for the requested terms in the documents."
	}
	return fmt.Sprintf("Definition of '%s':\n\n", terms[0]) + strings.Join(found, "\n\n")
}

func (g *Generator) compare(question string, sentences []string) string {
	var found []string
	for _, s := range sentences {
		if containsAny(strings.ToLower(s), comparisonCues...) {
			found = append(found, s)
			if len(found) == topSentences {
				break
			}
		}
	}
	if len(found) == 0 {
		return g.mostRelevant(question, sentences)
	}
	return "Comparison information:\n\n" + strings.Join(found, "\n\n")
}

// mostRelevant ranks sentences by shared keywords, preferring longer ones on ties.
func (g *Generator) mostRelevant(question string, sentences []string) string {
	qWords := nlp.KeywordSet(question)
	var items []scored
	for _, s := range sentences {
		if n := nlp.Overlap(qWords, nlp.KeywordSet(s)); n > 0 {
			items = append(items, scored{s, float64(n) + float64(len(s))/1000})
		}
	}
	if len(items) == 0 {
		return "I couldn't find relevant information to answer your question."
	}
	return "Most relevant information:\n\n" + strings.Join(best(items, topSentences), "\n\n")
}

func documentInfo(results []domain.SearchResult) string {
	sources := domain.Sources(results)
	switch len(sources) {
	case 0:
		return "No documents found."
	case 1:
		return "Document: " + sources[0]
	default:
		return "Documents: " + strings.Join(sources, ", ")
	}
}

// counter tallies strings and reports the most frequent, first seen first on ties.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(items ...string) {
	for _, it := range items {
		if _, ok := c.counts[it]; !ok {
			c.order = append(c.order, it)
		}
		c.counts[it]++
	}
}

func (c *counter) top(n int) []string {
	out := append([]string(nil), c.order...)
	sort.SliceStable(out, func(i, j int) bool { return c.counts[out[i]] > c.counts[out[j]] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
