package local

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/nlp"
)

// Ensure both recognisers implement the interface.
var (
	_ driven.EntityRecognizer = (*Tagger)(nil)
	_ driven.EntityRecognizer = (*Gazetteer)(nil)
)

var (
	capitalisedPhrase = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*\b`)
	organisation      = regexp.MustCompile(`\b[A-Z][a-zA-Z]+ (?:Inc|Corp|LLC|Ltd|Company|Organization|University|Bank)\b`)
	calendarDate      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	quantity          = regexp.MustCompile(`\b\d+(?:\.\d+)?%?`)
)

// Tagger is the built-in regex entity tagger. It finds organisations,
// capitalised phrases, dates and numbers.
type Tagger struct{}

// NewTagger creates the built-in tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// Entities returns distinct entities in order of first appearance.
// Leading stopwords are trimmed from capitalised phrases, so a
// sentence-initial "What" or "The" is not reported.
func (t *Tagger) Entities(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(e string) {
		if e == "" {
			return
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}

	for _, m := range organisation.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range capitalisedPhrase.FindAllString(text, -1) {
		add(trimStopwords(m))
	}
	for _, m := range calendarDate.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range quantity.FindAllString(calendarDate.ReplaceAllString(text, " "), -1) {
		add(m)
	}
	return out
}

func trimStopwords(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && nlp.IsStopword(strings.ToLower(words[0])) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// Gazetteer recognises entities from a fixed list of known names.
// Matching is case-insensitive on word boundaries; the canonical spelling
// from the list is reported.
type Gazetteer struct {
	names   []string
	pattern *regexp.Regexp
	bytes   int64
}

// LoadGazetteer reads a newline-separated entity list. Blank lines and lines
// starting with # are ignored.
func LoadGazetteer(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	defer f.Close()

	var names []string
	var size int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		size += int64(len(scanner.Bytes())) + 1
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("gazetteer %s has no entries", path)
	}

	g := NewGazetteer(names)
	g.bytes = size
	return g, nil
}

// NewGazetteer builds a recogniser over names.
func NewGazetteer(names []string) *Gazetteer {
	sorted := append([]string(nil), names...)
	// Longest first, so "New York City" wins over "New York".
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return &Gazetteer{
		names:   sorted,
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Len returns the number of known names.
func (g *Gazetteer) Len() int {
	return len(g.names)
}

// SizeMB estimates the in-memory footprint from the source size.
func (g *Gazetteer) SizeMB() float64 {
	const overhead = 4 // compiled pattern and string headers
	return float64(g.bytes*overhead) / (1024 * 1024)
}

// Entities returns the known names found in text, in order of appearance.
func (g *Gazetteer) Entities(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range g.pattern.FindAllString(text, -1) {
		canonical := g.canonical(m)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

func (g *Gazetteer) canonical(match string) string {
	for _, n := range g.names {
		if strings.EqualFold(n, match) {
			return n
		}
	}
	return match
}
