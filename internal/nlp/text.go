package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

// stopwords is the standard English stopword list.
var stopwords = toSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're", "you've",
	"you'll", "you'd", "your", "yours", "yourself", "yourselves", "he", "him", "his",
	"himself", "she", "she's", "her", "hers", "herself", "it", "it's", "its", "itself",
	"they", "them", "their", "theirs", "themselves", "what", "which", "who", "whom", "this",
	"that", "that'll", "these", "those", "am", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "having", "do", "does", "did", "doing", "a", "an", "the",
	"and", "but", "if", "or", "because", "as", "until", "while", "of", "at", "by", "for",
	"with", "about", "against", "between", "into", "through", "during", "before", "after",
	"above", "below", "to", "from", "up", "down", "in", "out", "on", "off", "over", "under",
	"again", "further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t", "can",
	"will", "just", "don", "don't", "should", "should've", "now", "d", "ll", "m", "o", "re",
	"ve", "y", "ain", "aren", "aren't", "couldn", "couldn't", "didn", "didn't", "doesn",
	"doesn't", "hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn", "isn't", "ma",
	"mightn", "mightn't", "mustn", "mustn't", "needn", "needn't", "shan", "shan't",
	"shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't", "won", "won't",
	"wouldn", "wouldn't",
)

// sentenceBoundary matches terminal punctuation followed by whitespace.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// minSentenceLen is the shortest sentence kept by Sentences.
const minSentenceLen = 10

// IsStopword reports whether word is an English stopword.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Tokens lower-cases text, strips punctuation and splits on whitespace.
func Tokens(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	return strings.Fields(cleaned)
}

// Keywords returns tokens longer than two characters that are not stopwords.
func Keywords(text string) []string {
	var out []string
	for _, tok := range Tokens(text) {
		if len([]rune(tok)) > 2 && !IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// KeywordSet returns Keywords as a set.
func KeywordSet(text string) map[string]struct{} {
	return toSet(Keywords(text)...)
}

// Sentences splits text at terminal punctuation and drops fragments of ten
// characters or fewer.
func Sentences(text string) []string {
	marked := sentenceBoundary.ReplaceAllString(text, "$1\x00")
	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		if len([]rune(s)) > minSentenceLen {
			out = append(out, s)
		}
	}
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := Overlap(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Overlap counts the members shared by a and b.
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
