package loader

import (
	"html"
	"regexp"
	"strings"
)

var (
	invisibleTags = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}
	titleTag   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	blockOpen  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	blockClose = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	lineBreaks = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	anyTag     = regexp.MustCompile(`<[^>]+>`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
)

// extractHTML strips markup and keeps one line per block of visible text.
// A non-empty <title> becomes the first line.
func extractHTML(_ string, content []byte) (string, error) {
	raw, _ := extractText("", content)

	var lines []string
	if m := titleTag.FindStringSubmatch(raw); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			lines = append(lines, title)
		}
	}

	for _, re := range invisibleTags {
		raw = re.ReplaceAllString(raw, "")
	}
	raw = blockOpen.ReplaceAllString(raw, "\n")
	raw = blockClose.ReplaceAllString(raw, "\n")
	raw = lineBreaks.ReplaceAllString(raw, "\n")
	raw = anyTag.ReplaceAllString(raw, "")
	raw = html.UnescapeString(raw)
	raw = spaceRuns.ReplaceAllString(raw, " ")

	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
