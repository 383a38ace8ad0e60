package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxCSVRows bounds how many data rows are extracted from a CSV file.
const maxCSVRows = 1000

// extractText decodes UTF-8 text, treating invalid input as Latin-1.
func extractText(_ string, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content), nil
	}
	return decodeLatin1(content), nil
}

// decodeLatin1 maps each byte to the code point of the same value.
func decodeLatin1(content []byte) string {
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes)
}

// extractCSV renders the header and each non-empty row on its own line.
func extractCSV(path string, content []byte) (string, error) {
	text, _ := extractText(path, content)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("error reading CSV: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	parts := []string{"CSV Headers: " + strings.Join(records[0], ", ")}
	for i, row := range records[1:] {
		n := i + 1
		if n > maxCSVRows {
			parts = append(parts, fmt.Sprintf("... (truncated after %d rows)", maxCSVRows))
			break
		}
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if cell != "" {
				cells = append(cells, cell)
			}
		}
		line := strings.Join(cells, " | ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Row %d: %s", n, line))
	}
	return strings.Join(parts, "\n"), nil
}

// sniffDelimiter picks the candidate that occurs most often in the first line.
func sniffDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(first, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
