package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// wordBody mirrors the parts of word/document.xml that carry text.
type wordBody struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// extractDOCX returns the document's paragraphs, one per line.
func extractDOCX(_ string, content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("error reading DOCX: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("error reading DOCX: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("error reading DOCX: %w", err)
		}

		var doc wordBody
		if err := xml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("error reading DOCX: %w", err)
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, p := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, r := range p.Runs {
				for _, t := range r.Text {
					sb.WriteString(t)
				}
			}
			paragraphs = append(paragraphs, sb.String())
		}
		return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
	}
	return "", fmt.Errorf("error reading DOCX: word/document.xml not found")
}
