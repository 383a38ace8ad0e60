// Package loader extracts plain text from local files for ingestion.
//
// Dispatch is by lowercase file extension:
//
//   - .txt, .md: UTF-8, falling back to Latin-1 when the bytes are not valid UTF-8
//   - .csv: header line plus numbered rows joined with " | "
//   - .html, .htm: markup stripped, block elements become line breaks
//   - .docx: paragraphs from word/document.xml
//   - .pdf: plain text of each page
package loader
