package cli

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("", "ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("", "ask", "How", "did", "revenue", "change?")

	require.NoError(t, err)
	assert.Equal(t, "How did revenue change?", ts.query.question)
	assert.False(t, ts.query.streamed)
	assert.Contains(t, out, "Revenue grew 12% in 2023.")
	assert.Contains(t, out, "Sources: report.txt")
	assert.Contains(t, out, "Query ID: q-123")
}

func TestAskCmd_StreamsOnTerminal(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.fragments = []string{"Revenue ", "grew."}
	ts.query.result.Response = "Revenue grew."

	orig := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	defer func() { isTerminal = orig }()

	out, err := runCommand("", "ask", "revenue?")

	require.NoError(t, err)
	assert.True(t, ts.query.streamed)
	assert.Contains(t, out, "Revenue grew.\n")
}

func TestAskCmd_NoStreamFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	orig := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	defer func() { isTerminal = orig }()

	_, err := runCommand("", "ask", "--no-stream", "revenue?")

	require.NoError(t, err)
	assert.False(t, ts.query.streamed)
}

func TestAskCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("", "ask", "--json", "revenue?")

	require.NoError(t, err)
	var got domain.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q-123", got.QueryID)
	assert.Equal(t, []string{"report.txt"}, got.Sources)
}

func TestAskCmd_IngestsFilesFirst(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.results = map[string]driving.IngestResult{
		"bad.xlsx": {Path: "bad.xlsx", Err: domain.ErrUnsupportedType},
	}

	out, err := runCommand("", "ask", "--file", "notes.txt", "--file", "bad.xlsx", "summary?")

	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt", "bad.xlsx"}, ts.documents.ingested)
	assert.Contains(t, out, "Skipped bad.xlsx")
	assert.Equal(t, "summary?", ts.query.question)
}

func TestAskCmd_QueryError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.err = domain.ErrEmptyQuestion

	_, err := runCommand("", "ask", " ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
}

func TestAskCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	queryService = nil

	_, err := runCommand("", "ask", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query service not configured")
}
