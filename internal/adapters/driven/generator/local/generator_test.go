package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/tools"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func newTestGenerator() *Generator {
	clock := func() time.Time { return time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC) }
	return New(tools.NewExecutor(nil, tools.WithClock(clock)), nil, nil)
}

func ask(t *testing.T, g *Generator, question, docText string, results ...domain.SearchResult) string {
	t.Helper()
	gen := g.ProcessQuestion(context.Background(), question, docText, results, func(string) {
		t.Fatal("local generator must not stream")
	})
	assert.Equal(t, domain.GenerationOK, gen.Status)
	return gen.Text
}

func TestKindAndFeatures(t *testing.T) {
	g := newTestGenerator()
	assert.Equal(t, domain.GeneratorLocal, g.Kind())
	assert.NotEmpty(t, g.Features())
	assert.NoError(t, g.Close())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     questionType
	}{
		{"Give me a summary of the report", summary},
		{"Summarize how many staff there are", summary},
		{"How many employees are there?", numerical},
		{"What percentage was spent?", numerical},
		{"What is photosynthesis?", definition},
		{"Define entropy", definition},
		{"Compare Go versus Rust", comparison},
		{"Who founded the company?", factual},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.question))
		})
	}
}

func TestExtractExpression(t *testing.T) {
	tests := []struct {
		question string
		want     string
		ok       bool
	}{
		{"What is 2 + 3?", "2 + 3", true},
		{"calculate (4+6)*2", "(4+6)*2", true},
		{"what is 10 plus 5", "10 + 5", true},
		{"compute 20 divided by 4", "20 / 4", true},
		{"12*3", "12*3", true},
		{"what is 15% of the budget", "15/100", true},
		{"days between 2024-01-01 and 2024-02-01", "", false},
		{"What is machine learning?", "", false},
		{"what is 42", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, ok := extractExpression(tt.question)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToolShortCircuit(t *testing.T) {
	g := newTestGenerator()
	ctxText := "Contact ada@example.com or bob@example.org. We sold 12 units and 7 more."

	tests := []struct {
		question string
		want     string
	}{
		{"What is 2 + 3?", "Calculation: Result: 5"},
		{"12*3", "Calculation: Result: 36"},
		{"Multiply 6 multiplied by 7", "Calculation: Result: 42"},
		{"What is today's date?", "Current date: 2024-03-15"},
		{"What time is it?", "Current time: 2024-03-15 09:30:05"},
		{"How many days between 2024-01-01 and 2024-01-31?", "Date difference: 30 days"},
		{"Give me the word count", "Word count: 11"},
		{"How many characters are in the text?", "Character count: 72"},
		{"Extract the emails", "Emails found: ada@example.com, bob@example.org"},
		{"Extract all numbers", "Numbers found: 12, 7"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, ask(t, g, tt.question, ctxText))
		})
	}
}

func TestTextToolsNeedContext(t *testing.T) {
	g := newTestGenerator()
	text := ask(t, g, "Give me the word count", "")
	assert.NotContains(t, text, "Word count")
}

func TestSummary(t *testing.T) {
	g := newTestGenerator()

	short := "Acme builds rockets. Launches happen monthly."
	assert.Equal(t, "Summary:\n\n"+short, ask(t, g, "Summarize this", short))

	long := "Acme builds reusable rockets in Texas. " +
		"Acme rockets launch satellites every month. " +
		"The cafeteria serves lunch at noon daily. " +
		"Acme rockets are cheaper than rivals. " +
		"Parking is available behind the building."
	text := ask(t, g, "Give me an overview", long)
	assert.True(t, strings.HasPrefix(text, "Summary:\n\nKey topics: Acme"))
	assert.Contains(t, text, "Acme builds reusable rockets in Texas.")
	assert.NotContains(t, text, "Parking is available")
}

func TestNumerical(t *testing.T) {
	g := newTestGenerator()
	docs := "The company was founded in 1998. It employs 250 people across Europe. The office has a garden."

	assert.Equal(t, "Numerical information found:\n\nIt employs 250 people across Europe.",
		ask(t, g, "How many people does it employ?", docs))

	assert.Equal(t, "No specific numerical information found for your question.",
		ask(t, g, "How many planets exist?", docs))
}

func TestDefinition(t *testing.T) {
	g := newTestGenerator()
	docs := "Photosynthesis is the process plants use to make food from light. Plants grow in soil and need water."

	assert.Equal(t, "Definition of 'photosynthesis':\n\nPhotosynthesis is the process plants use to make food from light.",
		ask(t, g, "What is photosynthesis?", docs))

	assert.Equal(t, "No clear definition found for the requested terms in the documents.",
		ask(t, g, "Define entropy", docs))
}

func TestComparison(t *testing.T) {
	g := newTestGenerator()

	docs := "Go compiles faster than Rust. Rust has stronger memory guarantees. Both are popular languages."
	assert.Equal(t, "Comparison information:\n\nGo compiles faster than Rust.",
		ask(t, g, "Compare Go versus Rust", docs))

	noCues := "Rust has stronger memory guarantees. Both are popular languages."
	assert.Equal(t, "Most relevant information:\n\nRust has stronger memory guarantees.",
		ask(t, g, "Compare memory in Rust", noCues))
}

func TestFactual(t *testing.T) {
	g := newTestGenerator()
	docs := "Acme Corp was founded by Jane Smith in 1998. The office is located downtown near the river."

	assert.Equal(t,
		"Based on the documents:\nKey entities: Acme Corp\n\n\nAcme Corp was founded by Jane Smith in 1998.",
		ask(t, g, "Who founded Acme Corp?", docs))

	text := ask(t, g, "What does this file say about Acme Corp?", docs,
		domain.SearchResult{Metadata: domain.ChunkMetadata{Filename: "acme.txt"}})
	assert.True(t, strings.HasPrefix(text, "Document: acme.txt\n"))
	assert.Contains(t, text, "Relevant information:\n\nAcme Corp was founded")

	assert.Equal(t, "I couldn't find specific information to answer your question.",
		ask(t, g, "Where do penguins live?", docs))

	assert.Equal(t, "No relevant information found.", ask(t, g, "Who founded it?", ""))
}

func TestWithoutTools(t *testing.T) {
	g := New(nil, nil, nil)
	text := ask(t, g, "What is 2 + 3?", "Two plus three equals five in arithmetic.")
	assert.NotContains(t, text, "Calculation")
}

func TestTagger(t *testing.T) {
	entities := NewTagger().Entities("What did Acme Corp and Jane Smith sign on 2024-01-15 for 25% of 300 shares?")

	assert.Equal(t, []string{"Acme Corp", "Jane Smith", "2024-01-15", "25%", "300"}, entities)
	assert.Empty(t, NewTagger().Entities("The quick fox."))
}

func TestGazetteer(t *testing.T) {
	g := NewGazetteer([]string{"New York", "New York City", "Acme"})

	assert.Equal(t, []string{"Acme", "New York City"}, g.Entities("acme moved to new york city, near ACME labs"))
	assert.Equal(t, 3, g.Len())
}

func TestLoadGazetteer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.txt")
	require.NoError(t, os.WriteFile(path, []byte("# people\nAda Lovelace\n\nAlan Turing\n"), 0o600))

	g, err := LoadGazetteer(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Greater(t, g.SizeMB(), 0.0)
	assert.Equal(t, []string{"Alan Turing"}, g.Entities("Papers by alan turing"))

	_, err = LoadGazetteer(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o600))
	_, err = LoadGazetteer(empty)
	assert.Error(t, err)
}

func TestGeneratorUsesInjectedRecognizer(t *testing.T) {
	g := New(nil, NewGazetteer([]string{"widget"}), nil)
	text := ask(t, g, "Who sells the widget?", "The widget is sold by Globex. Nothing else matters here.")
	assert.Contains(t, text, "Key entities: widget")
}
