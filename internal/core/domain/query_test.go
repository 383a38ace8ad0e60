package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalWidth(t *testing.T) {
	tests := []struct {
		question string
		expected int
	}{
		{"What is the total revenue?", 8},
		{"Give me an OVERALL picture", 8},
		{"Write a summary", 8},
		{"List all projects", 8},
		{"Describe the entire process", 8},
		{"What color is the sky?", 5},
		{"Who signed the contract?", 5},
		// Substring matching widens words that merely contain a cue.
		{"Is it a small team?", 8},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.expected, RetrievalWidth(tt.question, 5, 8))
		})
	}
}

func TestBuildContext(t *testing.T) {
	results := []SearchResult{
		{Text: "first"},
		{Text: "second"},
	}

	assert.Equal(t, "[Context 1]: first\n\n[Context 2]: second", BuildContext(results))
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
}
