package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func result(text, file string, distance float64) SearchResult {
	return SearchResult{Text: text, Metadata: ChunkMetadata{Filename: file}, Distance: distance}
}

func TestSortByDistance(t *testing.T) {
	results := []SearchResult{
		result("c", "a.txt", 0.9),
		result("a", "a.txt", 0.1),
		result("b", "b.txt", 0.5),
	}

	SortByDistance(results)

	assert.Equal(t, "a", results[0].Text)
	assert.Equal(t, "b", results[1].Text)
	assert.Equal(t, "c", results[2].Text)
}

func TestSources_DeduplicatesInOrder(t *testing.T) {
	results := []SearchResult{
		result("1", "b.txt", 0.1),
		result("2", "a.txt", 0.2),
		result("3", "b.txt", 0.3),
	}

	assert.Equal(t, []string{"b.txt", "a.txt"}, Sources(results))
}

func TestSources_Empty(t *testing.T) {
	assert.Empty(t, Sources(nil))
}

func TestDistances(t *testing.T) {
	results := []SearchResult{result("1", "a", 0.25), result("2", "a", 0.5)}
	assert.Equal(t, []float64{0.25, 0.5}, Distances(results))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 1.0, CosineDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{1, 2}))
}
