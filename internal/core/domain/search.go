package domain

import (
	"math"
	"sort"
)

// SearchResult is a retrieved chunk. It is produced fresh per query.
type SearchResult struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata identifies where the chunk came from.
	Metadata ChunkMetadata `json:"metadata"`

	// Distance is the cosine distance to the query; lower is more similar.
	Distance float64 `json:"distance"`
}

// SortByDistance orders results best match first.
func SortByDistance(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
}

// Sources returns the deduplicated filenames of results in first-seen order.
func Sources(results []SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		name := r.Metadata.Filename
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}

// Distances returns the distance of each result, in order.
func Distances(results []SearchResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Distance
	}
	return out
}

// CosineDistance returns 1 - cosine similarity, clamped at zero.
// Mismatched or zero vectors are maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return max(0, 1-dot/(math.Sqrt(na)*math.Sqrt(nb)))
}
