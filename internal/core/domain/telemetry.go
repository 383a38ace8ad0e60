package domain

import "time"

// DocumentRecord is the document_metrics row for an ingested file.
type DocumentRecord struct {
	DocID        string
	Filename     string
	FileSize     int64
	ChunkCount   int
	AvgChunkSize float64
	UploadTime   time.Time
	UsageCount   int
}

// FailingQuery is a low-rated question surfaced by insights.
type FailingQuery struct {
	Question  string  `json:"question"`
	AvgRating float64 `json:"avg_rating"`
	Count     int     `json:"count"`
}

// DocumentUsage is a usage counter surfaced by insights.
type DocumentUsage struct {
	Filename   string `json:"filename"`
	UsageCount int    `json:"usage_count"`
	ChunkCount int    `json:"chunk_count"`
}

// PerformanceInsights aggregates query telemetry over a trailing window.
type PerformanceInsights struct {
	Days              int     `json:"days"`
	TotalQueries      int     `json:"total_queries"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	AvgContextLength  float64 `json:"avg_context_length"`
	AvgSearchTime     float64 `json:"avg_search_time"`
	AvgGenerationTime float64 `json:"avg_generation_time"`

	// AvgRating is nil when no query in the window was graded.
	AvgRating   *float64 `json:"avg_rating"`
	SuccessRate float64  `json:"success_rate"`

	FailingQueries []FailingQuery  `json:"failing_queries"`
	TopDocuments   []DocumentUsage `json:"top_documents"`
}

// TrendPoint is one performance_trends sample.
type TrendPoint struct {
	Date   time.Time
	Metric string
	Value  float64
}

// Recommendation is an optimisation hint derived from insights.
type Recommendation struct {
	Area    string `json:"area"`
	Message string `json:"message"`
}
