package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

const (
	uriScheme = "ragdesk://"

	// insightsDays is the window reported by the insights resource.
	insightsDays = 7
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Chunk count, active generator, memory usage and loaded models",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "insights",
		Name:        "insights",
		Description: "Query performance over the last week with recommendations",
		MIMEType:    "application/json",
	}, s.handleInsightsResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Query.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleInsightsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Analytics == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	insights, err := s.ports.Analytics.Insights(ctx, insightsDays)
	if err != nil {
		return nil, fmt.Errorf("reading insights: %w", err)
	}
	recs, err := s.ports.Analytics.Recommendations(ctx, insightsDays)
	if err != nil {
		return nil, fmt.Errorf("reading recommendations: %w", err)
	}

	payload := struct {
		Insights        *domain.PerformanceInsights `json:"insights"`
		Recommendations []domain.Recommendation     `json:"recommendations"`
	}{insights, recs}
	return jsonResource(req.Params.URI, payload)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
