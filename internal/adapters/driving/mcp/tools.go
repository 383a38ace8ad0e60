package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	QueryID string   `json:"query_id"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Paths []string `json:"paths" jsonschema:"files to load, chunk and index"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Files []IngestedFile `json:"files"`
	Added int            `json:"added"`
}

// IngestedFile reports the outcome for one path.
type IngestedFile struct {
	Path     string `json:"path"`
	FileHash string `json:"file_hash,omitempty"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// FeedbackInput is the input schema for the feedback tool.
type FeedbackInput struct {
	QueryID  string `json:"query_id" jsonschema:"the id returned by ask"`
	Rating   int    `json:"rating" jsonschema:"rating from 1 to 5"`
	Feedback string `json:"feedback,omitempty" jsonschema:"optional free-text comment"`
}

// FeedbackOutput is the output schema for the feedback tool.
type FeedbackOutput struct {
	Recorded bool `json:"recorded"`
}

// RunToolInput is the input schema for the run_tool tool.
type RunToolInput struct {
	Name string         `json:"name" jsonschema:"calculator, date_calculator or text_analyzer"`
	Args map[string]any `json:"args,omitempty" jsonschema:"tool arguments"`
}

// RunToolOutput is the output schema for the run_tool tool.
type RunToolOutput struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
	OK     bool   `json:"ok"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Load, chunk and index local files",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report chunk count, active generator and memory usage",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "feedback",
		Description: "Rate a previous answer",
	}, s.handleFeedback)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_tool",
		Description: "Run one of the helper tools directly",
	}, s.handleRunTool)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.ports.Query.Query(ctx, input.Question, nil, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: res.Response, Sources: res.Sources, QueryID: res.QueryID}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Documents == nil {
		return nil, IngestOutput{}, fmt.Errorf("ingest: %w", ErrServiceUnavailable)
	}
	if len(input.Paths) == 0 {
		return nil, IngestOutput{}, fmt.Errorf("ingest: no paths: %w", domain.ErrInvalidInput)
	}

	out := IngestOutput{Files: make([]IngestedFile, 0, len(input.Paths))}
	for _, r := range s.ports.Documents.Ingest(ctx, input.Paths) {
		f := IngestedFile{Path: r.Path}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		if r.Document != nil {
			f.FileHash = r.Document.FileHash
			f.Chunks = r.Document.ChunkCount()
		}
		out.Added += r.Report.Added
		out.Files = append(out.Files, f)
	}
	return nil, out, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.Stats, error) {
	stats, err := s.ports.Query.Stats(ctx)
	if err != nil {
		return nil, domain.Stats{}, err
	}
	return nil, stats, nil
}

func (s *Server) handleFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FeedbackInput,
) (*mcp.CallToolResult, FeedbackOutput, error) {
	if err := s.ports.Query.RecordFeedback(ctx, input.QueryID, input.Rating, input.Feedback); err != nil {
		return nil, FeedbackOutput{}, err
	}
	return nil, FeedbackOutput{Recorded: true}, nil
}

func (s *Server) handleRunTool(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunToolInput,
) (*mcp.CallToolResult, RunToolOutput, error) {
	if s.ports.Tools == nil {
		return nil, RunToolOutput{}, fmt.Errorf("run_tool: %w", ErrServiceUnavailable)
	}
	res := s.ports.Tools.Execute(ctx, input.Name, input.Args)
	return nil, RunToolOutput{Tool: res.Tool, Result: res.Text, OK: res.OK}, nil
}
