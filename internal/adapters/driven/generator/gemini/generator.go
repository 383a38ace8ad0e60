// Package gemini provides the remote response generator backed by the
// Gemini generateContent API, with function calling into the tool registry.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Generator implements the interface.
var _ driven.ResponseGenerator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 60 * time.Second
)

// Fixed user-facing messages.
const (
	apologyMessage = "I couldn't generate a response. Please try rephrasing your question."
	errorPrefix    = "Error processing with Gemini: "
)

// maxEventSize bounds a single SSE line.
const maxEventSize = 1 << 20

// Config holds configuration for the Gemini generator.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: v1beta endpoint).
	BaseURL string

	// Model is the model to use (default: gemini-1.5-flash).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	Temperature     float64
	MaxOutputTokens int

	// RequestsPerMinute paces requests. Zero disables pacing.
	RequestsPerMinute int
}

// Generator answers questions with a remote Gemini model.
type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	genCfg  *generationConfig
	limiter *rate.Limiter
	tools   driven.ToolExecutor
	log     *logger.Logger
}

// New creates a Gemini generator. tools may be nil, in which case no
// function declarations are sent.
func New(cfg Config, tools driven.ToolExecutor, log *logger.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", domain.ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	g := &Generator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		tools:   tools,
		log:     log,
	}
	if cfg.Temperature > 0 || cfg.MaxOutputTokens > 0 {
		g.genCfg = &generationConfig{Temperature: cfg.Temperature, MaxOutputTokens: cfg.MaxOutputTokens}
	}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return g, nil
}

// Kind returns domain.GeneratorGemini.
func (g *Generator) Kind() domain.GeneratorKind {
	return domain.GeneratorGemini
}

// Features lists the generator's capabilities.
func (g *Generator) Features() []string {
	return []string{"Gemini " + g.model, "Streaming responses", "Function calling"}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Ping makes a single generation call as a connectivity and credential probe.
// It is not paced, so the first question after startup does not wait.
func (g *Generator) Ping(ctx context.Context) error {
	resp, err := g.generate(ctx, generateRequest{Contents: userTurn("Hello")}, false)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	if len(resp.parts()) == 0 {
		return errors.New("gemini: ping returned no content")
	}
	g.log.Info("Gemini API test successful (%s)", g.model)
	return nil
}

// ProcessQuestion answers the question from context. Errors are reported
// in-band. When stream is set every fragment of the final text is passed to
// it in order, so the fragments always concatenate to Generation.Text.
func (g *Generator) ProcessQuestion(
	ctx context.Context,
	question, context string,
	results []domain.SearchResult,
	stream domain.StreamFunc,
) domain.Generation {
	g.log.Info("Processing question with Gemini. Context length: %d, Sources: %v",
		len(context), domain.Sources(results))

	req := generateRequest{
		Contents:         userTurn(buildPrompt(question, context)),
		GenerationConfig: g.genCfg,
	}
	if g.tools != nil {
		req.Tools = declarations(g.tools.Definitions())
	}

	out := &emitter{stream: stream}
	var err error
	if stream != nil {
		err = g.streamGenerate(ctx, req, func(p part) { g.emitPart(ctx, out, p) })
	} else {
		var resp *generateResponse
		if resp, err = g.generate(ctx, req, true); err == nil {
			for _, p := range resp.parts() {
				g.emitPart(ctx, out, p)
			}
		}
	}

	if err != nil {
		g.log.Error("Gemini API error: %v", err)
		msg := errorPrefix + err.Error()
		if out.len() > 0 {
			msg = "\n\n" + msg
		}
		out.emit(msg)
		return domain.Generation{Text: out.text(), Status: domain.GenerationFailed, Err: err}
	}
	if strings.TrimSpace(out.text()) == "" {
		g.log.Warn("Gemini returned empty response")
		out.emit(apologyMessage)
		return domain.Generation{Text: out.text(), Status: domain.GenerationEmpty}
	}

	g.log.Info("Gemini response completed. Length: %d chars", out.len())
	return domain.Generation{Text: out.text(), Status: domain.GenerationOK}
}

// Close releases idle connections.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// emitPart appends a text part, or runs a requested tool and splices its
// result in at the same position.
func (g *Generator) emitPart(ctx context.Context, out *emitter, p part) {
	switch {
	case p.FunctionCall != nil:
		out.emit(fmt.Sprintf("\n\n[Tool: %s] %s\n\n", p.FunctionCall.Name, g.runTool(ctx, p.FunctionCall)))
	case p.Text != "":
		out.emit(p.Text)
	}
}

func (g *Generator) runTool(ctx context.Context, call *functionCall) string {
	if g.tools == nil {
		return "Unknown tool: " + call.Name
	}
	res := g.tools.Execute(ctx, call.Name, call.Args)
	g.log.Info("Function call executed: %s -> %.100s", call.Name, res.Text)
	return res.Text
}

// generate performs a blocking generateContent call. paced calls wait on the
// request limiter.
func (g *Generator) generate(ctx context.Context, body generateRequest, paced bool) (*generateResponse, error) {
	resp, err := g.post(ctx, ":generateContent", nil, body, paced)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	return &out, nil
}

// streamGenerate performs a streamGenerateContent call and hands each part to
// onPart in arrival order.
func (g *Generator) streamGenerate(ctx context.Context, body generateRequest, onPart func(part)) error {
	resp, err := g.post(ctx, ":streamGenerateContent", url.Values{"alt": {"sse"}}, body, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		var event generateResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if event.Error != nil {
			return fmt.Errorf("gemini error %d: %s", event.Error.Code, event.Error.Message)
		}
		for _, p := range event.parts() {
			onPart(p)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// post sends a JSON request to the model endpoint and checks the status code.
func (g *Generator) post(
	ctx context.Context,
	method string,
	query url.Values,
	body generateRequest,
	paced bool,
) (*http.Response, error) {
	if paced && g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", g.apiKey)
	endpoint := fmt.Sprintf("%s/models/%s%s?%s", g.baseURL, g.model, method, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", redactKey(err, g.apiKey))
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr generateResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("gemini error %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, nil
}

func userTurn(text string) []content {
	return []content{{Role: "user", Parts: []part{{Text: text}}}}
}

// redactKey removes the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}

// emitter accumulates the final text from the fragments it forwards.
type emitter struct {
	stream domain.StreamFunc
	sb     strings.Builder
}

func (e *emitter) emit(fragment string) {
	if fragment == "" {
		return
	}
	e.sb.WriteString(fragment)
	if e.stream != nil {
		e.stream(fragment)
	}
}

func (e *emitter) text() string { return e.sb.String() }

func (e *emitter) len() int { return e.sb.Len() }
