// Package local provides the rule-based response generator used when the
// remote model is unavailable. It answers by ranking context sentences
// against the question and never calls the network.
package local

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/nlp"
)

// Ensure Generator implements the interface.
var _ driven.ResponseGenerator = (*Generator)(nil)

// Generator answers questions with keyword and entity heuristics.
type Generator struct {
	tools    driven.ToolExecutor
	entities driven.EntityRecognizer
	log      *logger.Logger
}

// New creates a local generator. A nil recogniser selects the built-in Tagger.
func New(tools driven.ToolExecutor, entities driven.EntityRecognizer, log *logger.Logger) *Generator {
	if entities == nil {
		entities = NewTagger()
	}
	return &Generator{tools: tools, entities: entities, log: log}
}

// Kind returns domain.GeneratorLocal.
func (g *Generator) Kind() domain.GeneratorKind {
	return domain.GeneratorLocal
}

// Features lists the generator's capabilities.
func (g *Generator) Features() []string {
	return []string{"Question classification", "Keyword and entity ranking", "Direct tool execution"}
}

// ProcessQuestion answers from context. It does not stream.
func (g *Generator) ProcessQuestion(
	ctx context.Context,
	question, context string,
	results []domain.SearchResult,
	_ domain.StreamFunc,
) domain.Generation {
	if g.tools != nil {
		if text, ok := g.runTools(ctx, question, context); ok {
			g.log.Debug("Question answered by tool")
			return domain.Generation{Text: text, Status: domain.GenerationOK}
		}
	}

	sentences := nlp.Sentences(context)
	kind := classify(question)
	g.log.Debug("Local generator classified question as %s (%d sentences)", kind, len(sentences))

	var text string
	switch kind {
	case summary:
		text = g.summarize(context, sentences)
	case numerical:
		text = g.numbers(question, sentences)
	case definition:
		text = g.define(question, sentences)
	case comparison:
		text = g.compare(question, sentences)
	default:
		text = g.facts(question, sentences, results)
	}
	return domain.Generation{Text: text, Status: domain.GenerationOK}
}

// Close is a no-op.
func (g *Generator) Close() error {
	return nil
}
