package gemini

import (
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	Tools            []toolSet         `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type toolSet struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *schema `json:"parameters,omitempty"`
}

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// generateResponse is one generateContent response, or one SSE event of a stream.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// parts returns the parts of the first candidate.
func (r *generateResponse) parts() []part {
	if len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Content.Parts
}

// declarations converts tool definitions to Gemini function declarations.
func declarations(defs []domain.ToolDefinition) []toolSet {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]functionDeclaration, 0, len(defs))
	for _, def := range defs {
		params := &schema{Type: "OBJECT", Properties: make(map[string]*schema, len(def.Parameters))}
		for _, p := range def.Parameters {
			params.Properties[p.Name] = &schema{
				Type:        strings.ToUpper(p.Type),
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		decls = append(decls, functionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return []toolSet{{FunctionDeclarations: decls}}
}
