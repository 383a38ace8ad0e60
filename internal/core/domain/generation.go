package domain

// GeneratorKind names a response generator variant.
type GeneratorKind string

const (
	// GeneratorGemini is the remote, tool-augmented variant.
	GeneratorGemini GeneratorKind = "gemini"

	// GeneratorLocal is the rule-based NLP fallback.
	GeneratorLocal GeneratorKind = "local"

	// GeneratorAuto tries the remote variant and falls back to local.
	GeneratorAuto GeneratorKind = "auto"
)

// IsValid returns true if the kind is recognised.
func (k GeneratorKind) IsValid() bool {
	switch k {
	case GeneratorGemini, GeneratorLocal, GeneratorAuto:
		return true
	default:
		return false
	}
}

// String returns the kind name.
func (k GeneratorKind) String() string {
	return string(k)
}

// GenerationStatus tags the outcome of a generation.
type GenerationStatus int

const (
	// GenerationOK means Text is a model or heuristic answer.
	GenerationOK GenerationStatus = iota

	// GenerationEmpty means the model produced nothing usable and Text is an apology.
	GenerationEmpty

	// GenerationFailed means generation errored and Text describes the failure.
	GenerationFailed
)

// String returns a readable status name.
func (s GenerationStatus) String() string {
	switch s {
	case GenerationOK:
		return "ok"
	case GenerationEmpty:
		return "empty"
	case GenerationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Generation is the tagged result of ProcessQuestion.
// Text is always a non-empty user-facing string.
type Generation struct {
	Text   string
	Status GenerationStatus

	// Err is the underlying cause when Status is GenerationFailed.
	Err error
}

// ToolResult is the tagged result of a tool execution.
type ToolResult struct {
	Tool string
	Text string
	OK   bool
}

// String returns the tool output text.
func (r ToolResult) String() string {
	return r.Text
}

// ToolDefinition describes a callable tool to a remote model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolParameter describes one argument of a tool.
type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Required    bool
}
