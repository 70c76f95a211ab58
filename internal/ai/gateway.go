// Package ai provides a vendor-neutral gateway to the text-generation APIs
// behind the curriculum and SEO generators.
package ai

import "context"

// TaskType labels a completion for logging and model selection.
type TaskType int

const (
	TaskCurriculum TaskType = iota
	TaskSEO
	TaskHealth
)

func (t TaskType) String() string {
	switch t {
	case TaskCurriculum:
		return "curriculum"
	case TaskSEO:
		return "seo"
	case TaskHealth:
		return "health"
	default:
		return "unknown"
	}
}

// Message is one chat message sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output of a completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// StreamChunk is one piece of a streamed completion. The final chunk has
// Done set and carries the model and token usage when the vendor reports them.
// The Router also stamps the final chunk with the provider that served it.
type StreamChunk struct {
	Content      string
	Done         bool
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	Error        error
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is implemented by every vendor adapter.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Completer is the subset of Provider the generators depend on. *Router
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}
