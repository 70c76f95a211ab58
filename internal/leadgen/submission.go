// Package leadgen runs the site's free AI tools: it generates curricula and
// SEO drafts, stores each result behind an access token, and reports the
// lead.
package leadgen

import (
	"errors"
	"time"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrQuotaExceeded  = errors.New("generation quota exceeded")
	ErrNotFound       = errors.New("submission not found")
	ErrGeneration     = errors.New("generation failed")
)

// Kind is the tool a submission came from.
type Kind string

const (
	KindCurriculum Kind = "curriculum"
	KindSEO        Kind = "seo"
)

// Submission is one stored generation. Only the hash of its access token is
// kept; the raw model output is re-parsed on every read.
type Submission struct {
	ID           string            `json:"id"`
	Kind         Kind              `json:"kind"`
	TokenHash    string            `json:"-"`
	Email        string            `json:"email"`
	Topic        string            `json:"topic"`
	Params       map[string]string `json:"params"`
	Raw          string            `json:"raw"`
	Model        string            `json:"model,omitempty"`
	Provider     string            `json:"provider,omitempty"`
	InputTokens  int               `json:"input_tokens,omitempty"`
	OutputTokens int               `json:"output_tokens,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
