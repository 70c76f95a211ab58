package leadgen

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/courseforge/site/internal/prompt"
)

const responseKeyPrefix = "courseforge:response:"

// ResponseCache stores model output so identical prompts are not billed
// twice. *cache.Cache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type completion struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

func responseKey(r prompt.Rendered) string {
	h, _ := blake2b.New256(nil)
	for _, part := range []string{r.ID, r.System, r.User} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return responseKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (s *Service) cachedCompletion(ctx context.Context, r prompt.Rendered) (completion, bool) {
	if s.cache == nil {
		return completion{}, false
	}
	raw, ok, err := s.cache.Get(ctx, responseKey(r))
	if err != nil {
		slog.Warn("response cache read failed", "prompt", r.ID, "error", err)
		return completion{}, false
	}
	if !ok {
		return completion{}, false
	}
	var c completion
	if err := json.Unmarshal([]byte(raw), &c); err != nil || c.Content == "" {
		return completion{}, false
	}
	return c, true
}

func (s *Service) storeCompletion(ctx context.Context, r prompt.Rendered, c completion) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, responseKey(r), string(b), s.cacheTTL); err != nil {
		slog.Warn("response cache write failed", "prompt", r.ID, "error", err)
	}
}
