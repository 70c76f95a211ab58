package leadgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/courseforge/site/internal/ai"
	"github.com/courseforge/site/internal/curriculum"
	"github.com/courseforge/site/internal/notify"
	"github.com/courseforge/site/internal/prompt"
	"github.com/courseforge/site/internal/seo"
)

const (
	maxWeeks      = 16
	notifyTimeout = 5 * time.Second
	leadLookback  = 30 * 24 * time.Hour
)

// CurriculumRequest is the curriculum generator form.
type CurriculumRequest struct {
	Email      string `json:"email"`
	Topic      string `json:"topic"`
	SkillLevel string `json:"skillLevel"`
	Goal       string `json:"goal"`
	Weeks      int    `json:"weeks,omitempty"`
}

// SEORequest is the SEO article generator form.
type SEORequest struct {
	Email    string `json:"email"`
	Keyword  string `json:"keyword"`
	Audience string `json:"audience,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// CurriculumResult is a generated or stored curriculum.
type CurriculumResult struct {
	Token      string                      `json:"token,omitempty"`
	Topic      string                      `json:"topic"`
	Curriculum curriculum.ParsedCurriculum `json:"curriculum"`
	Raw        string                      `json:"-"`
	CreatedAt  time.Time                   `json:"created_at"`
}

// SEOResult is a generated or stored SEO article.
type SEOResult struct {
	Token     string      `json:"token,omitempty"`
	Keyword   string      `json:"keyword"`
	Article   seo.Article `json:"article"`
	CreatedAt time.Time   `json:"created_at"`
}

// Service generates, stores and retrieves lead-gen results.
type Service struct {
	completer ai.Completer
	prompts   *prompt.Library
	store     Store
	quota     ai.Quota
	cache     ResponseCache
	cacheTTL  time.Duration
	notifier  notify.Notifier
}

// Option configures a Service.
type Option func(*Service)

// WithQuota limits generations per client key.
func WithQuota(q ai.Quota) Option {
	return func(s *Service) {
		if q != nil {
			s.quota = q
		}
	}
}

// WithResponseCache reuses model output for identical prompts for ttl.
func WithResponseCache(c ResponseCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithNotifier reports each new lead to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService creates a Service. Without options generation is unlimited,
// uncached and unreported.
func NewService(completer ai.Completer, prompts *prompt.Library, store Store, opts ...Option) *Service {
	s := &Service{
		completer: completer,
		prompts:   prompts,
		store:     store,
		quota:     ai.UnlimitedQuota{},
		notifier:  notify.NopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateCurriculum generates a curriculum for req, stores it and returns it
// with its access token.
func (s *Service) GenerateCurriculum(ctx context.Context, req CurriculumRequest, clientKey string) (*CurriculumResult, error) {
	return s.generateCurriculum(ctx, req, clientKey, nil)
}

// StreamCurriculum is GenerateCurriculum with the model output passed to
// onChunk as it arrives. A non-nil error from onChunk aborts generation.
func (s *Service) StreamCurriculum(ctx context.Context, req CurriculumRequest, clientKey string, onChunk func(string) error) (*CurriculumResult, error) {
	if onChunk == nil {
		onChunk = func(string) error { return nil }
	}
	return s.generateCurriculum(ctx, req, clientKey, onChunk)
}

func (s *Service) generateCurriculum(ctx context.Context, req CurriculumRequest, clientKey string, onChunk func(string) error) (*CurriculumResult, error) {
	req, err := normalizeCurriculum(req)
	if err != nil {
		return nil, err
	}
	if err := s.take(ctx, clientKey); err != nil {
		return nil, err
	}

	rendered, err := s.prompts.Render(prompt.CurriculumID, req)
	if err != nil {
		return nil, fmt.Errorf("rendering curriculum prompt: %w", err)
	}
	comp, err := s.complete(ctx, rendered, ai.TaskCurriculum, onChunk)
	if err != nil {
		s.refund(ctx, clientKey, err)
		return nil, err
	}

	params := map[string]string{
		"skillLevel": req.SkillLevel,
		"goal":       req.Goal,
	}
	if req.Weeks > 0 {
		params["weeks"] = strconv.Itoa(req.Weeks)
	}
	sub, token, err := s.save(ctx, KindCurriculum, req.Email, req.Topic, params, comp)
	if err != nil {
		return nil, err
	}

	slog.Info("curriculum generated",
		"submission_id", sub.ID,
		"model", comp.Model,
		"input_tokens", comp.InputTokens,
		"output_tokens", comp.OutputTokens,
	)

	res := curriculumResult(sub)
	res.Token = token
	return res, nil
}

// GetCurriculum returns the curriculum stored under token.
func (s *Service) GetCurriculum(ctx context.Context, token string) (*CurriculumResult, error) {
	sub, err := s.lookup(ctx, KindCurriculum, token)
	if err != nil {
		return nil, err
	}
	return curriculumResult(sub), nil
}

// GenerateSEO generates an SEO article for req, stores it and returns it with
// its access token.
func (s *Service) GenerateSEO(ctx context.Context, req SEORequest, clientKey string) (*SEOResult, error) {
	req, err := normalizeSEO(req)
	if err != nil {
		return nil, err
	}
	if err := s.take(ctx, clientKey); err != nil {
		return nil, err
	}

	rendered, err := s.prompts.Render(prompt.SEOID, req)
	if err != nil {
		return nil, fmt.Errorf("rendering seo prompt: %w", err)
	}
	comp, err := s.complete(ctx, rendered, ai.TaskSEO, nil)
	if err != nil {
		s.refund(ctx, clientKey, err)
		return nil, err
	}

	params := map[string]string{
		"audience": req.Audience,
		"tone":     req.Tone,
	}
	sub, token, err := s.save(ctx, KindSEO, req.Email, req.Keyword, params, comp)
	if err != nil {
		return nil, err
	}

	slog.Info("seo article generated",
		"submission_id", sub.ID,
		"model", comp.Model,
		"output_tokens", comp.OutputTokens,
	)

	res := seoResult(sub)
	res.Token = token
	return res, nil
}

// GetSEO returns the article stored under token.
func (s *Service) GetSEO(ctx context.Context, token string) (*SEOResult, error) {
	sub, err := s.lookup(ctx, KindSEO, token)
	if err != nil {
		return nil, err
	}
	return seoResult(sub), nil
}

func (s *Service) take(ctx context.Context, clientKey string) error {
	ok, err := s.quota.Take(ctx, clientKey)
	if err != nil {
		return fmt.Errorf("checking quota: %w", err)
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// refund gives back the generation taken for clientKey when the model
// produced nothing usable. Client aborts are not refunded.
func (s *Service) refund(ctx context.Context, clientKey string, cause error) {
	if !errors.Is(cause, ErrGeneration) {
		return
	}
	if err := s.quota.Refund(context.WithoutCancel(ctx), clientKey); err != nil {
		slog.Warn("refunding quota failed", "error", err)
	}
}

// complete runs rendered through the model, streaming to onChunk when it is
// non-nil. Cached output is replayed as a single chunk.
func (s *Service) complete(ctx context.Context, r prompt.Rendered, task ai.TaskType, onChunk func(string) error) (completion, error) {
	if c, ok := s.cachedCompletion(ctx, r); ok {
		slog.Debug("response cache hit", "prompt", r.ID)
		if onChunk != nil {
			if err := onChunk(c.Content); err != nil {
				return completion{}, err
			}
		}
		return c, nil
	}

	req := ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.User},
		},
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		Task:        task,
	}

	var c completion
	var err error
	if onChunk == nil {
		c, err = s.completeOnce(ctx, req)
	} else {
		c, err = s.completeStream(ctx, req, onChunk)
	}
	if err != nil {
		return completion{}, err
	}
	if strings.TrimSpace(c.Content) == "" {
		return completion{}, fmt.Errorf("%w: empty model output", ErrGeneration)
	}

	s.storeCompletion(ctx, r, c)
	return c, nil
}

func (s *Service) completeOnce(ctx context.Context, req ai.CompletionRequest) (completion, error) {
	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		return completion{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return completion{
		Content:      resp.Content,
		Model:        resp.Model,
		Provider:     resp.Provider,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

func (s *Service) completeStream(ctx context.Context, req ai.CompletionRequest, onChunk func(string) error) (completion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := s.completer.StreamComplete(ctx, req)
	if err != nil {
		return completion{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var c completion
	var text strings.Builder
	for chunk := range ch {
		if chunk.Error != nil {
			return completion{}, fmt.Errorf("%w: %w", ErrGeneration, chunk.Error)
		}
		if chunk.Content != "" {
			text.WriteString(chunk.Content)
			if err := onChunk(chunk.Content); err != nil {
				return completion{}, err
			}
		}
		if chunk.Done {
			c.Model = chunk.Model
			c.Provider = chunk.Provider
			c.InputTokens = chunk.InputTokens
			c.OutputTokens = chunk.OutputTokens
		}
	}
	if err := ctx.Err(); err != nil {
		return completion{}, err
	}
	c.Content = text.String()
	return c, nil
}

func (s *Service) save(ctx context.Context, kind Kind, email, topic string, params map[string]string, c completion) (*Submission, string, error) {
	token, hash, err := NewToken()
	if err != nil {
		return nil, "", err
	}

	previous, err := s.store.CountByEmail(ctx, email, time.Now().Add(-leadLookback))
	if err != nil {
		slog.Warn("counting earlier submissions failed", "error", err)
	}

	sub := &Submission{
		Kind:         kind,
		TokenHash:    hash,
		Email:        email,
		Topic:        topic,
		Params:       params,
		Raw:          c.Content,
		Model:        c.Model,
		Provider:     c.Provider,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, "", fmt.Errorf("saving submission: %w", err)
	}

	s.notify(ctx, notify.Lead{
		Kind:     string(kind),
		Email:    email,
		Topic:    topic,
		Model:    c.Model,
		Previous: previous,
	})
	return sub, token, nil
}

func (s *Service) notify(ctx context.Context, lead notify.Lead) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyLead(ctx, lead); err != nil {
		slog.Warn("lead notification failed", "kind", lead.Kind, "error", err)
	}
}

func (s *Service) lookup(ctx context.Context, kind Kind, token string) (*Submission, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	return s.store.GetByToken(ctx, kind, HashToken(token))
}

func curriculumResult(sub *Submission) *CurriculumResult {
	return &CurriculumResult{
		Topic:      sub.Topic,
		Curriculum: curriculum.Parse(sub.Raw),
		Raw:        sub.Raw,
		CreatedAt:  sub.CreatedAt,
	}
}

func seoResult(sub *Submission) *SEOResult {
	return &SEOResult{
		Keyword:   sub.Topic,
		Article:   seo.Parse(sub.Raw),
		CreatedAt: sub.CreatedAt,
	}
}

func normalizeCurriculum(req CurriculumRequest) (CurriculumRequest, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return req, err
	}
	req.Email = email
	req.Topic = strings.TrimSpace(req.Topic)
	req.SkillLevel = strings.TrimSpace(req.SkillLevel)
	req.Goal = strings.TrimSpace(req.Goal)
	if req.Topic == "" {
		return req, fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if req.Weeks < 0 || req.Weeks > maxWeeks {
		return req, fmt.Errorf("%w: weeks must be between 1 and %d", ErrInvalidRequest, maxWeeks)
	}
	if req.SkillLevel == "" {
		req.SkillLevel = "beginner"
	}
	return req, nil
}

func normalizeSEO(req SEORequest) (SEORequest, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return req, err
	}
	req.Email = email
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.Audience = strings.TrimSpace(req.Audience)
	req.Tone = strings.TrimSpace(req.Tone)
	if req.Keyword == "" {
		return req, fmt.Errorf("%w: keyword is required", ErrInvalidRequest)
	}
	return req, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", ErrInvalidRequest, email)
	}
	return email, nil
}
