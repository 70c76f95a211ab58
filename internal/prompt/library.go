// Package prompt loads the LLM prompt templates used by the generators.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template ids shipped with the service.
const (
	CurriculumID = "curriculum"
	SEOID        = "seo"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Template is a prompt definition loaded from YAML.
type Template struct {
	ID          string  `yaml:"id"`
	Task        string  `yaml:"task"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	user *template.Template
}

// Rendered is a template executed against request data.
type Rendered struct {
	ID          string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Library holds parsed templates keyed by id.
type Library struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// Defaults returns the library built from the embedded templates.
func Defaults() (*Library, error) {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		return nil, err
	}
	return NewLibrary(sub)
}

// NewLibrary loads every *.yaml / *.yml file in fsys.
func NewLibrary(fsys fs.FS) (*Library, error) {
	l := &Library{templates: make(map[string]*Template)}

	if err := l.loadAll(fsys); err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	slog.Info("prompts loaded", "templates", len(l.templates))
	return l, nil
}

// Get returns a template by id.
func (l *Library) Get(id string) (*Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[id]
	return t, ok
}

// IDs returns the loaded template ids, sorted.
func (l *Library) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Render executes the user prompt of template id with data.
func (l *Library) Render(id string, data any) (Rendered, error) {
	t, ok := l.Get(id)
	if !ok {
		return Rendered{}, fmt.Errorf("prompt template %q not found", id)
	}

	var buf bytes.Buffer
	if err := t.user.Execute(&buf, data); err != nil {
		return Rendered{}, fmt.Errorf("rendering prompt %q: %w", id, err)
	}

	return Rendered{
		ID:          t.ID,
		System:      strings.TrimSpace(t.System),
		User:        strings.TrimSpace(buf.String()),
		MaxTokens:   t.MaxTokens,
		Temperature: t.Temperature,
	}, nil
}

func (l *Library) loadAll(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch path.Ext(p) {
		case ".yaml", ".yml":
			return l.loadTemplate(fsys, p)
		}
		return nil
	})
}

func (l *Library) loadTemplate(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		slog.Warn("skipping invalid prompt YAML", "path", p, "error", err)
		return nil
	}
	if t.ID == "" || t.User == "" {
		return nil // Not a prompt file
	}

	tmpl, err := template.New(t.ID).Option("missingkey=zero").Parse(t.User)
	if err != nil {
		slog.Warn("skipping prompt with bad template", "path", p, "error", err)
		return nil
	}
	t.user = tmpl

	l.mu.Lock()
	l.templates[t.ID] = &t
	l.mu.Unlock()

	return nil
}
