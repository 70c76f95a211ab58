// Package seo parses generated SEO article drafts into their parts.
package seo

import "strings"

const (
	DefaultTitle           = "Untitled Article"
	DefaultMetaDescription = ""
	metaHeading            = "Meta Description"
)

// Article is a parsed SEO draft. Body keeps the raw markdown for rendering.
type Article struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Outline         []string `json:"outline"`
	Body            string   `json:"body"`
}

// Parse extracts the title, meta description and section outline from a
// markdown draft. It never fails; missing parts fall back to defaults.
func Parse(raw string) Article {
	a := Article{Title: DefaultTitle, Outline: []string{}, Body: raw}

	var meta []string
	inMeta := false
	titled := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# "):
			inMeta = false
			if !titled {
				a.Title = strings.TrimSpace(line[2:])
				titled = true
			}
		case strings.HasPrefix(line, "## "):
			heading := strings.TrimSpace(line[3:])
			inMeta = strings.EqualFold(strings.TrimSuffix(heading, ":"), metaHeading)
			if !inMeta {
				a.Outline = append(a.Outline, heading)
			}
		case strings.HasPrefix(line, "#"):
			inMeta = false
		case inMeta:
			meta = append(meta, line)
		}
	}

	if a.Title == "" {
		a.Title = DefaultTitle
	}
	a.MetaDescription = strings.Join(meta, " ")
	if a.MetaDescription == "" {
		a.MetaDescription = DefaultMetaDescription
	}
	return a
}
