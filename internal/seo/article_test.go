package seo_test

import (
	"reflect"
	"testing"

	"github.com/courseforge/site/internal/seo"
)

const sampleArticle = `# Learn Go in 2026

## Meta Description
A practical guide to learning Go,
from setup to production.

## Why Go
Go is simple.

## Getting Started
### Install the toolchain
Download it.

## Conclusion
Start today.`

func TestParse(t *testing.T) {
	a := seo.Parse(sampleArticle)

	if a.Title != "Learn Go in 2026" {
		t.Errorf("Title = %q", a.Title)
	}
	if want := "A practical guide to learning Go, from setup to production."; a.MetaDescription != want {
		t.Errorf("MetaDescription = %q, want %q", a.MetaDescription, want)
	}
	if want := []string{"Why Go", "Getting Started", "Conclusion"}; !reflect.DeepEqual(a.Outline, want) {
		t.Errorf("Outline = %v, want %v", a.Outline, want)
	}
	if a.Body != sampleArticle {
		t.Error("Body should keep the raw text")
	}
}

func TestParse_Defaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"plain text", "just some words\nwith no headings"},
		{"blank title", "# \n## Intro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := seo.Parse(tt.raw)
			if a.Title != seo.DefaultTitle {
				t.Errorf("Title = %q, want default", a.Title)
			}
			if a.Outline == nil {
				t.Error("Outline should be non-nil")
			}
		})
	}
}

func TestParse_FirstTitleWins(t *testing.T) {
	a := seo.Parse("# First\n# Second")
	if a.Title != "First" {
		t.Errorf("Title = %q, want First", a.Title)
	}
}

func TestParse_MetaHeadingVariants(t *testing.T) {
	a := seo.Parse("## meta description:\nShort summary.\n## Body")
	if a.MetaDescription != "Short summary." {
		t.Errorf("MetaDescription = %q", a.MetaDescription)
	}
	if !reflect.DeepEqual(a.Outline, []string{"Body"}) {
		t.Errorf("Outline = %v", a.Outline)
	}
}
