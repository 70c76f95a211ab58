package curriculum_test

import (
	"reflect"
	"testing"

	"github.com/courseforge/site/internal/curriculum"
)

const sampleCurriculum = `# Generated curriculum

## Course Title
Mastering Go Concurrency

## Course Description
A hands-on course about goroutines and channels.
Built for engineers who already ship Go.

## Learning Objectives
- Reason about goroutine lifecycles
* Use channels and select correctly
Not a bullet, ignored.

### Week 1: Foundations
**Module Title:** Goroutines 101
**Key Topics:**
- The go statement
- Scheduling basics
**Activities:**
- Build a worker pool

### Week 2
**Module Title:** Advanced Topics
Key Topics:
- Select statements
- Context cancellation
**Resources:**
- The Go Memory Model
- Concurrency in Go (book)

### Week 3
**Module Title:** Production Patterns
**Activities:**
- Profile a leaking service

## Capstone Project
Build a rate-limited crawler.
It must shut down cleanly.
`

func TestParse_FullDocument(t *testing.T) {
	got := curriculum.Parse(sampleCurriculum)

	if got.Title != "Mastering Go Concurrency" {
		t.Errorf("Title = %q, want %q", got.Title, "Mastering Go Concurrency")
	}
	wantDesc := "A hands-on course about goroutines and channels. Built for engineers who already ship Go."
	if got.Description != wantDesc {
		t.Errorf("Description = %q, want %q", got.Description, wantDesc)
	}
	wantObjectives := []string{"Reason about goroutine lifecycles", "Use channels and select correctly"}
	if !reflect.DeepEqual(got.Objectives, wantObjectives) {
		t.Errorf("Objectives = %v, want %v", got.Objectives, wantObjectives)
	}
	if len(got.Weeks) != 3 {
		t.Fatalf("len(Weeks) = %d, want 3", len(got.Weeks))
	}
	for i, want := range []int{1, 2, 3} {
		if got.Weeks[i].WeekNumber != want {
			t.Errorf("Weeks[%d].WeekNumber = %d, want %d", i, got.Weeks[i].WeekNumber, want)
		}
	}
	wantCapstone := "Build a rate-limited crawler. It must shut down cleanly."
	if got.CapstoneProject != wantCapstone {
		t.Errorf("CapstoneProject = %q, want %q", got.CapstoneProject, wantCapstone)
	}
	if got.Duration != curriculum.DefaultDuration || got.Level != curriculum.DefaultLevel ||
		got.TimeCommitment != curriculum.DefaultTimeCommitment {
		t.Errorf("display defaults not applied: %+v", got)
	}
}

func TestParse_WeekContents(t *testing.T) {
	got := curriculum.Parse(sampleCurriculum)
	if len(got.Weeks) != 3 {
		t.Fatalf("len(Weeks) = %d, want 3", len(got.Weeks))
	}

	tests := []struct {
		name       string
		week       curriculum.WeekData
		wantModule string
		wantTopics []string
		wantActs   []string
		wantRes    []string
	}{
		{
			name:       "week 1",
			week:       got.Weeks[0],
			wantModule: "Goroutines 101",
			wantTopics: []string{"The go statement", "Scheduling basics"},
			wantActs:   []string{"Build a worker pool"},
			wantRes:    []string{},
		},
		{
			name:       "week 2",
			week:       got.Weeks[1],
			wantModule: "Advanced Topics",
			wantTopics: []string{"Select statements", "Context cancellation"},
			wantActs:   []string{},
			wantRes:    []string{"The Go Memory Model", "Concurrency in Go (book)"},
		},
		{
			name:       "week 3 trailing activities",
			week:       got.Weeks[2],
			wantModule: "Production Patterns",
			wantTopics: []string{},
			wantActs:   []string{"Profile a leaking service"},
			wantRes:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.week.ModuleTitle != tt.wantModule {
				t.Errorf("ModuleTitle = %q, want %q", tt.week.ModuleTitle, tt.wantModule)
			}
			if !reflect.DeepEqual(tt.week.KeyTopics, tt.wantTopics) {
				t.Errorf("KeyTopics = %v, want %v", tt.week.KeyTopics, tt.wantTopics)
			}
			if !reflect.DeepEqual(tt.week.Activities, tt.wantActs) {
				t.Errorf("Activities = %v, want %v", tt.week.Activities, tt.wantActs)
			}
			if !reflect.DeepEqual(tt.week.Resources, tt.wantRes) {
				t.Errorf("Resources = %v, want %v", tt.week.Resources, tt.wantRes)
			}
		})
	}
}

func TestParse_TitleSingleLine(t *testing.T) {
	got := curriculum.Parse("## Course Title\nMastering X\nSecond line is dropped")
	if got.Title != "Mastering X" {
		t.Errorf("Title = %q, want %q", got.Title, "Mastering X")
	}
}

func TestParse_DefaultsOnEmptyOrUnstructured(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\n\t\n"},
		{"prose", "Here is a curriculum you might like.\nIt has no headings."},
		{"unknown headings", "## Overview\nsome text\n# Intro\n- a bullet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := curriculum.Parse(tt.raw)
			if got.Title != curriculum.DefaultTitle {
				t.Errorf("Title = %q, want default", got.Title)
			}
			if got.Description != curriculum.DefaultDescription {
				t.Errorf("Description = %q, want default", got.Description)
			}
			if got.Objectives == nil || len(got.Objectives) != 0 {
				t.Errorf("Objectives = %#v, want empty non-nil slice", got.Objectives)
			}
			if got.Weeks == nil || len(got.Weeks) != 0 {
				t.Errorf("Weeks = %#v, want empty non-nil slice", got.Weeks)
			}
			if got.CapstoneProject != "" {
				t.Errorf("CapstoneProject = %q, want empty", got.CapstoneProject)
			}
			if !got.IsEmpty() {
				t.Error("IsEmpty() = false, want true")
			}
		})
	}
}

func TestParse_TrailingWeekIsFlushed(t *testing.T) {
	raw := "### Week 1\n**Key Topics:**\n- Only topic"
	got := curriculum.Parse(raw)

	if len(got.Weeks) != 1 {
		t.Fatalf("len(Weeks) = %d, want 1", len(got.Weeks))
	}
	if !reflect.DeepEqual(got.Weeks[0].KeyTopics, []string{"Only topic"}) {
		t.Errorf("KeyTopics = %v, want [Only topic]", got.Weeks[0].KeyTopics)
	}
}

func TestParse_WeekNumberFallback(t *testing.T) {
	raw := "### Week 1\n### Week one\n### Week\n### Week 7"
	got := curriculum.Parse(raw)

	var numbers []int
	for _, w := range got.Weeks {
		numbers = append(numbers, w.WeekNumber)
	}
	want := []int{1, 2, 3, 7}
	if !reflect.DeepEqual(numbers, want) {
		t.Errorf("week numbers = %v, want %v", numbers, want)
	}
}

func TestParse_DocumentOrderAndDuplicates(t *testing.T) {
	raw := "### Week 3\n### Week 1\n### Week 1"
	got := curriculum.Parse(raw)

	var numbers []int
	for _, w := range got.Weeks {
		numbers = append(numbers, w.WeekNumber)
	}
	want := []int{3, 1, 1}
	if !reflect.DeepEqual(numbers, want) {
		t.Errorf("week numbers = %v, want %v (document order, no dedup)", numbers, want)
	}
}

func TestParse_UnknownHeadingResetsSection(t *testing.T) {
	raw := `## Learning Objectives
- Kept
## Prerequisites
- Dropped
## Course Description
Described.
### Notes
Dropped too.`
	got := curriculum.Parse(raw)

	if !reflect.DeepEqual(got.Objectives, []string{"Kept"}) {
		t.Errorf("Objectives = %v, want [Kept]", got.Objectives)
	}
	if got.Description != "Described." {
		t.Errorf("Description = %q, want %q", got.Description, "Described.")
	}
}

func TestParse_FinalProjectAlias(t *testing.T) {
	got := curriculum.Parse("## Final Project\nShip it.\n## Something Else\nnot capstone")
	if got.CapstoneProject != "Ship it." {
		t.Errorf("CapstoneProject = %q, want %q", got.CapstoneProject, "Ship it.")
	}
}

func TestParse_HorizontalRulesAreNotBullets(t *testing.T) {
	got := curriculum.Parse("## Learning Objectives\n---\n- Real one\n***\n-")
	if !reflect.DeepEqual(got.Objectives, []string{"Real one"}) {
		t.Errorf("Objectives = %v, want [Real one]", got.Objectives)
	}
}

func TestParse_CRLF(t *testing.T) {
	got := curriculum.Parse("## Course Title\r\nWindows Course\r\n### Week 4\r\n")
	if got.Title != "Windows Course" {
		t.Errorf("Title = %q, want %q", got.Title, "Windows Course")
	}
	if len(got.Weeks) != 1 || got.Weeks[0].WeekNumber != 4 {
		t.Errorf("Weeks = %+v, want one week numbered 4", got.Weeks)
	}
}

func TestParse_Deterministic(t *testing.T) {
	first := curriculum.Parse(sampleCurriculum)
	second := curriculum.Parse(sampleCurriculum)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestParse_ConcurrentCallsDoNotInterfere(t *testing.T) {
	want := curriculum.Parse(sampleCurriculum)

	done := make(chan curriculum.ParsedCurriculum, 8)
	for range 8 {
		go func() { done <- curriculum.Parse(sampleCurriculum) }()
	}
	for range 8 {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Fatalf("concurrent Parse result differs: %+v", got)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"full document", sampleCurriculum},
		{"empty", ""},
		{"weeks only", "### Week 2\n**Module Title:** Solo\n### Week 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := curriculum.Parse(tt.raw)
			again := curriculum.Parse(curriculum.Format(parsed))
			if !reflect.DeepEqual(parsed, again) {
				t.Errorf("round trip mismatch:\nfirst:  %+v\nsecond: %+v", parsed, again)
			}
		})
	}
}
