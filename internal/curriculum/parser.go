package curriculum

import (
	"regexp"
	"strconv"
	"strings"
)

// section is the scanner state: which part of the document the current line
// belongs to.
type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionDescription
	sectionObjectives
	sectionWeek
	sectionTopics
	sectionActivities
	sectionResources
	sectionCapstone
)

const (
	weekHeadingPrefix = "### Week"
	moduleTitleLabel  = "**Module Title:**"
)

var weekNumberRe = regexp.MustCompile(`Week\s+(\d+)`)

// headingRules maps exact heading prefixes to the section they open.
var headingRules = []struct {
	prefix string
	next   section
}{
	{"## Course Title", sectionTitle},
	{"## Course Description", sectionDescription},
	{"## Learning Objectives", sectionObjectives},
	{"## Capstone Project", sectionCapstone},
	{"## Final Project", sectionCapstone},
}

// weekLabels switch the list a week section is collecting into.
var weekLabels = []struct {
	marker string
	next   section
}{
	{"Key Topics:", sectionTopics},
	{"Activities:", sectionActivities},
	{"Resources:", sectionResources},
}

// scanner accumulates one document. It is created per Parse call and never
// shared.
type scanner struct {
	section     section
	title       string
	description []string
	objectives  []string
	weeks       []WeekData
	week        *WeekData
	capstone    []string
}

// Parse converts generated curriculum text into a ParsedCurriculum. It never
// fails: sections it cannot recognize keep their defaults.
func Parse(raw string) ParsedCurriculum {
	s := &scanner{
		objectives: []string{},
		weeks:      []WeekData{},
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.step(line)
	}
	return s.result()
}

func (s *scanner) step(line string) {
	if strings.HasPrefix(line, "##") {
		s.heading(line)
		return
	}

	switch s.section {
	case sectionTitle:
		s.title = line
		s.section = sectionNone
	case sectionDescription:
		s.description = append(s.description, line)
	case sectionObjectives:
		if item, ok := bullet(line); ok {
			s.objectives = append(s.objectives, item)
		}
	case sectionWeek, sectionTopics, sectionActivities, sectionResources:
		s.weekLine(line)
	case sectionCapstone:
		s.capstone = append(s.capstone, line)
	}
}

// heading applies the transition table. Unknown headings reset the section so
// no stale collector stays active.
func (s *scanner) heading(line string) {
	if strings.HasPrefix(line, weekHeadingPrefix) {
		s.flushWeek()
		number := len(s.weeks) + 1
		if m := weekNumberRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				number = n
			}
		}
		w := newWeek(number)
		s.week = &w
		s.section = sectionWeek
		return
	}

	for _, rule := range headingRules {
		if strings.HasPrefix(line, rule.prefix) {
			s.section = rule.next
			return
		}
	}
	s.section = sectionNone
}

func (s *scanner) weekLine(line string) {
	if strings.HasPrefix(line, moduleTitleLabel) {
		s.week.ModuleTitle = strings.TrimSpace(strings.TrimPrefix(line, moduleTitleLabel))
		return
	}
	for _, label := range weekLabels {
		if strings.Contains(line, label.marker) {
			s.section = label.next
			return
		}
	}

	item, ok := bullet(line)
	if !ok {
		return
	}
	switch s.section {
	case sectionTopics:
		s.week.KeyTopics = append(s.week.KeyTopics, item)
	case sectionActivities:
		s.week.Activities = append(s.week.Activities, item)
	case sectionResources:
		s.week.Resources = append(s.week.Resources, item)
	}
}

func (s *scanner) flushWeek() {
	if s.week != nil {
		s.weeks = append(s.weeks, *s.week)
		s.week = nil
	}
}

func (s *scanner) result() ParsedCurriculum {
	s.flushWeek()

	c := ParsedCurriculum{
		Title:           DefaultTitle,
		Description:     DefaultDescription,
		Objectives:      s.objectives,
		Weeks:           s.weeks,
		CapstoneProject: strings.Join(s.capstone, " "),
		Duration:        DefaultDuration,
		TimeCommitment:  DefaultTimeCommitment,
		Level:           DefaultLevel,
	}
	if s.title != "" {
		c.Title = s.title
	}
	if len(s.description) > 0 {
		c.Description = strings.Join(s.description, " ")
	}
	return c
}

// bullet strips a leading "-" or "*" marker. Horizontal rules ("---", "***")
// and empty markers are not items.
func bullet(line string) (string, bool) {
	if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
		return "", false
	}
	if strings.Trim(line, "-*_ ") == "" {
		return "", false
	}
	return strings.TrimSpace(line[1:]), true
}
