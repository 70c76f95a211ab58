package curriculum

import (
	"fmt"
	"strings"
)

// Format renders c back into the heading conventions Parse reads, so that
// Parse(Format(c)) reproduces c for any c returned by Parse.
func Format(c ParsedCurriculum) string {
	var b strings.Builder

	b.WriteString("## Course Title\n")
	b.WriteString(c.Title)
	b.WriteString("\n\n## Course Description\n")
	b.WriteString(c.Description)
	b.WriteString("\n")

	if len(c.Objectives) > 0 {
		b.WriteString("\n## Learning Objectives\n")
		writeBullets(&b, c.Objectives)
	}

	for _, w := range c.Weeks {
		fmt.Fprintf(&b, "\n### Week %d\n", w.WeekNumber)
		if w.ModuleTitle != "" {
			fmt.Fprintf(&b, "%s %s\n", moduleTitleLabel, w.ModuleTitle)
		}
		if len(w.KeyTopics) > 0 {
			b.WriteString("**Key Topics:**\n")
			writeBullets(&b, w.KeyTopics)
		}
		if len(w.Activities) > 0 {
			b.WriteString("**Activities:**\n")
			writeBullets(&b, w.Activities)
		}
		if len(w.Resources) > 0 {
			b.WriteString("**Resources:**\n")
			writeBullets(&b, w.Resources)
		}
	}

	if c.CapstoneProject != "" {
		b.WriteString("\n## Capstone Project\n")
		b.WriteString(c.CapstoneProject)
		b.WriteString("\n")
	}

	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}
