// Package curriculum turns generated course text into a structured
// week-by-week schedule.
package curriculum

// Display defaults used when the generated text does not provide a value.
const (
	DefaultTitle          = "Your Custom Course"
	DefaultDescription    = "A comprehensive course designed to help you reach your learning goals."
	DefaultDuration       = "8 weeks"
	DefaultTimeCommitment = "5-7 hours per week"
	DefaultLevel          = "All levels"
)

// ParsedCurriculum is the structured form of a generated curriculum.
type ParsedCurriculum struct {
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	Objectives      []string   `json:"objectives" yaml:"objectives"`
	Weeks           []WeekData `json:"weeks" yaml:"weeks"`
	CapstoneProject string     `json:"capstoneProject" yaml:"capstone_project"`
	Duration        string     `json:"duration" yaml:"duration"`
	TimeCommitment  string     `json:"timeCommitment" yaml:"time_commitment"`
	Level           string     `json:"level" yaml:"level"`
}

// WeekData is one week of the schedule.
type WeekData struct {
	WeekNumber  int      `json:"weekNumber" yaml:"week_number"`
	ModuleTitle string   `json:"moduleTitle" yaml:"module_title"`
	KeyTopics   []string `json:"keyTopics" yaml:"key_topics"`
	Activities  []string `json:"activities" yaml:"activities"`
	Resources   []string `json:"resources" yaml:"resources"`
}

// IsEmpty reports whether nothing beyond the defaults was recognized.
func (c ParsedCurriculum) IsEmpty() bool {
	return c.Title == DefaultTitle &&
		c.Description == DefaultDescription &&
		len(c.Objectives) == 0 &&
		len(c.Weeks) == 0 &&
		c.CapstoneProject == ""
}

func newWeek(number int) WeekData {
	return WeekData{
		WeekNumber: number,
		KeyTopics:  []string{},
		Activities: []string{},
		Resources:  []string{},
	}
}
