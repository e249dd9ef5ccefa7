// Package placement recommends an IB mathematics course track from questionnaire answers.
package placement

// Course is one of the two mathematics course variants.
type Course string

const (
	// CourseAA is Analysis and Approaches (theory oriented).
	CourseAA Course = "AA"
	// CourseAI is Applications and Interpretation (application oriented).
	CourseAI Course = "AI"
)

// Level is the course intensity.
type Level string

const (
	LevelHL Level = "HL"
	LevelSL Level = "SL"
)

// Track is a course at a level, e.g. AA HL.
type Track struct {
	Course Course
	Level  Level
}

func (t Track) String() string {
	return string(t.Course) + " " + string(t.Level)
}

// Answers maps a question ID to the chosen option ID.
type Answers map[string]string

// Scores holds the four tag counters accumulated from answers.
type Scores struct {
	AA int `json:"aa"`
	AI int `json:"ai"`
	HL int `json:"hl"`
	SL int `json:"sl"`
}

// Track picks the course and level with the higher counter.
// Ties go to AI and SL.
func (s Scores) Track() Track {
	t := Track{Course: CourseAI, Level: LevelSL}
	if s.AA > s.AI {
		t.Course = CourseAA
	}
	if s.HL > s.SL {
		t.Level = LevelHL
	}
	return t
}

// Details holds the generated feedback text.
type Details struct {
	Focus  string `json:"focus"`
	Style  string `json:"style"`
	Advice string `json:"advice"`
}

// Result is the recommendation returned for one set of answers.
type Result struct {
	Course     Course  `json:"course"`
	Level      Level   `json:"level"`
	Confidence int     `json:"confidence"`
	Details    Details `json:"details"`
}

// Track returns the recommended course and level as a Track.
func (r Result) Track() Track {
	return Track{Course: r.Course, Level: r.Level}
}
