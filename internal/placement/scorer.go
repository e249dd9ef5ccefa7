package placement

import (
	"math"
	"strings"
)

// Scorer turns answers into a Result using a fixed Policy.
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer. A zero Policy is replaced by DefaultPolicy.
func NewScorer(policy Policy) *Scorer {
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	return &Scorer{policy: policy}
}

// Policy returns the policy the scorer was built with.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Compute scores the answers and builds the feedback.
//
// An empty answer set has no possible score, so confidence is reported as 0
// and the tie-break track (AI SL) is returned with the low-confidence advice.
func (s *Scorer) Compute(answers Answers) Result {
	scores := Tally(answers, s.policy)
	track := scores.Track()
	overall, courseConf, levelConf := Confidence(scores, len(answers), s.policy)

	return Result{
		Course:     track.Course,
		Level:      track.Level,
		Confidence: overall,
		Details: Details{
			Focus:  FocusDescription(track),
			Style:  StyleDescription(track),
			Advice: Advice(overall, track, courseConf, levelConf, s.policy),
		},
	}
}

// ComputeResult scores answers with DefaultPolicy.
func ComputeResult(answers Answers) Result {
	return NewScorer(DefaultPolicy()).Compute(answers)
}

// Tally adds the policy weight to every counter whose marker appears in an answer.
// The four checks are independent, so one answer can feed several counters.
func Tally(answers Answers, policy Policy) Scores {
	var s Scores
	for _, option := range answers {
		if strings.Contains(option, policy.Markers.AA) {
			s.AA += policy.Weight
		}
		if strings.Contains(option, policy.Markers.AI) {
			s.AI += policy.Weight
		}
		if strings.Contains(option, policy.Markers.HL) {
			s.HL += policy.Weight
		}
		if strings.Contains(option, policy.Markers.SL) {
			s.SL += policy.Weight
		}
	}
	return s
}

// Confidence returns the overall confidence percentage together with the
// course and level sub-confidences. With no answers all three are 0.
func Confidence(scores Scores, answerCount int, policy Policy) (overall int, course, level float64) {
	maxPossible := answerCount * policy.Weight
	if maxPossible <= 0 {
		return 0, 0, 0
	}

	course = float64(max(scores.AA, scores.AI)) / float64(maxPossible) * 100
	level = float64(max(scores.HL, scores.SL)) / float64(maxPossible) * 100
	overall = int(math.Round((course + level) / 2))
	return overall, course, level
}
