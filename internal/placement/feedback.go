package placement

import (
	"fmt"
	"math"
	"strings"
)

type trackText struct {
	focus string
	style string
}

var descriptions = map[Track]trackText{
	{CourseAA, LevelHL}: {
		focus: "Strong emphasis on pure mathematics, proofs, and abstract thinking. This course is ideal for future mathematicians, physicists, or engineers who need deep theoretical understanding.",
		style: "Your responses indicate strong analytical skills and enjoyment in discovering mathematical patterns and proofs. You tend to appreciate the theoretical foundations of mathematics.",
	},
	{CourseAA, LevelSL}: {
		focus: "Balance of theoretical mathematics with practical applications. Provides a good foundation for STEM fields while maintaining a manageable workload.",
		style: "You show an appreciation for mathematical structure but prefer a more guided approach to learning. This suggests AA SL would provide the right balance of theory and practice.",
	},
	{CourseAI, LevelHL}: {
		focus: "Deep dive into real-world applications, modeling, and data analysis. Perfect for future economists, business analysts, or social scientists who need strong applied mathematics skills.",
		style: "You excel at connecting mathematics to real-world scenarios and enjoy working with data. Your strength lies in applying mathematical concepts to practical situations.",
	},
	{CourseAI, LevelSL}: {
		focus: "Practical approach to mathematics focusing on modeling and technology. Suitable for students needing mathematical literacy in non-STEM fields.",
		style: "You learn best when mathematics is presented in practical, concrete contexts. AI SL would provide you with useful mathematical tools while maintaining a manageable level of abstraction.",
	},
}

// FocusDescription describes what the track's syllabus concentrates on.
func FocusDescription(t Track) string {
	return descriptions[t].focus
}

// StyleDescription describes the learning style the answers point to.
func StyleDescription(t Track) string {
	return descriptions[t].style
}

// adviceInput carries everything an advice tier may interpolate.
type adviceInput struct {
	confidence int
	track      Track
	courseConf float64
	levelConf  float64
}

// adviceTier renders advice when its predicate holds. Tiers are checked in order.
type adviceTier struct {
	name   string
	match  func(in adviceInput, p Policy) bool
	render func(in adviceInput) string
}

var adviceTiers = []adviceTier{
	{
		name:   "strong",
		match:  func(in adviceInput, p Policy) bool { return in.confidence >= p.Thresholds.Strong },
		render: strongAdvice,
	},
	{
		name:   "moderate",
		match:  func(in adviceInput, p Policy) bool { return in.confidence >= p.Thresholds.Moderate },
		render: moderateAdvice,
	},
	{
		name:   "mixed",
		match:  func(adviceInput, Policy) bool { return true },
		render: mixedAdvice,
	},
}

// Advice picks the first matching confidence tier and renders its text.
func Advice(confidence int, t Track, courseConf, levelConf float64, p Policy) string {
	in := adviceInput{
		confidence: confidence,
		track:      t,
		courseConf: courseConf,
		levelConf:  levelConf,
	}
	return adviceTierFor(in, p).render(in)
}

// AdviceTier returns the name of the tier ("strong", "moderate" or "mixed")
// a confidence value falls into.
func AdviceTier(confidence int, p Policy) string {
	return adviceTierFor(adviceInput{confidence: confidence}, p).name
}

func adviceTierFor(in adviceInput, p Policy) adviceTier {
	for _, tier := range adviceTiers {
		if tier.match(in, p) {
			return tier
		}
	}
	return adviceTiers[len(adviceTiers)-1]
}

func strongAdvice(in adviceInput) string {
	return fmt.Sprintf("Your responses strongly indicate that %s aligns well with your interests and abilities. The high confidence level (%d%%) suggests this would be an excellent choice for you.",
		in.track, in.confidence)
}

func moderateAdvice(in adviceInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s appears to be a good fit, but consider discussing this choice with your teachers. ", in.track)

	if in.courseConf > in.levelConf {
		fmt.Fprintf(&b, "While you show a clear preference for %s (%d%% confidence), you might want to discuss whether %s is the right level for you.",
			in.track.Course, roundPercent(in.courseConf), in.track.Level)
	} else {
		fmt.Fprintf(&b, "While you show a clear preference for %s level (%d%% confidence), you might want to explore both %s and %s options at this level.",
			in.track.Level, roundPercent(in.levelConf), CourseAA, CourseAI)
	}
	return b.String()
}

func mixedAdvice(adviceInput) string {
	return "Your responses show mixed preferences. We recommend discussing your options with your math teacher and academic advisor. Consider factors like:" +
		"\n• Your university and career plans" +
		"\n• Your comfort with abstract vs. applied mathematics" +
		"\n• The time you can dedicate to mathematics study"
}

func roundPercent(v float64) int {
	return int(math.Round(v))
}
