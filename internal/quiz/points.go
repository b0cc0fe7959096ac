package quiz

import "strings"

type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties in the order they are offered to the question source.
var Difficulties = []Difficulty{DifficultyBasic, DifficultyIntermediate, DifficultyAdvanced}

type Verdict string

const (
	VerdictCorrect   Verdict = "Correct"
	VerdictPartial   Verdict = "Partially correct"
	VerdictIncorrect Verdict = "Incorrect"
)

// Point values per difficulty. A partial answer earns half the full value; a
// wrong answer always costs the same flat penalty.
const IncorrectPenalty = 2.0

var correctPoints = map[Difficulty]float64{
	DifficultyBasic:        1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     5,
}

// PointsFor returns the score delta for a verdict on a question of the given
// difficulty.
func PointsFor(difficulty Difficulty, verdict Verdict) float64 {
	full, ok := correctPoints[difficulty]
	if !ok {
		full = correctPoints[DifficultyIntermediate]
	}

	switch verdict {
	case VerdictCorrect:
		return full
	case VerdictPartial:
		return full / 2
	default:
		return -IncorrectPenalty
	}
}

// ParseDifficulty maps a free-form difficulty assessment (the model answers
// with phrases like "basic knowledge") onto one of the three levels.
// Anything unrecognized counts as intermediate.
func ParseDifficulty(s string) Difficulty {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "basic"):
		return DifficultyBasic
	case strings.Contains(s, "advanced"):
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// ParseVerdict maps the judge's status string onto a verdict. Anything
// unrecognized counts as incorrect.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "correct":
		return VerdictCorrect
	case "partially correct":
		return VerdictPartial
	default:
		return VerdictIncorrect
	}
}
