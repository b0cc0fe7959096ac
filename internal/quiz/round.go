package quiz

import (
	"time"
)

// Question is one generated quiz question together with the answer the judge
// grades against.
type Question struct {
	Text           string
	IntendedAnswer string
	Topic          string
	Difficulty     Difficulty
}

// Evaluation is the answer judge's verdict on one submission.
type Evaluation struct {
	Verdict     Verdict
	Explanation string
}

// CloseReason records how a round ended.
type CloseReason string

const (
	CloseAnswered CloseReason = "answered"
	CloseSkipped  CloseReason = "skipped"
	CloseTimedOut CloseReason = "timed_out"
)

// Round is the lifecycle of one posted question. It lives entirely in memory:
// only score deltas are durable. All fields are guarded by the engine mutex.
type Round struct {
	Question          Question
	PointValue        float64
	PartialPointValue float64
	OpenedAt          time.Time
	Deadline          time.Time

	attempts   map[int64]int
	resolved   bool
	winner     int64
	reason     CloseReason
	generation uint64
}

func newRound(q Question, now time.Time, window time.Duration, generation uint64) *Round {
	full := PointsFor(q.Difficulty, VerdictCorrect)
	return &Round{
		Question:          q,
		PointValue:        full,
		PartialPointValue: full / 2,
		OpenedAt:          now,
		Deadline:          now.Add(window),
		attempts:          make(map[int64]int),
		generation:        generation,
	}
}

func (r *Round) Resolved() bool {
	return r.resolved
}

func (r *Round) Winner() int64 {
	return r.winner
}

func (r *Round) Attempts(userID int64) int {
	return r.attempts[userID]
}
