package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
	"github.com/quizzerbot/quiz_bot/pkg/retry"
)

// QuestionSource produces a fresh question for a topic and difficulty.
type QuestionSource interface {
	GenerateQuestion(ctx context.Context, topic string, difficulty Difficulty) (*Question, error)
}

// AnswerJudge grades a candidate answer against the intended one.
type AnswerJudge interface {
	EvaluateAnswer(ctx context.Context, question, intendedAnswer, candidate string) (*Evaluation, error)
}

// ScoreStore accumulates score deltas per user per session.
type ScoreStore interface {
	ApplyDelta(userID int64, sessionID uint, delta float64) (float64, error)
}

// Announcer posts round events to the quiz channel.
type Announcer interface {
	AnnounceQuestion(sessionID uint, q Question, points float64)
	AnnounceAnswered(sessionID uint, q Question, winnerName string, verdict Verdict, points float64, explanation string)
	AnnounceClosed(q Question, reason CloseReason)
	AnnounceError(message string)
}

// AnswerResult is the private feedback for one processed submission.
type AnswerResult struct {
	Verdict      Verdict
	Explanation  string
	Points       float64
	NewTotal     float64
	AttemptsLeft int
	Question     Question
}

// Options tunes the engine. Tests shrink the timeout and retry intervals.
type Options struct {
	MaxAttempts int
	Timeout     time.Duration
	Topics      []string
	SourceRetry retry.Policy
	JudgeRetry  retry.Policy
	StoreRetry  retry.Policy
}

// Engine owns the single open round for the active session. Submissions are
// funneled through one worker goroutine so at most one answer is inside
// judgement at a time and the first winning verdict is deterministic. The
// inactivity timer and admin skip synchronize with the worker through the
// engine mutex and the round generation counter.
type Engine struct {
	opts      Options
	source    QuestionSource
	judge     AnswerJudge
	store     ScoreStore
	announcer Announcer

	mu         sync.Mutex
	sessionID  uint
	round      *Round
	generation uint64
	judging    bool
	timer      *time.Timer
	roundCtx   context.Context
	cancel     context.CancelFunc

	submissions chan *submission
	stopOnce    sync.Once
	stopped     chan struct{}
}

type submission struct {
	userID   int64
	userName string
	answer   string
	reply    chan submitReply
}

type submitReply struct {
	result *AnswerResult
	err    error
}

func NewEngine(opts Options, source QuestionSource, judge AnswerJudge, store ScoreStore, announcer Announcer) *Engine {
	e := &Engine{
		opts:        opts,
		source:      source,
		judge:       judge,
		store:       store,
		announcer:   announcer,
		submissions: make(chan *submission, 64),
		stopped:     make(chan struct{}),
	}
	go e.run()
	return e
}

// Stop shuts down the worker. Pending submissions are answered with an error.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopped)
		e.mu.Lock()
		e.closeRoundLocked(CloseSkipped)
		e.sessionID = 0
		e.mu.Unlock()
	})
}

// BindSession attaches the engine to a session, discarding any round that
// belonged to the previous one.
func (e *Engine) BindSession(sessionID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeRoundLocked(CloseSkipped)
	e.sessionID = sessionID
}

// Unbind detaches the engine (no active session, no open round).
func (e *Engine) Unbind() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeRoundLocked(CloseSkipped)
	e.sessionID = 0
}

// HasOpenRound reports whether a question is currently accepting answers.
func (e *Engine) HasOpenRound() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round != nil && !e.round.resolved
}

// OpenRound pulls a question from the source (random topic, random
// difficulty) and opens it. Source failures are retried under the policy;
// exhaustion leaves the machine empty and reports to the channel, so the next
// skip or reset command acts as the manual retry.
func (e *Engine) OpenRound(ctx context.Context) error {
	e.mu.Lock()
	if e.sessionID == 0 {
		e.mu.Unlock()
		return errors.New(errors.ErrCodeNoActiveSession, "no active quiz session")
	}
	if e.round != nil && !e.round.resolved {
		e.mu.Unlock()
		return errors.New(errors.ErrCodeInternalError, "a question is already open")
	}
	sessionID := e.sessionID
	e.mu.Unlock()

	topic := e.opts.Topics[rand.Intn(len(e.opts.Topics))]
	difficulty := Difficulties[rand.Intn(len(Difficulties))]

	var q *Question
	err := e.opts.SourceRetry.Do(ctx, func() error {
		var genErr error
		q, genErr = e.source.GenerateQuestion(ctx, topic, difficulty)
		return genErr
	})
	if err != nil {
		logger.Error("Question generation failed after retries", "topic", topic, "difficulty", difficulty, "error", err)
		e.announcer.AnnounceError("I could not come up with a new question. An admin can retry with /skipquestion or /resetsession.")
		return errors.Wrap(err, errors.ErrCodeSourceUnavailable, "question source unavailable")
	}

	e.mu.Lock()
	if e.sessionID != sessionID {
		// Session changed while we were generating; drop the question.
		e.mu.Unlock()
		return errors.New(errors.ErrCodeNoActiveSession, "session ended during question generation")
	}
	if e.round != nil && !e.round.resolved {
		// A concurrent open won the race while we were generating; drop the
		// question instead of replacing the installed round.
		e.mu.Unlock()
		return errors.New(errors.ErrCodeInternalError, "a question is already open")
	}
	e.generation++
	e.round = newRound(*q, time.Now(), e.opts.Timeout, e.generation)
	e.roundCtx, e.cancel = context.WithCancel(context.Background())
	gen := e.generation
	e.timer = time.AfterFunc(e.opts.Timeout, func() { e.onTimeout(gen) })
	points := e.round.PointValue
	e.mu.Unlock()

	logger.Info("Opened new round", "session_id", sessionID, "topic", q.Topic, "difficulty", q.Difficulty)
	e.announcer.AnnounceQuestion(sessionID, *q, points)
	return nil
}

// Submit queues an answer and blocks until it has been processed in arrival
// order.
func (e *Engine) Submit(ctx context.Context, userID int64, userName, answer string) (*AnswerResult, error) {
	sub := &submission{
		userID:   userID,
		userName: userName,
		answer:   answer,
		reply:    make(chan submitReply, 1),
	}

	select {
	case e.submissions <- sub:
	case <-e.stopped:
		return nil, errors.New(errors.ErrCodeInternalError, "quiz engine is shut down")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-sub.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Skip closes the current round immediately, even while a judge call is in
// flight; the late verdict is discarded by the generation check in the
// worker. The revealed question is announced and the next round opened.
func (e *Engine) Skip() (*Question, error) {
	e.mu.Lock()
	if e.round == nil || e.round.resolved {
		e.mu.Unlock()
		return nil, errors.New(errors.ErrCodeNotFound, "no active question to skip")
	}
	q := e.round.Question
	e.closeRoundLocked(CloseSkipped)
	e.mu.Unlock()

	logger.Info("Round skipped by admin", "question", q.Text)
	e.announcer.AnnounceClosed(q, CloseSkipped)
	go e.openNext()
	return &q, nil
}

func (e *Engine) run() {
	for {
		select {
		case <-e.stopped:
			return
		case sub := <-e.submissions:
			e.process(sub)
		}
	}
}

func (e *Engine) process(sub *submission) {
	e.mu.Lock()

	if e.sessionID == 0 {
		e.mu.Unlock()
		sub.reply <- submitReply{err: errors.New(errors.ErrCodeNoActiveSession, "no active quiz session")}
		return
	}
	if e.round == nil || e.round.resolved {
		e.mu.Unlock()
		sub.reply <- submitReply{err: errors.New(errors.ErrCodeAlreadyResolved, "this question is already closed")}
		return
	}

	r := e.round
	gen := r.generation

	r.attempts[sub.userID]++
	if r.attempts[sub.userID] > e.opts.MaxAttempts {
		// Rejected outright: no judge call, no deadline reset.
		e.mu.Unlock()
		sub.reply <- submitReply{err: errors.New(errors.ErrCodeAttemptLimitExceeded,
			fmt.Sprintf("you have used all %d attempts for this question", e.opts.MaxAttempts))}
		return
	}
	attemptsLeft := e.opts.MaxAttempts - r.attempts[sub.userID]

	// Every attempt that reaches judgement pushes the inactivity deadline out.
	r.Deadline = time.Now().Add(e.opts.Timeout)
	e.timer.Reset(e.opts.Timeout)

	question := r.Question
	judgeCtx := e.roundCtx
	sessionID := e.sessionID
	e.judging = true
	e.mu.Unlock()

	var eval *Evaluation
	err := e.opts.JudgeRetry.Do(judgeCtx, func() error {
		var evalErr error
		eval, evalErr = e.judge.EvaluateAnswer(judgeCtx, question.Text, question.IntendedAnswer, sub.answer)
		return evalErr
	})

	e.mu.Lock()
	e.judging = false

	if e.round == nil || e.round.generation != gen || e.round.resolved {
		// Closed while we were judging (skip or reset). Whatever the judge
		// said, it no longer counts.
		e.mu.Unlock()
		sub.reply <- submitReply{err: errors.New(errors.ErrCodeAlreadyResolved, "this question is already closed")}
		return
	}

	if err != nil {
		// The attempt was a real try and stays consumed, but no score moves.
		e.mu.Unlock()
		logger.Error("Answer evaluation failed after retries", "user_id", sub.userID, "error", err)
		sub.reply <- submitReply{err: errors.Wrap(err, errors.ErrCodeJudgeUnavailable,
			"could not evaluate your answer right now, please try again")}
		return
	}

	switch eval.Verdict {
	case VerdictCorrect, VerdictPartial:
		delta := PointsFor(question.Difficulty, eval.Verdict)

		// The store write happens before the round resolves, mirroring the
		// attempt semantics: if it ultimately fails the round stays open.
		// Holding the mutex here keeps skip/timeout from closing the round
		// between the verdict check and the score write.
		newTotal, storeErr := e.applyDelta(sub.userID, sessionID, delta)
		if storeErr != nil {
			e.mu.Unlock()
			logger.Error("Score update failed after retries", "user_id", sub.userID, "error", storeErr)
			sub.reply <- submitReply{err: errors.Wrap(storeErr, errors.ErrCodeStoreUnavailable,
				"could not record your score, please try again")}
			return
		}

		r.resolved = true
		r.winner = sub.userID
		r.reason = CloseAnswered
		e.stopTimerLocked()
		e.cancelRoundCtxLocked()
		e.mu.Unlock()

		logger.Info("Round answered",
			"session_id", sessionID,
			"user_id", sub.userID,
			"verdict", eval.Verdict,
			"points", delta,
		)
		e.announcer.AnnounceAnswered(sessionID, question, sub.userName, eval.Verdict, delta, eval.Explanation)
		go e.openNext()

		sub.reply <- submitReply{result: &AnswerResult{
			Verdict:      eval.Verdict,
			Explanation:  eval.Explanation,
			Points:       delta,
			NewTotal:     newTotal,
			AttemptsLeft: attemptsLeft,
			Question:     question,
		}}

	default: // Incorrect
		newTotal, storeErr := e.applyDelta(sub.userID, sessionID, -IncorrectPenalty)
		e.mu.Unlock()
		if storeErr != nil {
			logger.Error("Score deduction failed after retries", "user_id", sub.userID, "error", storeErr)
			sub.reply <- submitReply{err: errors.Wrap(storeErr, errors.ErrCodeStoreUnavailable,
				"could not record your score, please try again")}
			return
		}

		logger.Info("Incorrect answer", "session_id", sessionID, "user_id", sub.userID, "attempts_left", attemptsLeft)
		sub.reply <- submitReply{result: &AnswerResult{
			Verdict:      VerdictIncorrect,
			Points:       -IncorrectPenalty,
			NewTotal:     newTotal,
			AttemptsLeft: attemptsLeft,
			Question:     question,
		}}
	}
}

func (e *Engine) applyDelta(userID int64, sessionID uint, delta float64) (float64, error) {
	var total float64
	err := e.opts.StoreRetry.Do(context.Background(), func() error {
		var applyErr error
		total, applyErr = e.store.ApplyDelta(userID, sessionID, delta)
		return applyErr
	})
	return total, err
}

// onTimeout fires when the inactivity deadline for round generation gen is
// reached. Stale fires lose every race: a newer round, a reset deadline, or a
// judge call in progress all cause the fire to be ignored.
func (e *Engine) onTimeout(gen uint64) {
	e.mu.Lock()
	if e.round == nil || e.round.generation != gen || e.round.resolved {
		e.mu.Unlock()
		return
	}
	if e.judging {
		// Judgement in progress is never preempted; check again once it is done.
		e.timer.Reset(50 * time.Millisecond)
		e.mu.Unlock()
		return
	}
	if d := time.Until(e.round.Deadline); d > 0 {
		// The deadline moved since this fire was scheduled.
		e.timer.Reset(d)
		e.mu.Unlock()
		return
	}
	q := e.round.Question
	sessionID := e.sessionID
	e.closeRoundLocked(CloseTimedOut)
	e.mu.Unlock()

	logger.Info("Round timed out", "session_id", sessionID, "question", q.Text)
	e.announcer.AnnounceClosed(q, CloseTimedOut)
	e.openNext()
}

func (e *Engine) openNext() {
	select {
	case <-e.stopped:
		return
	default:
	}
	if err := e.OpenRound(context.Background()); err != nil {
		if errors.Code(err) != errors.ErrCodeNoActiveSession {
			logger.Error("Failed to open next round", "error", err)
		}
	}
}

func (e *Engine) closeRoundLocked(reason CloseReason) {
	if e.round != nil && !e.round.resolved {
		e.round.resolved = true
		e.round.reason = reason
	}
	e.stopTimerLocked()
	e.cancelRoundCtxLocked()
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
}

func (e *Engine) cancelRoundCtxLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
