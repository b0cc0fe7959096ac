package quiz

import (
	"context"
	"sync"

	"github.com/quizzerbot/quiz_bot/internal/models"
	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
	"github.com/quizzerbot/quiz_bot/pkg/retry"
)

// SessionStore persists session rows.
type SessionStore interface {
	CreateSession() (*models.QuizSession, error)
	EndSession(sessionID uint) error
	GetActiveSession() (*models.QuizSession, error)
}

// LeaderboardStore reads ranked scores for a session.
type LeaderboardStore interface {
	TopScores(sessionID uint, limit int) ([]models.Score, error)
}

// SessionManager owns the active session and the engine bound to it. At most
// one session is active at a time; starting a new one closes the previous row
// first.
type SessionManager struct {
	sessions   SessionStore
	scores     LeaderboardStore
	engine     *Engine
	storeRetry retry.Policy

	mu      sync.Mutex
	current *models.QuizSession
}

func NewSessionManager(sessions SessionStore, scores LeaderboardStore, engine *Engine, storeRetry retry.Policy) *SessionManager {
	return &SessionManager{
		sessions:   sessions,
		scores:     scores,
		engine:     engine,
		storeRetry: storeRetry,
	}
}

// StartSession ends the current session if one is active, creates a fresh
// one, and opens its first round. The session is started even when the first
// question cannot be generated; the engine stays empty until an admin
// retries.
func (m *SessionManager) StartSession(ctx context.Context) (*models.QuizSession, error) {
	m.mu.Lock()
	if m.current != nil && m.current.IsActive() {
		oldID := m.current.SessionID
		err := m.storeRetry.Do(ctx, func() error { return m.sessions.EndSession(oldID) })
		if err != nil {
			m.mu.Unlock()
			return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to end previous session")
		}
		logger.Info("Ended quiz session", "session_id", oldID)
	}

	var session *models.QuizSession
	err := m.storeRetry.Do(ctx, func() error {
		var createErr error
		session, createErr = m.sessions.CreateSession()
		return createErr
	})
	if err != nil {
		m.mu.Unlock()
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create session")
	}
	m.current = session
	m.mu.Unlock()

	logger.Info("Started new quiz session", "session_id", session.SessionID)
	m.engine.BindSession(session.SessionID)

	if err := m.engine.OpenRound(ctx); err != nil {
		// Already reported to the channel; the session itself is live.
		logger.Warn("First round of session could not be opened", "session_id", session.SessionID, "error", err)
	}

	return session, nil
}

// Resume picks up a session that was still active when the bot last stopped.
// Returns false when there is nothing to resume.
func (m *SessionManager) Resume(ctx context.Context) (bool, error) {
	session, err := m.sessions.GetActiveSession()
	if err != nil {
		if errors.Code(err) == errors.ErrCodeNotFound {
			return false, nil
		}
		return false, err
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	logger.Info("Resumed quiz session", "session_id", session.SessionID)
	m.engine.BindSession(session.SessionID)

	if err := m.engine.OpenRound(ctx); err != nil {
		logger.Warn("Could not open a round for resumed session", "session_id", session.SessionID, "error", err)
	}

	return true, nil
}

// EndSession closes the active session and leaves the engine unbound. Runs
// at graceful shutdown; after a crash the row stays open and Resume picks it
// up.
func (m *SessionManager) EndSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive() {
		return nil
	}

	id := m.current.SessionID
	err := m.storeRetry.Do(ctx, func() error { return m.sessions.EndSession(id) })
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to end session")
	}

	m.engine.Unbind()
	m.current = nil
	logger.Info("Ended quiz session", "session_id", id)
	return nil
}

// CurrentSession returns a copy of the active session, or nil.
func (m *SessionManager) CurrentSession() *models.QuizSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.IsActive() {
		return nil
	}
	copied := *m.current
	return &copied
}

// Leaderboard returns the active session and its top scores by descending
// score. Ties keep store order.
func (m *SessionManager) Leaderboard(ctx context.Context, limit int) (*models.QuizSession, []models.Score, error) {
	session := m.CurrentSession()
	if session == nil {
		return nil, nil, errors.New(errors.ErrCodeNoActiveSession, "no active quiz session")
	}

	var scores []models.Score
	err := m.storeRetry.Do(ctx, func() error {
		var topErr error
		scores, topErr = m.scores.TopScores(session.SessionID, limit)
		return topErr
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to load leaderboard")
	}

	return session, scores, nil
}
