package quiz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quizzerbot/quiz_bot/internal/models"
	apperrors "github.com/quizzerbot/quiz_bot/pkg/errors"
)

type fakeSessionStore struct {
	mu     sync.Mutex
	nextID uint
	active *models.QuizSession
	ended  []uint
}

func (s *fakeSessionStore) CreateSession() (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.active = &models.QuizSession{SessionID: s.nextID, StartTime: time.Now()}
	copied := *s.active
	return &copied, nil
}

func (s *fakeSessionStore) EndSession(sessionID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, sessionID)
	if s.active != nil && s.active.SessionID == sessionID {
		now := time.Now()
		s.active.EndTime = &now
		s.active = nil
	}
	return nil
}

func (s *fakeSessionStore) GetActiveSession() (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "no active session")
	}
	copied := *s.active
	return &copied, nil
}

func (s *fakeSessionStore) endedSessions() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint(nil), s.ended...)
}

type fakeLeaderboardStore struct {
	scores []models.Score
	err    error
}

func (s *fakeLeaderboardStore) TopScores(sessionID uint, limit int) ([]models.Score, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.scores) {
		return s.scores[:limit], nil
	}
	return s.scores, nil
}

func newSessionTestEnv(t *testing.T, questions ...*Question) (*SessionManager, *fakeSessionStore, *fakeLeaderboardStore, *testEnv) {
	t.Helper()
	env := newTestEnv(t, time.Hour, questions...)
	store := &fakeSessionStore{}
	boards := &fakeLeaderboardStore{}
	mgr := NewSessionManager(store, boards, env.engine, fastRetry())
	return mgr, store, boards, env
}

func TestStartSession_OpensFirstRound(t *testing.T) {
	mgr, _, _, env := newSessionTestEnv(t, basicQuestion())

	session, err := mgr.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if session.SessionID != 1 {
		t.Errorf("SessionID = %d, want 1", session.SessionID)
	}
	if !env.engine.HasOpenRound() {
		t.Error("first round should be open")
	}
	if env.announcer.questionCount() != 1 {
		t.Errorf("questions announced = %d, want 1", env.announcer.questionCount())
	}
}

func TestStartSession_EndsPreviousSession(t *testing.T) {
	mgr, store, _, _ := newSessionTestEnv(t, basicQuestion(), advancedQuestion())

	if _, err := mgr.StartSession(context.Background()); err != nil {
		t.Fatalf("first StartSession() error = %v", err)
	}
	session, err := mgr.StartSession(context.Background())
	if err != nil {
		t.Fatalf("second StartSession() error = %v", err)
	}

	if session.SessionID != 2 {
		t.Errorf("SessionID = %d, want 2", session.SessionID)
	}
	ended := store.endedSessions()
	if len(ended) != 1 || ended[0] != 1 {
		t.Errorf("ended sessions = %v, want [1]", ended)
	}
}

func TestStartSession_SurvivesSourceFailure(t *testing.T) {
	// No questions queued: the source fails, but the session must still start.
	mgr, _, _, env := newSessionTestEnv(t)
	env.source.mu.Lock()
	close(env.source.done)
	env.source.done = nil
	env.source.mu.Unlock()

	session, err := mgr.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if session == nil || !session.IsActive() {
		t.Fatal("session must be live even when no question could be generated")
	}
	if env.engine.HasOpenRound() {
		t.Error("no round should be open after source failure")
	}
}

func TestResume(t *testing.T) {
	mgr, store, _, env := newSessionTestEnv(t, basicQuestion())

	resumed, err := mgr.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume() with nothing active error = %v", err)
	}
	if resumed {
		t.Fatal("Resume() = true with no stored session")
	}

	store.mu.Lock()
	store.active = &models.QuizSession{SessionID: 7, StartTime: time.Now()}
	store.mu.Unlock()

	resumed, err = mgr.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if !resumed {
		t.Fatal("Resume() = false, want true")
	}
	current := mgr.CurrentSession()
	if current == nil || current.SessionID != 7 {
		t.Fatalf("CurrentSession() = %+v, want session 7", current)
	}
	if !env.engine.HasOpenRound() {
		t.Error("resumed session should open a round")
	}
}

func TestEndSession(t *testing.T) {
	mgr, store, _, env := newSessionTestEnv(t, basicQuestion())

	if _, err := mgr.StartSession(context.Background()); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if err := mgr.EndSession(context.Background()); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}

	if mgr.CurrentSession() != nil {
		t.Error("CurrentSession() should be nil after EndSession")
	}
	if env.engine.HasOpenRound() {
		t.Error("engine should have no open round after EndSession")
	}
	ended := store.endedSessions()
	if len(ended) != 1 || ended[0] != 1 {
		t.Errorf("ended sessions = %v, want [1]", ended)
	}

	// Ending twice is a no-op.
	if err := mgr.EndSession(context.Background()); err != nil {
		t.Fatalf("second EndSession() error = %v", err)
	}
}

func TestLeaderboard(t *testing.T) {
	mgr, _, boards, _ := newSessionTestEnv(t, basicQuestion())

	if _, _, err := mgr.Leaderboard(context.Background(), 10); apperrors.Code(err) != apperrors.ErrCodeNoActiveSession {
		t.Fatalf("Leaderboard() without session error code = %q, want %q", apperrors.Code(err), apperrors.ErrCodeNoActiveSession)
	}

	if _, err := mgr.StartSession(context.Background()); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	boards.scores = []models.Score{
		{UserID: 100, SessionID: 1, Score: 7.5},
		{UserID: 200, SessionID: 1, Score: -2},
	}

	session, scores, err := mgr.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if session.SessionID != 1 {
		t.Errorf("session id = %d, want 1", session.SessionID)
	}
	if len(scores) != 2 || scores[0].UserID != 100 || scores[0].Score != 7.5 {
		t.Errorf("scores = %+v, want the stored scoreboard", scores)
	}
}
