package repositories

import (
	"time"

	"github.com/quizzerbot/quiz_bot/internal/models"
	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession opens a new quiz session row.
func (r *SessionRepository) CreateSession() (*models.QuizSession, error) {
	session := &models.QuizSession{StartTime: time.Now().UTC()}
	if err := r.db.Create(session).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create session")
	}
	return session, nil
}

// EndSession stamps end_time on a session. Ending an already-ended session is
// a no-op.
func (r *SessionRepository) EndSession(sessionID uint) error {
	result := r.db.Model(&models.QuizSession{}).
		Where("session_id = ? AND end_time IS NULL", sessionID).
		Update("end_time", time.Now().UTC())
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to end session")
	}
	return nil
}

// GetSession retrieves a session row by ID.
func (r *SessionRepository) GetSession(sessionID uint) (*models.QuizSession, error) {
	var session models.QuizSession
	result := r.db.First(&session, sessionID)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "session not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get session")
	}

	return &session, nil
}

// GetActiveSession returns the session with no end_time, if any. Used to pick
// an existing session back up after a restart.
func (r *SessionRepository) GetActiveSession() (*models.QuizSession, error) {
	var session models.QuizSession
	result := r.db.Where("end_time IS NULL").Order("start_time DESC").First(&session)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "no active session")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get active session")
	}

	return &session, nil
}
