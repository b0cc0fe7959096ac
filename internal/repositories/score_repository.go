package repositories

import (
	"github.com/quizzerbot/quiz_bot/internal/models"
	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ApplyDelta adds delta to a user's score for the session, creating the row on
// first touch, and returns the new total. Callers guarantee at-most-once
// invocation per verdict, so no idempotency key is needed here.
func (r *ScoreRepository) ApplyDelta(userID int64, sessionID uint, delta float64) (float64, error) {
	entry := models.Score{
		UserID:    userID,
		SessionID: sessionID,
		Score:     delta,
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score": gorm.Expr("scores.score + excluded.score"),
		}),
	}).Create(&entry)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to apply score delta")
	}

	var current models.Score
	if err := r.db.Where("user_id = ? AND session_id = ?", userID, sessionID).First(&current).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to read updated score")
	}

	return current.Score, nil
}

// TopScores returns the session leaderboard in descending score order. Ties
// keep insertion order, which is stable but not meaningful.
func (r *ScoreRepository) TopScores(sessionID uint, limit int) ([]models.Score, error) {
	var scores []models.Score
	result := r.db.Where("session_id = ?", sessionID).
		Order("score DESC").
		Limit(limit).
		Find(&scores)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to load leaderboard")
	}
	return scores, nil
}
