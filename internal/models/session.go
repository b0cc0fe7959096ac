package models

import (
	"time"
)

// QuizSession is a bounded period over which scores accumulate. At most one
// session is active (EndTime null) at a time; the session manager enforces
// that by closing the previous row before creating a new one.
type QuizSession struct {
	SessionID uint       `gorm:"primaryKey;column:session_id"`
	StartTime time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	EndTime   *time.Time `gorm:"index"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

func (s *QuizSession) IsActive() bool {
	return s.EndTime == nil
}

// Score accumulates one user's points for one session. Partial answers award
// half points, so the column is double precision rather than integer.
type Score struct {
	UserID    int64       `gorm:"primaryKey;autoIncrement:false"`
	SessionID uint        `gorm:"primaryKey;autoIncrement:false;index:idx_scores_session_score,priority:1"`
	Session   QuizSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Score     float64     `gorm:"not null;default:0;index:idx_scores_session_score,priority:2,sort:desc"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`
}

func (Score) TableName() string {
	return "scores"
}
