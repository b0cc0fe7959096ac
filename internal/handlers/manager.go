package handlers

import (
	"github.com/quizzerbot/quiz_bot/internal/config"
	"github.com/quizzerbot/quiz_bot/internal/middleware"
	"github.com/quizzerbot/quiz_bot/internal/quiz"
)

// BotInterface is the surface handlers need from the bot. It keeps the
// handlers package free of a direct dependency on the telegram package.
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	SendReply(chatID int64, replyToMessageID int, text string) int
	ResolveUserName(userID int64) string
}

type HandlerManager struct {
	Config   *config.Config
	Engine   *quiz.Engine
	Sessions *quiz.SessionManager
	Limiter  *middleware.RateLimiter
}

func NewHandlerManager(
	cfg *config.Config,
	engine *quiz.Engine,
	sessions *quiz.SessionManager,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:   cfg,
		Engine:   engine,
		Sessions: sessions,
		Limiter:  limiter,
	}
}
