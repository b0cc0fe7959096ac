package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
)

// HandleResetSession ends the current session and starts a fresh scoreboard
// with a new first question.
func (h *HandlerManager) HandleResetSession(userID, chatID int64, bot BotInterface) {
	if !h.Config.IsAdmin(userID) {
		bot.SendMessage(chatID, "🚫 You are not authorized to use this command.", nil)
		return
	}

	logger.Info("Session reset requested", "admin_id", userID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	session, err := h.Sessions.StartSession(ctx)
	if err != nil {
		logger.Error("Failed to reset session", "admin_id", userID, "error", err)
		bot.SendMessage(chatID, "❌ Could not reset the session. Please check the database and try again.", nil)
		return
	}

	bot.SendMessage(chatID, fmt.Sprintf(
		"🔁 Scores reset! Quiz session #%d has started and a new question is on its way.", session.SessionID), nil)
}

// HandleSkipQuestion discards the current question, reveals its answer to the
// quiz channel, and opens the next one.
func (h *HandlerManager) HandleSkipQuestion(userID, chatID int64, bot BotInterface) {
	if !h.Config.IsAdmin(userID) {
		bot.SendMessage(chatID, "🚫 You are not authorized to use this command.", nil)
		return
	}

	logger.Info("Question skip requested", "admin_id", userID)

	q, err := h.Engine.Skip()
	if err != nil {
		if errors.Code(err) == errors.ErrCodeNotFound {
			// No open round. When a session is live this doubles as the manual
			// retry after question generation gave up.
			if h.Sessions.CurrentSession() == nil {
				bot.SendMessage(chatID, "There is no active question to skip. Use /resetsession to start a session.", nil)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if openErr := h.Engine.OpenRound(ctx); openErr != nil {
				if errors.Code(openErr) == errors.ErrCodeInternalError && h.Engine.HasOpenRound() {
					// A round opened concurrently, nothing left to do.
					bot.SendMessage(chatID, "A new question just went up.", nil)
					return
				}
				bot.SendMessage(chatID, "There was no question to skip and I could not generate a new one. Please try again.", nil)
				return
			}
			bot.SendMessage(chatID, "There was no open question, so I posted a fresh one.", nil)
			return
		}
		logger.Error("Failed to skip question", "admin_id", userID, "error", err)
		bot.SendMessage(chatID, "❌ Could not skip the question. Please try again.", nil)
		return
	}

	bot.SendMessage(chatID, fmt.Sprintf("⏭ Question skipped. The intended answer was: <b>%s</b>", q.IntendedAnswer), nil)
}
