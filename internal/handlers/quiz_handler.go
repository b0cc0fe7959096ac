package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/quizzerbot/quiz_bot/internal/quiz"
	"github.com/quizzerbot/quiz_bot/internal/security"
	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
)

// submitTimeout bounds how long a user waits for their verdict. Judge retries
// can run long; past this point the user gets a generic failure while the
// attempt itself still completes in the background.
const submitTimeout = 90 * time.Second

// HandleAnswer processes an /answer submission and replies to the user's
// message with their private verdict.
func (h *HandlerManager) HandleAnswer(userID int64, userName string, chatID int64, messageID int, answer string, bot BotInterface) {
	if !h.Limiter.Allow(userID) {
		bot.SendReply(chatID, messageID, "⏳ You are sending commands too fast. Please slow down.")
		return
	}

	answer = security.SanitizeAnswer(answer)
	if answer == "" {
		bot.SendReply(chatID, messageID, "Please include your answer, e.g. <code>/answer satoshi</code>")
		return
	}
	userName = security.SanitizeDisplayName(userName)

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	result, err := h.Engine.Submit(ctx, userID, userName, answer)
	if err != nil {
		bot.SendReply(chatID, messageID, answerErrorMessage(err))
		return
	}

	switch result.Verdict {
	case quiz.VerdictCorrect:
		bot.SendReply(chatID, messageID, fmt.Sprintf(
			"🎉 Correct, %s! You earned %s points. Your session total is %s.",
			userName, formatPoints(result.Points), formatPoints(result.NewTotal)))

	case quiz.VerdictPartial:
		text := fmt.Sprintf("👍 Partially correct, %s! You earned %s points.", userName, formatPoints(result.Points))
		if result.Explanation != "" {
			text += "\n" + result.Explanation
		}
		text += fmt.Sprintf("\nYour session total is %s.", formatPoints(result.NewTotal))
		bot.SendReply(chatID, messageID, text)

	default:
		bot.SendReply(chatID, messageID, fmt.Sprintf(
			"❌ Incorrect, %s. You lose %s points. You have %d attempts remaining for this question.",
			userName, formatPoints(-result.Points), result.AttemptsLeft))
	}
}

// ShowLeaderboard posts the top scores for the active session.
func (h *HandlerManager) ShowLeaderboard(chatID int64, bot BotInterface) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, scores, err := h.Sessions.Leaderboard(ctx, 10)
	if err != nil {
		if errors.Code(err) == errors.ErrCodeNoActiveSession {
			bot.SendMessage(chatID, "No active quiz session. An admin can start one with /resetsession.", nil)
			return
		}
		logger.Error("Failed to load leaderboard", "error", err)
		bot.SendMessage(chatID, "An error occurred while fetching the leaderboard.", nil)
		return
	}

	if len(scores) == 0 {
		bot.SendMessage(chatID, "No scores yet for this session. Be the first to answer correctly!", nil)
		return
	}

	msg := "<b>🏆 Quiz Leaderboard (top 10):</b>\n\n"
	for i, s := range scores {
		medal := ""
		switch i {
		case 0:
			medal = "🥇 "
		case 1:
			medal = "🥈 "
		case 2:
			medal = "🥉 "
		default:
			medal = fmt.Sprintf("%d. ", i+1)
		}
		name := security.SanitizeDisplayName(bot.ResolveUserName(s.UserID))
		msg += fmt.Sprintf("%s%s: %s points\n", medal, name, formatPoints(s.Score))
	}
	msg += fmt.Sprintf("\nSession #%d, started %s", session.SessionID, session.StartTime.Format("2006-01-02 15:04 MST"))

	bot.SendMessage(chatID, msg, nil)
}

func answerErrorMessage(err error) string {
	switch errors.Code(err) {
	case errors.ErrCodeNoActiveSession:
		return "There is no active quiz question or session right now. Please wait for an admin to start one."
	case errors.ErrCodeAlreadyResolved:
		return "This question is already closed. Wait for the next one!"
	case errors.ErrCodeAttemptLimitExceeded:
		return "Sorry, you have used all your attempts for this question."
	case errors.ErrCodeJudgeUnavailable:
		return "Sorry, I couldn't evaluate your answer right now. Please try again."
	case errors.ErrCodeStoreUnavailable:
		return "Sorry, I couldn't record your score right now. Please try again."
	default:
		return "An error occurred while processing your answer. Please try again."
	}
}

// formatPoints prints whole numbers without a decimal point and halves as
// "2.5".
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
