package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"github.com/quizzerbot/quiz_bot/internal/ai"
	"github.com/quizzerbot/quiz_bot/internal/config"
	"github.com/quizzerbot/quiz_bot/internal/handlers"
	"github.com/quizzerbot/quiz_bot/internal/middleware"
	"github.com/quizzerbot/quiz_bot/internal/quiz"
	"github.com/quizzerbot/quiz_bot/internal/repositories"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
	"github.com/quizzerbot/quiz_bot/pkg/retry"
)

const numWorkers = 10

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager
	sessions *quiz.SessionManager
	engine   *quiz.Engine

	// Resolved display names, cached per process lifetime
	userNames sync.Map

	workerChans []chan tgbotapi.Update
}

func InitBot(cfg *config.Config, db *gorm.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	topics, err := quiz.LoadTopics(cfg.TopicsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}

	aiClient, err := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		return nil, err
	}

	sessionRepo := repositories.NewSessionRepository(db)
	scoreRepo := repositories.NewScoreRepository(db)

	bot := &Bot{
		api:         api,
		config:      cfg,
		workerChans: make([]chan tgbotapi.Update, numWorkers),
	}

	openaiRetry := retryPolicy(cfg.OpenAIMaxRetries)
	storeRetry := retryPolicy(cfg.DBMaxRetries)

	bot.engine = quiz.NewEngine(quiz.Options{
		MaxAttempts: cfg.MaxAttemptsPerQuestion,
		Timeout:     cfg.GetQuestionTimeout(),
		Topics:      topics,
		SourceRetry: openaiRetry,
		JudgeRetry:  openaiRetry,
		StoreRetry:  storeRetry,
	}, aiClient, aiClient, scoreRepo, bot)

	bot.sessions = quiz.NewSessionManager(sessionRepo, scoreRepo, bot.engine, storeRetry)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute)
	bot.handlers = handlers.NewHandlerManager(cfg, bot.engine, bot.sessions, limiter)

	// Start workers
	for i := 0; i < numWorkers; i++ {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		go bot.startWorker(bot.workerChans[i])
	}

	// Start update listener
	go bot.startUpdateListener()

	return bot, nil
}

func retryPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:     uint64(maxAttempts),
		InitialInterval: time.Second,
		MaxInterval:     2 * time.Minute,
	}
}

// Sessions exposes the session manager for startup resume and shutdown.
func (b *Bot) Sessions() *quiz.SessionManager {
	return b.sessions
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.engine.Stop()
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			}

			if userID != 0 {
				// Hashed dispatch to workers to ensure per-user ordered processing
				workerIdx := userID % int64(len(b.workerChans))
				if workerIdx < 0 {
					workerIdx = -workerIdx
				}
				b.workerChans[workerIdx] <- update
			}
		}

		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	logger.Debug("Received message", "user_id", userID, "chat_id", chatID, "text", message.Text)

	if !message.IsCommand() {
		// Answers arrive only via /answer; plain text gets a hint in private
		// chats and is ignored in groups to keep the quiz channel quiet.
		if message.Chat.IsPrivate() {
			b.sendMessage(chatID, "Use <code>/answer &lt;your answer&gt;</code> to answer the current question, or /help for all commands.", nil)
		}
		return
	}

	switch message.Command() {
	case "start", "help":
		b.sendMessage(chatID, helpText(b.config.IsAdmin(userID)), nil)

	case "answer":
		b.handlers.HandleAnswer(userID, displayName(message.From), chatID, message.MessageID, message.CommandArguments(), b)

	case "leaderboard":
		b.handlers.ShowLeaderboard(chatID, b)

	case "resetsession":
		b.handlers.HandleResetSession(userID, chatID, b)

	case "skipquestion":
		b.handlers.HandleSkipQuestion(userID, chatID, b)

	default:
		if message.Chat.IsPrivate() {
			b.sendMessage(chatID, "Unknown command. Use /help to see what I can do.", nil)
		}
	}
}

func helpText(isAdmin bool) string {
	text := "🧠 <b>Trivia Bot</b>\n\n" +
		"I post AI-generated trivia questions about Bitcoin, Web3 and blockchain. " +
		"Answer them in free form and I grade the answers.\n\n" +
		"/answer &lt;text&gt; — submit your answer to the current question\n" +
		"/leaderboard — top scores for the running session\n" +
		"/help — this message"
	if isAdmin {
		text += "\n\nAdmin commands:\n" +
			"/resetsession — end the session, reset scores, start a new one\n" +
			"/skipquestion — discard the current question and post a new one"
	}
	return text
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "player"
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	if name == "" {
		name = fmt.Sprintf("player %d", user.ID)
	}
	return name
}

// ResolveUserName returns a display name for a user id, looked up through the
// quiz chat membership and cached.
func (b *Bot) ResolveUserName(userID int64) string {
	if v, ok := b.userNames.Load(userID); ok {
		return v.(string)
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: b.config.QuizChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.Debug("Could not resolve user name", "user_id", userID, "error", err)
		return fmt.Sprintf("player %d", userID)
	}

	name := displayName(member.User)
	b.userNames.Store(userID, name)
	return name
}

// ---- quiz.Announcer ----

func (b *Bot) AnnounceQuestion(sessionID uint, q quiz.Question, points float64) {
	text := fmt.Sprintf(
		"❓ <b>New Question!</b>\n\n%s\n\n"+
			"Topic: %s | Difficulty: %s | Worth %s points\n"+
			"Session #%d | Answer with /answer &lt;your answer&gt;",
		html.EscapeString(q.Text),
		html.EscapeString(q.Topic), q.Difficulty, formatPoints(points),
		sessionID,
	)
	b.sendToQuizChat(text)
}

func (b *Bot) AnnounceAnswered(sessionID uint, q quiz.Question, winnerName string, verdict quiz.Verdict, points float64, explanation string) {
	var parts []string
	if verdict == quiz.VerdictPartial {
		parts = append(parts, fmt.Sprintf("🤔 %s was partially correct and earned %s points!", winnerName, formatPoints(points)))
		if explanation != "" {
			parts = append(parts, html.EscapeString(explanation))
		}
		parts = append(parts, fmt.Sprintf("The full intended answer was: <b>%s</b>", html.EscapeString(q.IntendedAnswer)))
	} else {
		parts = append(parts, fmt.Sprintf("🏆 %s answered correctly and earned %s points!", winnerName, formatPoints(points)))
		parts = append(parts, fmt.Sprintf("The answer was: <b>%s</b>", html.EscapeString(q.IntendedAnswer)))
	}
	b.sendToQuizChat(strings.Join(parts, "\n"))
}

func (b *Bot) AnnounceClosed(q quiz.Question, reason quiz.CloseReason) {
	var header string
	switch reason {
	case quiz.CloseTimedOut:
		header = "⌛ Time's up! No one answered in time."
	default:
		header = "⏭ Question skipped."
	}
	text := fmt.Sprintf("%s\nThe question was: \"%s\"\nThe intended answer was: <b>%s</b>",
		header, html.EscapeString(q.Text), html.EscapeString(q.IntendedAnswer))
	b.sendToQuizChat(text)
}

func (b *Bot) AnnounceError(message string) {
	b.sendToQuizChat("⚠️ " + html.EscapeString(message))
}

func (b *Bot) sendToQuizChat(text string) {
	if b.config.QuizChatID == 0 {
		logger.Warn("QUIZ_CHAT_ID not configured, dropping announcement", "text", text)
		return
	}
	b.sendMessage(b.config.QuizChatID, text, nil)
}

// ---- handlers.BotInterface ----

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) SendReply(chatID int64, replyToMessageID int, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyToMessageID
	return b.send(msg)
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.ReplyKeyboardRemove:
		msg.ReplyMarkup = kb
	}

	return b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) int {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", msg.ChatID, "attempt", i+1)

			// If it's a network error, wait and retry
			if strings.Contains(err.Error(), "connection reset") ||
				strings.Contains(err.Error(), "timeout") ||
				strings.Contains(err.Error(), "network is unreachable") {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0 // Non-network error, don't retry
		}
		return sentMsg.MessageID // Success
	}
	return 0 // All retries failed
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
