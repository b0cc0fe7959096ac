package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken   string
	QuizChatID int64

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Admins allowed to reset sessions and skip questions
	AdminUserIDs []int64

	// Application
	AppEnv   string
	LogLevel string

	// Game
	QuestionTimeoutHours   int
	MaxAttemptsPerQuestion int
	TopicsFile             string

	// Retry budgets for external calls
	OpenAIMaxRetries int
	DBMaxRetries     int

	// Rate Limiting
	RateLimitPerUser int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:     getEnv("BOT_TOKEN", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "quizbot"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "quizbot_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		QuestionTimeoutHours:   getEnvInt("QUESTION_TIMEOUT_HOURS", 2),
		MaxAttemptsPerQuestion: getEnvInt("MAX_ATTEMPTS_PER_QUESTION", 5),
		TopicsFile:             getEnv("TOPICS_FILE", "topics.txt"),

		OpenAIMaxRetries: getEnvInt("OPENAI_MAX_RETRIES", 10),
		DBMaxRetries:     getEnvInt("DB_MAX_RETRIES", 10),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 20),
	}

	// Parse quiz chat ID (the channel questions are posted to)
	chatIDStr := getEnv("QUIZ_CHAT_ID", "")
	if chatIDStr != "" {
		id, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid QUIZ_CHAT_ID: %w", err)
		}
		cfg.QuizChatID = id
	}

	// Parse admin allow-list (comma-separated Telegram user IDs)
	adminsStr := getEnv("ADMIN_USER_IDS", "")
	if adminsStr != "" {
		for _, part := range strings.Split(adminsStr, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", part, err)
			}
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.QuestionTimeoutHours <= 0 {
		return fmt.Errorf("QUESTION_TIMEOUT_HOURS must be positive")
	}
	if c.MaxAttemptsPerQuestion <= 0 {
		return fmt.Errorf("MAX_ATTEMPTS_PER_QUESTION must be positive")
	}
	return nil
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetQuestionTimeout() time.Duration {
	return time.Duration(c.QuestionTimeoutHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
