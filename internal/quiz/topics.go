package quiz

import (
	"bufio"
	"os"
	"strings"

	"github.com/quizzerbot/quiz_bot/pkg/errors"
)

// LoadTopics reads the newline-separated topic list, skipping blank lines.
func LoadTopics(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "topics file not found")
	}
	defer f.Close()

	var topics []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			topics = append(topics, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read topics file")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "topics file is empty")
	}

	return topics, nil
}
