package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quizzerbot/quiz_bot/internal/quiz"
	"github.com/quizzerbot/quiz_bot/pkg/errors"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
)

const (
	generateTemperature = 0.7
	evaluateTemperature = 0.2
)

// Client wraps the OpenAI chat completion API as both the question source and
// the answer judge. Retries live in the caller's policy; each method here is a
// single API call.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInternalError, "OpenAI API key is missing")
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}, nil
}

const generatePromptTemplate = `You are an AI that generates quiz questions for a chat bot.
The questions should have short, concise answers (a few words at most, ideally one or two).
They can be fill-in-the-blank or conceptual questions.
The topics are related to: Bitcoin, Web3, Decentralization, Blockchain.

Generate a question on the topic: "%s"
The desired difficulty level is: "%s" (e.g., basic knowledge, intermediate knowledge, advanced knowledge).

Your response MUST be a JSON object with the following exact keys:
- "question": A string containing the question.
- "intended_answer": A string containing the concise, correct answer.
- "difficulty_assessment": A string assessing the actual difficulty of the generated question (e.g., "basic knowledge", "intermediate", "advanced"). This can be your own assessment based on the question you generated.

Example of a "basic knowledge" question about Bitcoin:
{
    "question": "What is the smallest unit of Bitcoin called?",
    "intended_answer": "satoshi",
    "difficulty_assessment": "basic knowledge"
}

Ensure the "intended_answer" is very specific and what you expect the user to type.
Do not include any explanations or text outside the JSON object.
The entire response should be ONLY the JSON object.`

const evaluatePromptTemplate = `You are an AI evaluating a user's answer to a quiz question.
The original question was: "%s"
The intended concise correct answer is: "%s"
The user's answer was: "%s"

Analyze the user's answer. Determine if it is "Correct", "Incorrect", or "Partially correct".
- "Correct" means the user's answer is essentially the same as the intended answer, allowing for minor variations in phrasing if the core concept is identical.
- "Partially correct" means the user's answer captures some aspect of the correct answer but is incomplete, or contains correct information alongside incorrect information, or is a less precise but related correct concept.
- "Incorrect" means the user's answer is wrong.

Your response MUST be a JSON object with the following exact keys:
- "status": A string, either "Correct", "Incorrect", or "Partially correct".
- "explanation": A string. If the status is "Partially correct", provide a brief explanation of what makes it partial. If "Correct" or "Incorrect", this can be null or a very brief confirmation.

Do not include any text outside the JSON object.
The entire response should be ONLY the JSON object.
Be strict but fair. The "intended_answer" is the primary reference for correctness.`

// GenerateQuestion implements quiz.QuestionSource.
func (c *Client) GenerateQuestion(ctx context.Context, topic string, difficulty quiz.Difficulty) (*quiz.Question, error) {
	prompt := fmt.Sprintf(generatePromptTemplate, topic, difficulty)

	content, err := c.complete(ctx, prompt, generateTemperature)
	if err != nil {
		return nil, err
	}

	q, err := parseQuestionPayload(content)
	if err != nil {
		logger.Error("Unusable question payload from OpenAI", "topic", topic, "error", err)
		return nil, err
	}
	q.Topic = topic
	return q, nil
}

// EvaluateAnswer implements quiz.AnswerJudge.
func (c *Client) EvaluateAnswer(ctx context.Context, question, intendedAnswer, candidate string) (*quiz.Evaluation, error) {
	prompt := fmt.Sprintf(evaluatePromptTemplate, question, intendedAnswer, candidate)

	content, err := c.complete(ctx, prompt, evaluateTemperature)
	if err != nil {
		return nil, err
	}

	eval, err := parseEvaluationPayload(content)
	if err != nil {
		logger.Error("Unusable evaluation payload from OpenAI", "error", err)
		return nil, err
	}
	return eval, nil
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type questionPayload struct {
	Question             string `json:"question"`
	IntendedAnswer       string `json:"intended_answer"`
	DifficultyAssessment string `json:"difficulty_assessment"`
}

type evaluationPayload struct {
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
}

func parseQuestionPayload(content string) (*quiz.Question, error) {
	var payload questionPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("parse question payload: %w", err)
	}
	if payload.Question == "" || payload.IntendedAnswer == "" {
		return nil, fmt.Errorf("question payload missing required keys")
	}
	return &quiz.Question{
		Text:           payload.Question,
		IntendedAnswer: payload.IntendedAnswer,
		Difficulty:     quiz.ParseDifficulty(payload.DifficultyAssessment),
	}, nil
}

func parseEvaluationPayload(content string) (*quiz.Evaluation, error) {
	var payload evaluationPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("parse evaluation payload: %w", err)
	}
	if payload.Status == "" {
		return nil, fmt.Errorf("evaluation payload missing status")
	}
	// An unrecognized status is graded as Incorrect rather than failing the
	// attempt; ParseVerdict handles the mapping.
	return &quiz.Evaluation{
		Verdict:     quiz.ParseVerdict(payload.Status),
		Explanation: payload.Explanation,
	}, nil
}

// stripCodeFence removes a surrounding markdown code block, which some models
// wrap around JSON despite instructions.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
