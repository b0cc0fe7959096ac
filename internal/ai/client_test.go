package ai

import (
	"testing"

	"github.com/quizzerbot/quiz_bot/internal/quiz"
)

func TestParseQuestionPayload(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantErr        bool
		wantText       string
		wantAnswer     string
		wantDifficulty quiz.Difficulty
	}{
		{
			name:           "plain json",
			content:        `{"question": "What is the smallest unit of Bitcoin called?", "intended_answer": "satoshi", "difficulty_assessment": "basic knowledge"}`,
			wantText:       "What is the smallest unit of Bitcoin called?",
			wantAnswer:     "satoshi",
			wantDifficulty: quiz.DifficultyBasic,
		},
		{
			name: "json fenced in markdown",
			content: "```json\n" +
				`{"question": "Which BIP introduced taproot?", "intended_answer": "BIP 341", "difficulty_assessment": "advanced"}` +
				"\n```",
			wantText:       "Which BIP introduced taproot?",
			wantAnswer:     "BIP 341",
			wantDifficulty: quiz.DifficultyAdvanced,
		},
		{
			name: "bare fence without language tag",
			content: "```\n" +
				`{"question": "Q", "intended_answer": "A", "difficulty_assessment": "intermediate knowledge"}` +
				"\n```",
			wantText:       "Q",
			wantAnswer:     "A",
			wantDifficulty: quiz.DifficultyIntermediate,
		},
		{
			name:           "unknown difficulty assessment falls back to intermediate",
			content:        `{"question": "Q", "intended_answer": "A", "difficulty_assessment": "tricky"}`,
			wantText:       "Q",
			wantAnswer:     "A",
			wantDifficulty: quiz.DifficultyIntermediate,
		},
		{
			name:    "missing intended answer",
			content: `{"question": "Q", "difficulty_assessment": "basic"}`,
			wantErr: true,
		},
		{
			name:    "prose instead of json",
			content: "Sure! Here is a question about Bitcoin: ...",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := parseQuestionPayload(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuestionPayload() error = %v", err)
			}
			if q.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", q.Text, tt.wantText)
			}
			if q.IntendedAnswer != tt.wantAnswer {
				t.Errorf("IntendedAnswer = %q, want %q", q.IntendedAnswer, tt.wantAnswer)
			}
			if q.Difficulty != tt.wantDifficulty {
				t.Errorf("Difficulty = %s, want %s", q.Difficulty, tt.wantDifficulty)
			}
		})
	}
}

func TestParseEvaluationPayload(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErr     bool
		wantVerdict quiz.Verdict
		wantExplain string
	}{
		{
			name:        "correct",
			content:     `{"status": "Correct", "explanation": "User's answer is correct."}`,
			wantVerdict: quiz.VerdictCorrect,
			wantExplain: "User's answer is correct.",
		},
		{
			name:        "partially correct",
			content:     `{"status": "Partially correct", "explanation": "Missed Proof-of-Stake."}`,
			wantVerdict: quiz.VerdictPartial,
			wantExplain: "Missed Proof-of-Stake.",
		},
		{
			name:        "null explanation",
			content:     `{"status": "Incorrect", "explanation": null}`,
			wantVerdict: quiz.VerdictIncorrect,
		},
		{
			name:        "unrecognized status grades as incorrect",
			content:     `{"status": "Mostly right", "explanation": ""}`,
			wantVerdict: quiz.VerdictIncorrect,
		},
		{
			name: "fenced",
			content: "```json\n" +
				`{"status": "Correct", "explanation": null}` +
				"\n```",
			wantVerdict: quiz.VerdictCorrect,
		},
		{
			name:    "missing status",
			content: `{"explanation": "no status here"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "The answer is correct!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := parseEvaluationPayload(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEvaluationPayload() error = %v", err)
			}
			if eval.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %s, want %s", eval.Verdict, tt.wantVerdict)
			}
			if eval.Explanation != tt.wantExplain {
				t.Errorf("Explanation = %q, want %q", eval.Explanation, tt.wantExplain)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
