package security

import (
	"strings"
	"testing"
)

func TestSanitizeAnswer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain answer",
			input:    "Proof-of-Stake",
			expected: "Proof-of-Stake",
		},
		{
			name:     "surrounding whitespace",
			input:    "  satoshi  ",
			expected: "satoshi",
		},
		{
			name:     "html stripped",
			input:    "<b>satoshi</b>",
			expected: "satoshi",
		},
		{
			name:     "script stripped",
			input:    `<script>alert("x")</script>satoshi`,
			expected: "satoshi",
		},
		{
			name:     "null bytes removed",
			input:    "sat\x00oshi",
			expected: "satoshi",
		},
		{
			name:     "long answer truncated",
			input:    strings.Repeat("a", 600),
			expected: strings.Repeat("a", 500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeAnswer(tt.input); got != tt.expected {
				t.Errorf("SanitizeAnswer(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	if got := SanitizeDisplayName("<i>alice</i>"); got != "alice" {
		t.Errorf("SanitizeDisplayName() = %q, want %q", got, "alice")
	}
	if got := SanitizeDisplayName("<script></script>"); got != "player" {
		t.Errorf("SanitizeDisplayName() on empty result = %q, want %q", got, "player")
	}
}
