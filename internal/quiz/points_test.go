package quiz

import "testing"

func TestPointsFor(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		verdict    Verdict
		want       float64
	}{
		{DifficultyBasic, VerdictCorrect, 1},
		{DifficultyIntermediate, VerdictCorrect, 2},
		{DifficultyAdvanced, VerdictCorrect, 5},
		{DifficultyBasic, VerdictPartial, 0.5},
		{DifficultyIntermediate, VerdictPartial, 1},
		{DifficultyAdvanced, VerdictPartial, 2.5},
		{DifficultyBasic, VerdictIncorrect, -2},
		{DifficultyIntermediate, VerdictIncorrect, -2},
		{DifficultyAdvanced, VerdictIncorrect, -2},
	}

	for _, tt := range tests {
		got := PointsFor(tt.difficulty, tt.verdict)
		if got != tt.want {
			t.Errorf("PointsFor(%s, %s) = %v, want %v", tt.difficulty, tt.verdict, got, tt.want)
		}
	}
}

func TestPointsFor_UnknownDifficultyFallsBackToIntermediate(t *testing.T) {
	if got := PointsFor(Difficulty("expert"), VerdictCorrect); got != 2 {
		t.Errorf("PointsFor(expert, Correct) = %v, want 2", got)
	}
	if got := PointsFor(Difficulty("expert"), VerdictIncorrect); got != -2 {
		t.Errorf("PointsFor(expert, Incorrect) = %v, want -2", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"basic knowledge", DifficultyBasic},
		{"Basic", DifficultyBasic},
		{"intermediate knowledge", DifficultyIntermediate},
		{"advanced", DifficultyAdvanced},
		{"Advanced Knowledge", DifficultyAdvanced},
		{"expert", DifficultyIntermediate},
		{"", DifficultyIntermediate},
	}

	for _, tt := range tests {
		if got := ParseDifficulty(tt.in); got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want Verdict
	}{
		{"Correct", VerdictCorrect},
		{"correct", VerdictCorrect},
		{" Partially correct ", VerdictPartial},
		{"Incorrect", VerdictIncorrect},
		{"gibberish", VerdictIncorrect},
		{"", VerdictIncorrect},
	}

	for _, tt := range tests {
		if got := ParseVerdict(tt.in); got != tt.want {
			t.Errorf("ParseVerdict(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
