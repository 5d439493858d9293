package llm

import (
	"strings"
	"testing"

	"contentpilot/api/models"
)

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name    string
		content string
		keyword string
		want    string
	}{
		{
			name:    "h1 on first line",
			content: "# How to Brew Coffee\n\nIntro paragraph.",
			keyword: "how to brew coffee",
			want:    "How to Brew Coffee",
		},
		{
			name:    "h1 after blank lines",
			content: "\n\n# Espresso Basics\n\nBody.",
			keyword: "espresso",
			want:    "Espresso Basics",
		},
		{
			name:    "no heading falls back to keyword",
			content: "Just a paragraph without a heading.",
			keyword: "cold brew guide",
			want:    "Cold Brew Guide",
		},
		{
			name:    "empty content falls back to keyword",
			content: "",
			keyword: "pour over",
			want:    "Pour Over",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractTitle(tc.content, tc.keyword); got != tc.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	if got := CountWords("one two  three\nfour"); got != 4 {
		t.Errorf("CountWords = %d, want 4", got)
	}
	if got := CountWords(""); got != 0 {
		t.Errorf("CountWords on empty = %d, want 0", got)
	}
}

func TestBuildUserPrompt_Defaults(t *testing.T) {
	prompt := buildUserPrompt(models.GenerateRequest{Keyword: "garden sheds"})
	if !strings.Contains(prompt, `"garden sheds"`) {
		t.Errorf("prompt missing keyword: %q", prompt)
	}
	if !strings.Contains(prompt, "informative") {
		t.Errorf("expected default tone, got %q", prompt)
	}
	if !strings.Contains(prompt, "1200") {
		t.Errorf("expected default length, got %q", prompt)
	}
}

func TestBuildUserPrompt_Overrides(t *testing.T) {
	prompt := buildUserPrompt(models.GenerateRequest{Keyword: "k", Tone: "playful", Length: 600})
	if !strings.Contains(prompt, "playful") || !strings.Contains(prompt, "600") {
		t.Errorf("overrides not applied: %q", prompt)
	}
}
