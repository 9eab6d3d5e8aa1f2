package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare object", in: `{"a": 1}`, want: `{"a": 1}`},
		{name: "fenced array", in: "```json\n[[{\"label\": \"joy\"}]]\n```", want: `[[{"label": "joy"}]]`},
		{name: "prose around object", in: `Here you go: {"a": [1]} hope it helps`, want: `{"a": [1]}`},
		{name: "object before array", in: `{"items": [1, 2]}`, want: `{"items": [1, 2]}`},
		{name: "no json", in: "  nothing here  ", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestBuildEmotionPrompt(t *testing.T) {
	prompt := NewPromptBuilder().BuildEmotionPrompt(" first line\n2. still the same answer ", []string{"joy", "stress"})

	assert.Contains(t, prompt, "\"\"\"\nfirst line\n2. still the same answer\n\"\"\"")
	assert.Contains(t, prompt, "joy, stress")
}

func TestBuildIntentQuery(t *testing.T) {
	assert.Equal(t,
		"advice for a candidate who wants to asks a question",
		NewPromptBuilder().BuildIntentQuery("asks a question"))
}
