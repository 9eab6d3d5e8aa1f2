package services

import (
	"fmt"
	"strings"
)

// Query templates for the feedback retriever.
const (
	intentQueryTemplate = "advice for a candidate who wants to %s"
	StressQuery         = "stress management in interview"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildEmotionPrompt asks for a distribution over labels for a single message.
func (pb *PromptBuilder) BuildEmotionPrompt(message string, labels []string) string {
	return fmt.Sprintf(`You are an emotion classifier for job interview transcripts.

Estimate how strongly the candidate message below expresses each of these emotions:
%s

CANDIDATE MESSAGE:
"""
%s
"""

Return ONLY a JSON array of objects {"label": "<emotion>", "score": <0-1>} covering every emotion above.
The scores should sum to 1.`,
		strings.Join(labels, ", "), strings.TrimSpace(message))
}

// BuildReportPrompt creates the prompt for the narrative interview debrief.
func (pb *PromptBuilder) BuildReportPrompt(analysisJSON, feedback string) string {
	if strings.TrimSpace(feedback) == "" {
		feedback = "No advisory material found."
	}

	return fmt.Sprintf(`You are an expert recruiter writing the debrief of a job interview.

STRUCTURED ANALYSIS (emotions and intents per candidate answer, semantic fit with the job description):
%s

ADVISORY MATERIAL FROM THE KNOWLEDGE BASE:
%s

Write a concise report (3-5 short paragraphs) that covers:
1. How well the candidate's answers match the job description, citing the similarity score
2. The emotional tone of the interview and any signs of stress
3. What the candidate was trying to convey (intents)
4. Concrete, actionable advice for the candidate, using the advisory material when relevant

Return ONLY the report text, no JSON. Be direct and constructive.`,
		analysisJSON, feedback)
}

// BuildIntentQuery creates the retrieval query for an intent label.
func (pb *PromptBuilder) BuildIntentQuery(label string) string {
	return fmt.Sprintf(intentQueryTemplate, label)
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	// An array wins when it opens before the first object.
	if startArr != -1 && endArr > startArr && (startObj == -1 || startArr < startObj) {
		return text[startArr : endArr+1]
	}
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return strings.TrimSpace(text)
}
