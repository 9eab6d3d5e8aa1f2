package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Utterance is one turn of the interview conversation.
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LabelScore is one entry of a classifier's score distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// IntentResult is the zero-shot classification of a single user utterance.
// Labels and Scores hold the full ranking, highest first; Label/Score repeat the winner.
type IntentResult struct {
	Sequence string    `json:"sequence"`
	Label    string    `json:"label"`
	Score    float64   `json:"score"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// StructuredAnalysis is the fused output of the signal analyzer.
type StructuredAnalysis struct {
	OverallSimilarityScore float64        `json:"overall_similarity_score"`
	SentimentAnalysis      [][]LabelScore `json:"sentiment_analysis"`
	IntentAnalysis         []IntentResult `json:"intent_analysis"`
	RawTranscript          []Utterance    `json:"raw_transcript"`
}

// KnowledgeDocument is a raw knowledge-base file before chunking.
type KnowledgeDocument struct {
	Source string
	Text   string
}

// KnowledgeChunk is a retrieval unit of the feedback index.
type KnowledgeChunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Source    string    `json:"source"`
}

// InterviewReport is the result of a full interview analysis run.
type InterviewReport struct {
	Analysis *StructuredAnalysis `json:"analysis"`
	Feedback []string            `json:"feedback"`
	Report   string              `json:"report,omitempty"`
}

// UserMessages returns the contents of user-authored turns in conversation order.
func UserMessages(history []Utterance) []string {
	messages := make([]string, 0, len(history))
	for _, u := range history {
		if u.Role == RoleUser {
			messages = append(messages, u.Content)
		}
	}
	return messages
}
