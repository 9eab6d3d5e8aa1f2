package models

// AnalysisRequest is the body of the interview analysis endpoints.
type AnalysisRequest struct {
	ConversationHistory []Utterance `json:"conversation_history"`
	JobDescriptionText  string      `json:"job_description_text"`
}

type TriggerAnalysisResponse struct {
	TaskID string `json:"task_id"`
}

// Polled job states.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

type AnalysisStatusResponse struct {
	Status string           `json:"status"`
	Result *InterviewReport `json:"result,omitempty"`
	Error  *string          `json:"error,omitempty"`
}

type SignalsResponse struct {
	Analysis *StructuredAnalysis `json:"analysis"`
	Feedback []string            `json:"feedback"`
}
