package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailure    JobStatus = "failure"
)

// AnalysisJob is one asynchronous interview analysis request.
type AnalysisJob struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Status       JobStatus `gorm:"not null;default:'queued';index" json:"status"`
	Payload      string    `gorm:"type:jsonb;not null" json:"-"`
	Result       *string   `gorm:"type:jsonb" json:"result,omitempty"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message,omitempty"`
	Attempts     int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
