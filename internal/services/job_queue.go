package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/repositories"
)

// JobQueue submits interview analyses for background execution and reports
// their status.
type JobQueue interface {
	Submit(ctx context.Context, req *models.AnalysisRequest) (uuid.UUID, error)
	// GetStatus returns repositories.ErrJobNotFound for unknown ids.
	GetStatus(ctx context.Context, id uuid.UUID) (*models.AnalysisStatusResponse, error)
}

type Enqueuer interface {
	EnqueueJob(jobID uuid.UUID)
}

type jobQueue struct {
	jobRepo  repositories.AnalysisJobRepository
	enqueuer Enqueuer
}

func NewJobQueue(jobRepo repositories.AnalysisJobRepository, enqueuer Enqueuer) JobQueue {
	return &jobQueue{jobRepo: jobRepo, enqueuer: enqueuer}
}

// Submit implements JobQueue.
func (q *jobQueue) Submit(ctx context.Context, req *models.AnalysisRequest) (uuid.UUID, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode job payload: %w", err)
	}

	job := &models.AnalysisJob{
		ID:      uuid.New(),
		Status:  models.JobStatusQueued,
		Payload: string(payload),
	}
	if err := q.jobRepo.Create(ctx, job); err != nil {
		return uuid.Nil, err
	}

	q.enqueuer.EnqueueJob(job.ID)
	return job.ID, nil
}

// GetStatus implements JobQueue.
func (q *jobQueue) GetStatus(ctx context.Context, id uuid.UUID) (*models.AnalysisStatusResponse, error) {
	job, err := q.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case models.JobStatusSuccess:
		var report models.InterviewReport
		if job.Result != nil {
			if err := json.Unmarshal([]byte(*job.Result), &report); err != nil {
				return nil, fmt.Errorf("failed to decode job result: %w", err)
			}
		}
		return &models.AnalysisStatusResponse{Status: models.StatusSuccess, Result: &report}, nil
	case models.JobStatusFailure:
		msg := "analysis failed"
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		return &models.AnalysisStatusResponse{Status: models.StatusFailure, Error: &msg}, nil
	default:
		return &models.AnalysisStatusResponse{Status: models.StatusPending}, nil
	}
}
