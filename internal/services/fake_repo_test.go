package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/interview-analyzer/internal/models"
	"alfredoptarigan/interview-analyzer/internal/repositories"
)

// memoryJobRepo is an in-memory AnalysisJobRepository.
type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.AnalysisJob
	err  error
	// findErr and resultErr fail only FindByID and UpdateResult.
	findErr   error
	resultErr error
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: map[uuid.UUID]*models.AnalysisJob{}}
}

func (m *memoryJobRepo) Create(ctx context.Context, job *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memoryJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	job, ok := m.jobs[id]
	if !ok {
		return nil, repositories.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *memoryJobRepo) ClaimJob(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != models.JobStatusQueued {
		return false, nil
	}
	job.Status = models.JobStatusProcessing
	job.Attempts++
	return true, nil
}

func (m *memoryJobRepo) UpdateResult(ctx context.Context, id uuid.UUID, result string) error {
	m.mu.Lock()
	resultErr := m.resultErr
	m.mu.Unlock()
	if resultErr != nil {
		return resultErr
	}
	return m.finish(id, models.JobStatusSuccess, &result, nil)
}

func (m *memoryJobRepo) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return m.finish(id, models.JobStatusFailure, nil, &errorMsg)
}

func (m *memoryJobRepo) finish(id uuid.UUID, status models.JobStatus, result, errorMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return repositories.ErrJobNotFound
	}
	job.Status = status
	job.Result = result
	job.ErrorMessage = errorMsg
	return nil
}

func (m *memoryJobRepo) FindPendingJobs(ctx context.Context, limit int, olderThan time.Duration) ([]models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalysisJob
	for _, job := range m.jobs {
		if job.Status == models.JobStatusQueued && len(out) < limit {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memoryJobRepo) status(id uuid.UUID) models.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}
