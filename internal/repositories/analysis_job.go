package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/interview-analyzer/internal/models"
)

var ErrJobNotFound = errors.New("analysis job not found")

type AnalysisJobRepository interface {
	Create(ctx context.Context, job *models.AnalysisJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	// ClaimJob moves a queued job to processing and counts the attempt.
	// It reports false when another worker got there first.
	ClaimJob(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateResult(ctx context.Context, id uuid.UUID, result string) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	// FindPendingJobs returns queued jobs untouched for at least olderThan, oldest first.
	FindPendingJobs(ctx context.Context, limit int, olderThan time.Duration) ([]models.AnalysisJob, error)
}

type analysisJobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalysisJobRepository(db *gorm.DB) AnalysisJobRepository {
	return &analysisJobRepository{db: db, now: time.Now}
}

// Create implements AnalysisJobRepository.
func (r *analysisJobRepository) Create(ctx context.Context, job *models.AnalysisJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create analysis job: %w", err)
	}
	return nil
}

// FindByID implements AnalysisJobRepository.
func (r *analysisJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find analysis job: %w", err)
	}
	return &job, nil
}

// ClaimJob implements AnalysisJobRepository.
func (r *analysisJobRepository) ClaimJob(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.AnalysisJob{}).
		Where("id = ? AND status = ?", id, models.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": r.now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis job: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// UpdateResult implements AnalysisJobRepository.
func (r *analysisJobRepository) UpdateResult(ctx context.Context, id uuid.UUID, resultJSON string) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":     models.JobStatusSuccess,
		"result":     resultJSON,
		"updated_at": r.now(),
	})
}

// UpdateError implements AnalysisJobRepository.
func (r *analysisJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.finish(ctx, id, map[string]interface{}{
		"status":        models.JobStatusFailure,
		"error_message": errorMsg,
		"updated_at":    r.now(),
	})
}

func (r *analysisJobRepository) finish(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.AnalysisJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// FindPendingJobs implements AnalysisJobRepository.
func (r *analysisJobRepository) FindPendingJobs(ctx context.Context, limit int, olderThan time.Duration) ([]models.AnalysisJob, error) {
	var jobs []models.AnalysisJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at <= ?", models.JobStatusQueued, r.now().Add(-olderThan)).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}
