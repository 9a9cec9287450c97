// Package repository persists jobs, applications and interviews with GORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// JobsRepository handles jobs table operations.
type JobsRepository struct {
	db *gorm.DB
}

// NewJobsRepository creates a new jobs repository.
func NewJobsRepository(db *gorm.DB) *JobsRepository {
	return &JobsRepository{db: db}
}

// Upsert inserts the job or overwrites the stored copy.
func (r *JobsRepository) Upsert(ctx context.Context, job models.Job) error {
	row := jobRowFrom(job)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	return nil
}

// List returns every job with its application count, oldest first.
func (r *JobsRepository) List(ctx context.Context) ([]models.Job, error) {
	var rows []jobRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var counts []struct {
		JobID string
		N     int
	}
	err := r.db.WithContext(ctx).
		Model(&applicationRow{}).
		Select("job_id, COUNT(*) AS n").
		Group("job_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	byJob := make(map[string]int, len(counts))
	for _, c := range counts {
		byJob[c.JobID] = c.N
	}

	jobs := make([]models.Job, 0, len(rows))
	for _, row := range rows {
		j := row.toModel()
		j.ApplicationCount = byJob[j.ID]
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// GetByID returns a job, or nil when it does not exist.
func (r *JobsRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	var row jobRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	j := row.toModel()
	return &j, nil
}
