package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PipelineStats contains aggregated counts for the dashboard header.
type PipelineStats struct {
	TotalJobs               int `json:"total_jobs"`
	TotalApplications       int `json:"total_applications"`
	PendingApplications     int `json:"pending_applications"`
	InterviewedApplications int `json:"interviewed_applications"`
	HiredApplications       int `json:"hired_applications"`
	RejectedApplications    int `json:"rejected_applications"`
	ActiveInterviews        int `json:"active_interviews"`
}

// StatsRepository provides access to statistics data in the database.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats aggregates the pipeline, optionally restricted to one job.
func (r *StatsRepository) GetStats(ctx context.Context, jobID string) (*PipelineStats, error) {
	stats := &PipelineStats{}

	jobs := r.db.WithContext(ctx).Model(&jobRow{})
	if jobID != "" {
		jobs = jobs.Where("id = ?", jobID)
	}
	var total int64
	if err := jobs.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("get job stats: %w", err)
	}
	stats.TotalJobs = int(total)

	apps := r.db.WithContext(ctx).Model(&applicationRow{}).Select(`
		COUNT(*) AS total,
		COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
		COUNT(CASE WHEN status = 'interviewed' THEN 1 END) AS interviewed,
		COUNT(CASE WHEN status = 'hired' THEN 1 END) AS hired,
		COUNT(CASE WHEN status = 'rejected' THEN 1 END) AS rejected`)
	if jobID != "" {
		apps = apps.Where("job_id = ?", jobID)
	}
	var row struct {
		Total       int
		Pending     int
		Interviewed int
		Hired       int
		Rejected    int
	}
	if err := apps.Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("get application stats: %w", err)
	}
	stats.TotalApplications = row.Total
	stats.PendingApplications = row.Pending
	stats.InterviewedApplications = row.Interviewed
	stats.HiredApplications = row.Hired
	stats.RejectedApplications = row.Rejected

	ivs := r.db.WithContext(ctx).Model(&interviewRow{}).Where("status <> ?", "cancelled")
	if jobID != "" {
		ivs = ivs.Where("job_id = ?", jobID)
	}
	var active int64
	if err := ivs.Count(&active).Error; err != nil {
		return nil, fmt.Errorf("get interview stats: %w", err)
	}
	stats.ActiveInterviews = int(active)

	return stats, nil
}
