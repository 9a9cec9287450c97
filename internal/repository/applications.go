package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/models"
)

// ApplicationsRepository handles applications table operations.
type ApplicationsRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewApplicationsRepository creates a new applications repository.
func NewApplicationsRepository(db *gorm.DB, log *logger.Logger) *ApplicationsRepository {
	return &ApplicationsRepository{
		db:  db,
		log: logger.OrGlobal(log),
	}
}

// Upsert inserts the application or overwrites the stored copy.
func (r *ApplicationsRepository) Upsert(ctx context.Context, app models.Application) error {
	row := applicationRowFrom(app)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert application %s: %w", app.ID, err)
	}
	return nil
}

// List returns the applications of one job, or of every job when jobID is empty.
func (r *ApplicationsRepository) List(ctx context.Context, jobID string) ([]models.Application, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if jobID != "" {
		q = q.Where("job_id = ?", jobID)
	}

	var rows []applicationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	apps := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.toModel())
	}
	return apps, nil
}

// GetByID returns an application, or nil when it does not exist.
func (r *ApplicationsRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var row applicationRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	app := row.toModel()
	return &app, nil
}

// UpdateStatus sets the status and reports whether the application exists.
func (r *ApplicationsRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&applicationRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("update application status: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		r.log.Info().
			Str("id", id).
			Str("status", string(status)).
			Msg("updated application status")
	}
	return res.RowsAffected > 0, nil
}
