package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// InterviewsRepository handles interviews table operations.
type InterviewsRepository struct {
	db *gorm.DB
}

// NewInterviewsRepository creates a new interviews repository.
func NewInterviewsRepository(db *gorm.DB) *InterviewsRepository {
	return &InterviewsRepository{db: db}
}

// Transaction runs fn against a repository bound to one transaction.
func (r *InterviewsRepository) Transaction(ctx context.Context, fn func(tx *InterviewsRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&InterviewsRepository{db: tx})
	})
}

// ListByJob returns a job's interviews in creation order.
func (r *InterviewsRepository) ListByJob(ctx context.Context, jobID string) ([]models.Interview, error) {
	var rows []interviewRow
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	out := make([]models.Interview, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// GetByID returns an interview, or nil when it does not exist.
func (r *InterviewsRepository) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var row interviewRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}
	iv := row.toModel()
	return &iv, nil
}

// LatestForPair returns the pair's newest non-cancelled interview, falling
// back to the newest cancelled one. It returns nil when the pair has none.
func (r *InterviewsRepository) LatestForPair(ctx context.Context, jobID, applicantID string) (*models.Interview, error) {
	var rows []interviewRow
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find pair interviews: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	pick := rows[0]
	for _, row := range rows {
		if row.Status != string(models.InterviewCancelled) {
			pick = row
			break
		}
	}
	iv := pick.toModel()
	return &iv, nil
}

// Create inserts a new interview, assigning an id when missing.
func (r *InterviewsRepository) Create(ctx context.Context, iv *models.Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now

	row := interviewRowFrom(*iv)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// Upsert inserts the interview or overwrites the stored copy, keeping its timestamps.
func (r *InterviewsRepository) Upsert(ctx context.Context, iv models.Interview) error {
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	if iv.UpdatedAt.IsZero() {
		iv.UpdatedAt = iv.CreatedAt
	}
	row := interviewRowFrom(iv)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert interview %s: %w", iv.ID, err)
	}
	return nil
}

// Save overwrites an existing interview.
func (r *InterviewsRepository) Save(ctx context.Context, iv *models.Interview) error {
	iv.UpdatedAt = time.Now().UTC()
	row := interviewRowFrom(*iv)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save interview %s: %w", iv.ID, err)
	}
	return nil
}

// SetStatus changes an interview's status and reports whether it exists.
func (r *InterviewsRepository) SetStatus(ctx context.Context, id string, status models.InterviewStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&interviewRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("set interview status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
