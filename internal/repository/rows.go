package repository

import (
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
)

// jobRow is the jobs table.
type jobRow struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	CompanyID   string
	CompanyName string
	Location    string
	SalaryMin   *int
	SalaryMax   *int
	CreatedAt   time.Time
}

func (jobRow) TableName() string { return "jobs" }

func (r jobRow) toModel() models.Job {
	return models.Job{
		ID:          r.ID,
		Title:       r.Title,
		CompanyID:   r.CompanyID,
		CompanyName: r.CompanyName,
		Location:    r.Location,
		SalaryMin:   r.SalaryMin,
		SalaryMax:   r.SalaryMax,
		CreatedAt:   r.CreatedAt,
	}
}

func jobRowFrom(j models.Job) jobRow {
	return jobRow{
		ID:          j.ID,
		Title:       j.Title,
		CompanyID:   j.CompanyID,
		CompanyName: j.CompanyName,
		Location:    j.Location,
		SalaryMin:   j.SalaryMin,
		SalaryMax:   j.SalaryMax,
		CreatedAt:   j.CreatedAt,
	}
}

// applicationRow is the applications table. Applicant fields are denormalized.
type applicationRow struct {
	ID                string   `gorm:"primaryKey"`
	JobID             string   `gorm:"index;not null"`
	ApplicantID       string   `gorm:"not null"`
	ApplicantName     string
	ApplicantEmail    string
	ApplicantPhone    string
	ApplicantTitle    string
	ApplicantLocation string
	Skills            []string `gorm:"type:text;serializer:json"`
	ResumeURL         string
	CoverLetter       string
	Status            string `gorm:"not null;default:pending"`
	AppliedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time `gorm:"autoUpdateTime:false"`
}

func (applicationRow) TableName() string { return "applications" }

func (r applicationRow) toModel() models.Application {
	return models.Application{
		ID:    r.ID,
		JobID: r.JobID,
		Applicant: models.Applicant{
			ID:        r.ApplicantID,
			Name:      r.ApplicantName,
			Email:     r.ApplicantEmail,
			Phone:     r.ApplicantPhone,
			Title:     r.ApplicantTitle,
			Location:  r.ApplicantLocation,
			Skills:    models.Skills(r.Skills),
			ResumeURL: r.ResumeURL,
		},
		CoverLetter: r.CoverLetter,
		Status:      models.ApplicationStatus(r.Status),
		AppliedAt:   r.AppliedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func applicationRowFrom(a models.Application) applicationRow {
	status := a.Status
	if status == "" {
		status = models.ApplicationPending
	}
	return applicationRow{
		ID:                a.ID,
		JobID:             a.EffectiveJobID(),
		ApplicantID:       a.Applicant.ID,
		ApplicantName:     a.Applicant.Name,
		ApplicantEmail:    a.Applicant.Email,
		ApplicantPhone:    a.Applicant.Phone,
		ApplicantTitle:    a.Applicant.Title,
		ApplicantLocation: a.Applicant.Location,
		Skills:            []string(a.Applicant.Skills.Normalized()),
		ResumeURL:         a.Applicant.ResumeURL,
		CoverLetter:       a.CoverLetter,
		Status:            string(status),
		AppliedAt:         a.AppliedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// interviewRow is the interviews table.
type interviewRow struct {
	ID            string `gorm:"primaryKey"`
	JobID         string `gorm:"index;not null"`
	ApplicantID   string `gorm:"not null"`
	ApplicationID string `gorm:"not null"`
	ScheduledAt   time.Time
	Notes         string `gorm:"size:500"`
	Status        string `gorm:"not null;default:scheduled"`
	IsReschedule  bool
	MeetingLink   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (interviewRow) TableName() string { return "interviews" }

func (r interviewRow) toModel() models.Interview {
	return models.Interview{
		ID:            r.ID,
		JobID:         r.JobID,
		ApplicantID:   r.ApplicantID,
		ApplicationID: r.ApplicationID,
		ScheduledAt:   r.ScheduledAt.UTC(),
		Notes:         r.Notes,
		Status:        models.InterviewStatus(r.Status),
		IsReschedule:  r.IsReschedule,
		MeetingLink:   r.MeetingLink,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func interviewRowFrom(iv models.Interview) interviewRow {
	return interviewRow{
		ID:            iv.ID,
		JobID:         iv.JobID,
		ApplicantID:   iv.ApplicantID,
		ApplicationID: iv.ApplicationID,
		ScheduledAt:   iv.ScheduledAt,
		Notes:         iv.Notes,
		Status:        string(iv.Status),
		IsReschedule:  iv.IsReschedule,
		MeetingLink:   iv.MeetingLink,
		CreatedAt:     iv.CreatedAt,
		UpdatedAt:     iv.UpdatedAt,
	}
}
