package models

import (
	"fmt"
	"strings"
	"time"
)

// InterviewStatus represents the lifecycle state of an interview record.
type InterviewStatus string

// InterviewStatus constants define the possible states of an interview.
const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// MaxInterviewNotes bounds the notes field, counted in characters.
const MaxInterviewNotes = 500

// ParseInterviewStatus parses a status case-insensitively.
func ParseInterviewStatus(s string) (InterviewStatus, error) {
	switch st := InterviewStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown interview status: %q", s)
}

// Interview is a meeting tied to exactly one (job, applicant) pair.
type Interview struct {
	ID            string `json:"id" yaml:"id"`
	JobID         string `json:"job_id" yaml:"job_id"`
	ApplicantID   string `json:"applicant_id" yaml:"applicant_id"`
	ApplicationID string `json:"application_id" yaml:"application_id"`

	ScheduledAt  time.Time       `json:"scheduled_at" yaml:"scheduled_at"`
	Notes        string          `json:"notes,omitempty" yaml:"notes"`
	Status       InterviewStatus `json:"status" yaml:"status"`
	IsReschedule bool            `json:"is_reschedule,omitempty" yaml:"is_reschedule"`
	MeetingLink  string          `json:"meeting_link,omitempty" yaml:"meeting_link"`

	// timestamps
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsActive reports whether the interview still counts against the pair invariant.
func (i Interview) IsActive() bool {
	return i.Status != InterviewCancelled
}
