// Package publisher emits pipeline events to NATS.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/models"
	"github.com/blockedby/hiring-pipeline/internal/nats"
)

// StatusChangedEvent is published after an application status is persisted.
type StatusChangedEvent struct {
	ApplicationID string                   `json:"application_id"`
	JobID         string                   `json:"job_id"`
	From          models.ApplicationStatus `json:"from"`
	To            models.ApplicationStatus `json:"to"`
	At            time.Time                `json:"at"`
}

// InterviewEvent is published when an interview is scheduled or cancelled.
type InterviewEvent struct {
	InterviewID   string                 `json:"interview_id"`
	JobID         string                 `json:"job_id"`
	ApplicantID   string                 `json:"applicant_id"`
	ApplicationID string                 `json:"application_id"`
	ScheduledAt   time.Time              `json:"scheduled_at"`
	Status        models.InterviewStatus `json:"status"`
	IsReschedule  bool                   `json:"is_reschedule"`
	MeetingLink   string                 `json:"meeting_link,omitempty"`
	At            time.Time              `json:"at"`
}

// InterviewEventFrom builds an event for iv.
func InterviewEventFrom(iv models.Interview, at time.Time) InterviewEvent {
	return InterviewEvent{
		InterviewID:   iv.ID,
		JobID:         iv.JobID,
		ApplicantID:   iv.ApplicantID,
		ApplicationID: iv.ApplicationID,
		ScheduledAt:   iv.ScheduledAt,
		Status:        iv.Status,
		IsReschedule:  iv.IsReschedule,
		MeetingLink:   iv.MeetingLink,
		At:            at,
	}
}

// EventPublisher is what the hiring service publishes through.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
	PublishInterviewScheduled(ctx context.Context, event InterviewEvent) error
	PublishInterviewCancelled(ctx context.Context, event InterviewEvent) error
}

// NATSClient interface to allow mocking; *nats.Client satisfies it.
type NATSClient interface {
	Publish(ctx context.Context, subject, msgID string, data any) error
}

// NATSPublisher publishes events into the PIPELINE stream.
type NATSPublisher struct {
	js NATSClient
}

// NewNATSPublisher creates a new publisher.
func NewNATSPublisher(js NATSClient) *NATSPublisher {
	return &NATSPublisher{js: js}
}

func (p *NATSPublisher) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	msgID := fmt.Sprintf("status.%s.%s.%d", event.ApplicationID, event.To, event.At.UnixNano())
	return p.js.Publish(ctx, nats.SubjectStatusChanged, msgID, event)
}

func (p *NATSPublisher) PublishInterviewScheduled(ctx context.Context, event InterviewEvent) error {
	msgID := fmt.Sprintf("interview.scheduled.%s.%d", event.InterviewID, event.At.UnixNano())
	return p.js.Publish(ctx, nats.SubjectInterviewScheduled, msgID, event)
}

func (p *NATSPublisher) PublishInterviewCancelled(ctx context.Context, event InterviewEvent) error {
	msgID := fmt.Sprintf("interview.cancelled.%s.%d", event.InterviewID, event.At.UnixNano())
	return p.js.Publish(ctx, nats.SubjectInterviewCancelled, msgID, event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishStatusChanged(context.Context, StatusChangedEvent) error { return nil }
func (Nop) PublishInterviewScheduled(context.Context, InterviewEvent) error {
	return nil
}
func (Nop) PublishInterviewCancelled(context.Context, InterviewEvent) error {
	return nil
}
