package web

import (
	"encoding/json"
	"fmt"

	"github.com/blockedby/hiring-pipeline/internal/nats"
)

// WebSocket event types
const (
	EventStatusChanged      = "application.status_changed"
	EventInterviewScheduled = "interview.scheduled"
	EventInterviewCancelled = "interview.cancelled"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewEvent wraps a payload in an envelope.
func NewEvent(eventType string, payload interface{}) WSEvent {
	return WSEvent{Type: eventType, Payload: payload}
}

// EventTypeForSubject maps a NATS subject to the websocket event type.
func EventTypeForSubject(subject string) (string, bool) {
	switch subject {
	case nats.SubjectStatusChanged:
		return EventStatusChanged, true
	case nats.SubjectInterviewScheduled:
		return EventInterviewScheduled, true
	case nats.SubjectInterviewCancelled:
		return EventInterviewCancelled, true
	}
	return "", false
}

// RelayHandler returns a NATS handler that forwards pipeline events to the hub.
func RelayHandler(hub interface{ Broadcast(interface{}) }) func(subject string, data []byte) error {
	return func(subject string, data []byte) error {
		eventType, ok := EventTypeForSubject(subject)
		if !ok {
			return nil
		}
		if !json.Valid(data) {
			return fmt.Errorf("invalid event payload on %s", subject)
		}
		hub.Broadcast(NewEvent(eventType, json.RawMessage(data)))
		return nil
	}
}
