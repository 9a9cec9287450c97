package web

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/hiring-pipeline/internal/nats"
)

type recordingHub struct {
	messages []interface{}
}

func (h *recordingHub) Broadcast(m interface{}) {
	h.messages = append(h.messages, m)
}

func TestEventTypeForSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
		ok      bool
	}{
		{nats.SubjectStatusChanged, EventStatusChanged, true},
		{nats.SubjectInterviewScheduled, EventInterviewScheduled, true},
		{nats.SubjectInterviewCancelled, EventInterviewCancelled, true},
		{"pipeline.unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got, ok := EventTypeForSubject(tt.subject)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelayHandler_ForwardsKnownSubjects(t *testing.T) {
	hub := &recordingHub{}
	relay := RelayHandler(hub)

	require.NoError(t, relay(nats.SubjectStatusChanged, []byte(`{"application_id":"app-1","to":"shortlisted"}`)))
	require.Len(t, hub.messages, 1)

	ev, ok := hub.messages[0].(WSEvent)
	require.True(t, ok)
	assert.Equal(t, EventStatusChanged, ev.Type)

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"application.status_changed","payload":{"application_id":"app-1","to":"shortlisted"}}`, string(out))
}

func TestRelayHandler_IgnoresUnknownSubject(t *testing.T) {
	hub := &recordingHub{}
	require.NoError(t, RelayHandler(hub)("pipeline.other", []byte(`{}`)))
	assert.Empty(t, hub.messages)
}

func TestRelayHandler_RejectsInvalidJSON(t *testing.T) {
	hub := &recordingHub{}
	assert.Error(t, RelayHandler(hub)(nats.SubjectInterviewCancelled, []byte("{")))
	assert.Empty(t, hub.messages)
}
