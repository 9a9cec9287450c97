package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	c := &Client{hub: hub, send: make(chan []byte, 8)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(200 * time.Millisecond):
		t.Fatal("client did not receive message")
		return nil
	}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	first := newTestClient(hub)
	second := newTestClient(hub)

	hub.Broadcast(NewEvent(EventInterviewScheduled, map[string]string{"interview_id": "iv-1"}))

	for _, c := range []*Client{first, second} {
		var ev WSEvent
		require.NoError(t, json.Unmarshal(receive(t, c), &ev))
		assert.Equal(t, EventInterviewScheduled, ev.Type)
	}
}

func TestHub_RawBytesPassThrough(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub)
	hub.Broadcast([]byte("raw"))

	assert.Equal(t, []byte("raw"), receive(t, c))
}

func TestHub_UnregisteredClientIsClosed(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	gone := newTestClient(hub)
	stays := newTestClient(hub)

	hub.unregister <- gone
	hub.Broadcast([]byte("after"))

	select {
	case msg, ok := <-gone.send:
		assert.False(t, ok, "unregistered client received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, []byte("after"), receive(t, stays))
}

func TestHub_StopClosesClientsAndUnblocksBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub)
	hub.Stop()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		// fill the buffer so the only way out is the done channel
		for range sendBuffer + 1 {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}
