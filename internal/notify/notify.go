// Package notify delivers short-lived status messages about pipeline operations.
package notify

import (
	"sync"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/logger"
)

// Level is the severity of a status message.
type Level string

// Level constants.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a transient, auto-expiring status message.
type Message struct {
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	Operation string    `json:"operation"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier receives status messages.
type Notifier interface {
	Notify(msg Message)
}

// Nop discards messages.
type Nop struct{}

func (Nop) Notify(Message) {}

// Board keeps the most recent message until it expires.
type Board struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	cur *Message
}

// NewBoard creates a board whose messages live for ttl.
func NewBoard(ttl time.Duration) *Board {
	return &Board{ttl: ttl, now: time.Now}
}

// Notify replaces the current message and stamps its expiry.
func (b *Board) Notify(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg.ExpiresAt = b.now().Add(b.ttl)
	b.cur = &msg
}

// Current returns the live message, if any.
func (b *Board) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cur == nil {
		return Message{}, false
	}
	if !b.now().Before(b.cur.ExpiresAt) {
		b.cur = nil
		return Message{}, false
	}
	return *b.cur, true
}

// LogNotifier writes messages to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier backed by log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrGlobal(log)}
}

func (n *LogNotifier) Notify(msg Message) {
	evt := n.log.Info()
	if msg.Level == LevelError {
		evt = n.log.Warn()
	}
	evt.Str("operation", msg.Operation).
		Str("level", string(msg.Level)).
		Msg(msg.Text)
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(msg Message) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}

// Success builds a success message.
func Success(op, text string) Message {
	return Message{Level: LevelSuccess, Operation: op, Text: text}
}

// Failure builds an error message.
func Failure(op, text string) Message {
	return Message{Level: LevelError, Operation: op, Text: text}
}

// Clipboard is a sink for text the user may want to paste, such as meeting links.
type Clipboard interface {
	Copy(text string) error
}

// MemoryClipboard holds the last copied text.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) Copy(text string) error {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	return nil
}

// Text returns the last copied text.
func (c *MemoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
