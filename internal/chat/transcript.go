package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fitlife-ai/internal/locale"
	"fitlife-ai/internal/shared"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrNoSession    = errors.New("no chat session")
	ErrSendInFlight = errors.New("a message is already being answered")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered, append-only message list of the chat widget.
// It is safe for concurrent use.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	typing   bool
}

// NewTranscript returns a transcript holding only the greeting.
func NewTranscript() *Transcript {
	return &Transcript{
		messages: []Message{{Role: RoleModel, Text: locale.Default().ChatGreeting}},
	}
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Typing reports whether a reply is outstanding.
func (t *Transcript) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

// Send appends the trimmed input, waits for the session's reply and appends
// exactly one model message: the reply, or an apology when the exchange
// failed. That model message is returned. Whitespace-only input and a
// missing session are no-ops. A send while another is outstanding is rejected.
func (t *Transcript) Send(ctx context.Context, s *Session, input string) (string, shared.AgentMeta, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", shared.AgentMeta{}, ErrEmptyMessage
	}
	if s == nil {
		return "", shared.AgentMeta{}, ErrNoSession
	}

	t.mu.Lock()
	if t.typing {
		t.mu.Unlock()
		return "", shared.AgentMeta{}, ErrSendInFlight
	}
	t.messages = append(t.messages, Message{Role: RoleUser, Text: text})
	t.typing = true
	t.mu.Unlock()

	reply, meta, err := s.Send(ctx, text)
	if err != nil {
		reply = locale.Default().ChatFailed
	}

	t.mu.Lock()
	t.messages = append(t.messages, Message{Role: RoleModel, Text: reply})
	t.typing = false
	t.mu.Unlock()

	return reply, meta, err
}
