// Package chat holds the advisor conversation: a session bound to the
// user's profile and the transcript rendered by the chat widget.
package chat

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/locale"
	"fitlife-ai/internal/profile"
	"fitlife-ai/internal/shared"
)

//go:embed system_instruction.md
var systemInstruction string

var systemTemplate = template.Must(template.New("system").Parse(systemInstruction))

const agentName = "Chat"

type systemData struct {
	Age    int
	Gender string
	Height string
	Weight string
	Goal   string
}

// SystemInstruction renders the advisor persona for p.
func SystemInstruction(p profile.Profile) string {
	var buf bytes.Buffer
	// The template only reads plain fields; Execute cannot fail on it.
	_ = systemTemplate.Execute(&buf, systemData{
		Age:    p.Age,
		Gender: p.Gender.Label(),
		Height: profile.FormatMeasure(p.HeightCM),
		Weight: profile.FormatMeasure(p.WeightKG),
		Goal:   p.Goal,
	})
	return strings.TrimSpace(buf.String())
}

// ChatError is returned when a message could not be exchanged.
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat message failed: %v", e.Err)
}

func (e *ChatError) Unwrap() error { return e.Err }

// Session is a conversation whose remote context accumulates every exchange.
// Sends are serialized so the context is never mutated out of order.
type Session struct {
	mu     sync.Mutex
	remote llm.ChatSession
}

// NewSession binds a new conversation to p. It performs no network I/O.
func NewSession(starter llm.ChatStarter, p profile.Profile) *Session {
	return &Session{remote: starter.StartChat(SystemInstruction(p))}
}

// Send delivers text and returns the advisor's reply. An empty reply is
// replaced by a short placeholder asking the user to repeat.
func (s *Session) Send(ctx context.Context, text string) (string, shared.AgentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	resp, err := s.remote.SendMessage(ctx, text)
	meta := shared.AgentMeta{
		AgentName: agentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return "", meta, &ChatError{Err: err}
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		reply = locale.Default().ChatEmptyReply
	}
	return reply, meta, nil
}
