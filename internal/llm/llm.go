package llm

import (
	"context"
	"errors"

	"fitlife-ai/internal/shared"
)

// ErrNoContent is returned when the model answers without any text.
var ErrNoContent = errors.New("no content generated")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// StructuredRequest asks for a single response conforming to Schema.
type StructuredRequest struct {
	Prompt      string
	Schema      *Schema
	MIMEType    string
	Temperature float32
}

// StructuredGenerator produces one structured (JSON) response per call.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, req StructuredRequest) (ContentResponse, error)
}

// ChatSession is a stateful conversation whose context accumulates on every
// SendMessage. Implementations need not be safe for concurrent use.
type ChatSession interface {
	SendMessage(ctx context.Context, text string) (ContentResponse, error)
}

// ChatStarter opens conversations bound to a system instruction. StartChat
// performs no network I/O.
type ChatStarter interface {
	StartChat(systemInstruction string) ChatSession
}

// Client is everything the application needs from a model vendor.
type Client interface {
	StructuredGenerator
	ChatStarter
	Close() error
}
