package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by every call of a client built without a key.
var ErrMissingAPIKey = errors.New("API key is missing from environment variables")

type unavailableClient struct {
	err error
}

// NewUnavailableClient returns a client whose calls all fail with err. It lets
// the application start without credentials and fail on first use instead.
func NewUnavailableClient(err error) Client {
	return unavailableClient{err: err}
}

func (u unavailableClient) GenerateStructured(context.Context, StructuredRequest) (ContentResponse, error) {
	return ContentResponse{}, u.err
}

func (u unavailableClient) StartChat(string) ChatSession {
	return unavailableChat(u)
}

func (u unavailableClient) Close() error { return nil }

type unavailableChat struct {
	err error
}

func (u unavailableChat) SendMessage(context.Context, string) (ContentResponse, error) {
	return ContentResponse{}, u.err
}
