package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fitlife-ai/internal/shared"
)

const groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"

// groqClient is a client for the Groq API (OpenAI-compatible chat completions).
type groqClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewGroqClient creates a new Groq API client.
func NewGroqClient(apiKey, model string) Client {
	return &groqClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: groqAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateStructured asks for a JSON object. Groq's JSON mode has no schema
// parameter, so the schema is appended to the prompt.
func (c *groqClient) GenerateStructured(ctx context.Context, req StructuredRequest) (ContentResponse, error) {
	prompt := req.Prompt
	if req.Schema != nil {
		schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
		if err != nil {
			return ContentResponse{}, fmt.Errorf("failed to marshal response schema: %w", err)
		}
		prompt += "\n\nThe JSON object must conform to this schema:\n" + string(schemaJSON)
	}

	return c.complete(ctx, []groqMessage{{Role: "user", Content: prompt}}, req.Temperature, true)
}

// StartChat opens a conversation whose history is kept client-side.
func (c *groqClient) StartChat(systemInstruction string) ChatSession {
	return &groqChat{
		client:  c,
		history: []groqMessage{{Role: "system", Content: systemInstruction}},
	}
}

func (c *groqClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *groqClient) complete(ctx context.Context, messages []groqMessage, temperature float32, jsonMode bool) (ContentResponse, error) {
	reqBody := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": temperature,
	}
	if jsonMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ContentResponse{}, fmt.Errorf("groq api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var groqResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	out := ContentResponse{
		Usage: shared.TokenUsage{
			PromptTokens:     groqResp.Usage.PromptTokens,
			CompletionTokens: groqResp.Usage.CompletionTokens,
			TotalTokens:      groqResp.Usage.TotalTokens,
			Model:            c.model,
		},
	}
	if len(groqResp.Choices) > 0 {
		out.Content = groqResp.Choices[0].Message.Content
	}
	return out, nil
}

type groqChat struct {
	client  *groqClient
	history []groqMessage
}

// SendMessage only records the turn in history once the reply arrived.
func (g *groqChat) SendMessage(ctx context.Context, text string) (ContentResponse, error) {
	messages := append(g.history[:len(g.history):len(g.history)], groqMessage{Role: "user", Content: text})

	resp, err := g.client.complete(ctx, messages, 0.7, false)
	if err != nil {
		return ContentResponse{}, err
	}

	g.history = append(messages, groqMessage{Role: "assistant", Content: resp.Content})
	return resp, nil
}
