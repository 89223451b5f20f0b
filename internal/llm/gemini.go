package llm

import (
	"context"
	"fmt"
	"strings"

	"fitlife-ai/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient is a client for the Google Gemini API.
type geminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiClient{client: client, modelName: modelName}, nil
}

// GenerateStructured sends one prompt with a response schema and returns the raw text.
// A GenerativeModel is built per call because its config is mutable.
func (c *geminiClient) GenerateStructured(ctx context.Context, req StructuredRequest) (ContentResponse, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = req.MIMEType
	model.ResponseSchema = req.Schema.toGenai()

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return ContentResponse{
		Content: responseText(resp),
		Usage:   usageOf(resp, c.modelName),
	}, nil
}

// StartChat opens a local chat session; nothing is sent until SendMessage.
func (c *geminiClient) StartChat(systemInstruction string) ChatSession {
	model := c.client.GenerativeModel(c.modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	return &geminiChat{session: model.StartChat(), modelName: c.modelName}
}

// Close closes the underlying Gemini client.
func (c *geminiClient) Close() error {
	return c.client.Close()
}

type geminiChat struct {
	session   *genai.ChatSession
	modelName string
}

func (g *geminiChat) SendMessage(ctx context.Context, text string) (ContentResponse, error) {
	resp, err := g.session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send chat message: %w", err)
	}
	return ContentResponse{
		Content: responseText(resp),
		Usage:   usageOf(resp, g.modelName),
	}, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

func usageOf(resp *genai.GenerateContentResponse, modelName string) shared.TokenUsage {
	usage := shared.TokenUsage{Model: modelName}
	if resp == nil || resp.UsageMetadata == nil {
		return usage
	}
	usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
	usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	return usage
}
