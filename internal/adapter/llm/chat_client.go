// Package llm adapts the Ollama chat endpoint to the pipeline's
// completion interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"campus-orchestrator/internal/domain"
)

const responsePreviewChars = 200

// RequestError is a non-success response from the completion service,
// carrying the HTTP status and a truncated response preview.
type RequestError struct {
	Status          int
	ResponsePreview string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.Status, e.ResponsePreview)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive int            `json:"keep_alive"`
	Options   map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
}

// OllamaChatClient sends role-tagged messages to Ollama's chat
// endpoint and returns the assistant message.
type OllamaChatClient struct {
	baseURL      string
	defaultModel string
	client       *http.Client
	logger       *slog.Logger
}

// NewOllamaChatClient constructs a chat client for the given endpoint
// and default model.
func NewOllamaChatClient(baseURL, defaultModel string, client *http.Client, logger *slog.Logger) *OllamaChatClient {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &OllamaChatClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		client:       client,
		logger:       logger,
	}
}

// Chat performs one non-streaming completion call.
func (c *OllamaChatClient) Chat(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (*domain.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}

	reqBody := chatRequest{
		Model:     model,
		Stream:    false,
		KeepAlive: -1,
		Options: map[string]any{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		reqBody.Options["num_predict"] = opts.MaxTokens
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("chat_request_failed",
			slog.String("model", model),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call completion service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, responsePreviewChars))
		c.logger.Error("chat_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.String("model", model),
			slog.Duration("elapsed", time.Since(start)))
		return nil, &RequestError{
			Status:          resp.StatusCode,
			ResponsePreview: strings.TrimSpace(string(respBody)),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("chat_completed",
		slog.String("model", model),
		slog.Bool("done", parsed.Done),
		slog.Int("reply_chars", len(parsed.Message.Content)),
		slog.Duration("elapsed", time.Since(start)))

	// A response cut off by the token limit reports done=true with
	// done_reason "length"; the pipeline treats that as truncated.
	done := parsed.Done && parsed.DoneReason != "length"

	return &domain.LLMResponse{
		Text: parsed.Message.Content,
		Done: done,
	}, nil
}

func (c *OllamaChatClient) Version() string {
	return c.defaultModel
}

var _ domain.ChatClient = (*OllamaChatClient)(nil)
