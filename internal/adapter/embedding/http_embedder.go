// Package embedding talks to the remote embedding model over HTTP and
// turns request text into dense vectors.
package embedding

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

	"golang.org/x/time/rate"
)

// maxTextChars caps one input text so a pathological document cannot
// produce an oversized embedding payload.
const maxTextChars = 4000

// previewChars caps the diagnostic payload carried on RequestError.
const previewChars = 200

// RequestError is a non-success response from the embedding service.
// It carries the HTTP status and truncated request/response previews
// for diagnostics; callers decide whether to retry.
type RequestError struct {
	Status          int
	RequestPreview  string
	ResponsePreview string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("embedding service returned status %d: %s", e.Status, e.ResponsePreview)
}

// HTTPEmbedder implements domain.VectorEncoder against an
// OpenAI-compatible /v1/embeddings endpoint. Batches are sent strictly
// in order and paced by a token bucket so a large backlog cannot
// hammer the embedding service.
type HTTPEmbedder struct {
	baseURL   string
	model     string
	client    *http.Client
	limiter   *rate.Limiter
	batchSize int
	logger    *slog.Logger
}

// NewHTTPEmbedder creates an embedder. pause is the minimum interval
// between batch requests; zero disables pacing.
func NewHTTPEmbedder(baseURL, model string, client *http.Client, batchSize int, pause time.Duration, logger *slog.Logger) *HTTPEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if batchSize <= 0 {
		batchSize = 16
	}
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}
	return &HTTPEmbedder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		batchSize: batchSize,
		logger:    logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Encode embeds texts, splitting them into paced fixed-size batches.
// Returned vectors align positionally with the sanitized inputs.
func (e *HTTPEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	sanitized := Sanitize(texts)
	if len(sanitized) == 0 {
		return nil, fmt.Errorf("no embeddable text after sanitizing %d inputs", len(texts))
	}

	vectors := make([][]float32, 0, len(sanitized))
	for start := 0; start < len(sanitized); start += e.batchSize {
		end := start + e.batchSize
		if end > len(sanitized) {
			end = len(sanitized)
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding pacing interrupted: %w", err)
		}
		batch, err := e.embedBatch(ctx, sanitized[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *HTTPEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("embed_request_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, previewChars))
		e.logger.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, &RequestError{
			Status:          resp.StatusCode,
			RequestPreview:  preview(string(body)),
			ResponsePreview: preview(string(respBody)),
		}
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(parsed.Data))
	}

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vectors[i] = d.Embedding
	}

	e.logger.Info("embed_batch_completed",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.model),
		slog.Duration("elapsed", time.Since(start)))

	return vectors, nil
}

func (e *HTTPEmbedder) Version() string {
	return e.model
}

// Sanitize trims the inputs, drops blank entries and truncates each
// text to the payload cap. Order is preserved.
func Sanitize(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTextChars {
			t = t[:maxTextChars]
		}
		out = append(out, t)
	}
	return out
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > previewChars {
		return s[:previewChars]
	}
	return s
}

var _ domain.VectorEncoder = (*HTTPEmbedder)(nil)
