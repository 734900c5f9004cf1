package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOllamaChatClient_Chat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"content":"Applications open in October."},"done":true,"done_reason":"stop"}`))
	}))
	defer srv.Close()

	c := NewOllamaChatClient(srv.URL, "campus-chat", srv.Client(), discardLogger())
	resp, err := c.Chat(context.Background(), []domain.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "when does enrollment open"},
	}, domain.GenerateOptions{Temperature: 0.2, MaxTokens: 256})
	require.NoError(t, err)

	assert.Equal(t, "Applications open in October.", resp.Text)
	assert.True(t, resp.Done)
	assert.Equal(t, "campus-chat", got.Model, "default model applies when no override is given")
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.EqualValues(t, 256, got.Options["num_predict"])
}

func TestOllamaChatClient_ModelOverride(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"content":"ok"},"done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaChatClient(srv.URL, "campus-chat", srv.Client(), discardLogger())
	_, err := c.Chat(context.Background(), []domain.Message{{Role: "user", Content: "hi"}},
		domain.GenerateOptions{Model: "campus-router"})
	require.NoError(t, err)
	assert.Equal(t, "campus-router", got.Model)
}

func TestOllamaChatClient_LengthCutoffIsNotDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"partial"},"done":true,"done_reason":"length"}`))
	}))
	defer srv.Close()

	c := NewOllamaChatClient(srv.URL, "campus-chat", srv.Client(), discardLogger())
	resp, err := c.Chat(context.Background(), []domain.Message{{Role: "user", Content: "hi"}}, domain.GenerateOptions{})
	require.NoError(t, err)
	assert.False(t, resp.Done)
}

func TestOllamaChatClient_NonSuccessStatusIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`model loading`))
	}))
	defer srv.Close()

	c := NewOllamaChatClient(srv.URL, "campus-chat", srv.Client(), discardLogger())
	_, err := c.Chat(context.Background(), []domain.Message{{Role: "user", Content: "hi"}}, domain.GenerateOptions{})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.Status)
	assert.Contains(t, reqErr.ResponsePreview, "model loading")
}
