// Package campus fetches deterministic context from the campus data
// services: per-student timetables and the daily cafeteria menus. Both
// clients cache responses in-process because the upstream data changes
// on the scale of hours while questions arrive on the scale of
// seconds.
package campus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campus-orchestrator/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const scheduleCacheSize = 512

type scheduleEntry struct {
	Day      string `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Course   string `json:"course"`
	Room     string `json:"room"`
	Activity string `json:"activity"`
}

type scheduleResponse struct {
	Entries []scheduleEntry `json:"entries"`
}

// ScheduleClient implements domain.ScheduleProvider against the
// timetable service.
type ScheduleClient struct {
	baseURL string
	client  *http.Client
	cache   *expirable.LRU[string, string]
	logger  *slog.Logger
}

// NewScheduleClient creates a schedule provider. ttl bounds how stale
// a cached timetable may get.
func NewScheduleClient(baseURL string, client *http.Client, ttl time.Duration, logger *slog.Logger) *ScheduleClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ScheduleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   expirable.NewLRU[string, string](scheduleCacheSize, nil, ttl),
		logger:  logger,
	}
}

// ScheduleContext returns the student's timetable as a pre-formatted
// text blob, or an empty string when the student has none.
func (c *ScheduleClient) ScheduleContext(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	if cached, ok := c.cache.Get(userID); ok {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/v1/schedules/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call schedule service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		c.cache.Add(userID, "")
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("schedule service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode schedule response: %w", err)
	}

	text := formatSchedule(parsed.Entries)
	c.cache.Add(userID, text)

	c.logger.Debug("schedule_fetched",
		slog.String("user_id", userID),
		slog.Int("entry_count", len(parsed.Entries)))
	return text, nil
}

func formatSchedule(entries []scheduleEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Day)
		sb.WriteString(" ")
		sb.WriteString(e.Start)
		if e.End != "" {
			sb.WriteString("-")
			sb.WriteString(e.End)
		}
		sb.WriteString(" ")
		sb.WriteString(e.Course)
		if e.Activity != "" {
			sb.WriteString(" (")
			sb.WriteString(e.Activity)
			sb.WriteString(")")
		}
		if e.Room != "" {
			sb.WriteString(" in ")
			sb.WriteString(e.Room)
		}
	}
	return sb.String()
}

var _ domain.ScheduleProvider = (*ScheduleClient)(nil)
