package campus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"campus-orchestrator/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const foodCacheSize = 8

type menuDish struct {
	Name  string   `json:"name"`
	Price string   `json:"price"`
	Tags  []string `json:"tags"`
}

type restaurantMenu struct {
	Restaurant string     `json:"restaurant"`
	Dishes     []menuDish `json:"dishes"`
}

type menuResponse struct {
	Menus []restaurantMenu `json:"menus"`
}

// FoodClient implements domain.FoodProvider against the menu feed.
type FoodClient struct {
	baseURL string
	menuURL string
	client  *http.Client
	cache   *expirable.LRU[string, string]
	logger  *slog.Logger
}

// NewFoodClient creates a food provider. menuURL is the public menu
// page exposed as primary_url on food answers.
func NewFoodClient(baseURL, menuURL string, client *http.Client, ttl time.Duration, logger *slog.Logger) *FoodClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FoodClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		menuURL: menuURL,
		client:  client,
		cache:   expirable.NewLRU[string, string](foodCacheSize, nil, ttl),
		logger:  logger,
	}
}

// FoodContext returns the day's cafeteria menus as a pre-formatted
// text blob, or an empty string when no menu is published for the day.
func (c *FoodClient) FoodContext(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("2006-01-02")
	if cached, ok := c.cache.Get(day); ok {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/v1/menus?date=%s", c.baseURL, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call menu service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		c.cache.Add(day, "")
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("menu service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed menuResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode menu response: %w", err)
	}

	text := formatMenus(parsed.Menus)
	c.cache.Add(day, text)

	c.logger.Debug("menus_fetched",
		slog.String("date", day),
		slog.Int("restaurant_count", len(parsed.Menus)))
	return text, nil
}

// MenuURL returns the public menu page.
func (c *FoodClient) MenuURL() string {
	return c.menuURL
}

func formatMenus(menus []restaurantMenu) string {
	var sb strings.Builder
	for _, m := range menus {
		if len(m.Dishes) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Restaurant)
		sb.WriteString(":")
		for _, d := range m.Dishes {
			sb.WriteString("\n- ")
			sb.WriteString(d.Name)
			if d.Price != "" {
				sb.WriteString(" (")
				sb.WriteString(d.Price)
				sb.WriteString(")")
			}
			if len(d.Tags) > 0 {
				sb.WriteString(" [")
				sb.WriteString(strings.Join(d.Tags, ", "))
				sb.WriteString("]")
			}
		}
	}
	return sb.String()
}

var _ domain.FoodProvider = (*FoodClient)(nil)
