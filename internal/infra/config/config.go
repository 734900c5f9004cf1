package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"campus-orchestrator/internal/usecase/retrieval"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	OllamaURL      string
	EmbeddingModel string
	AnswerModel    string
	RouterModel    string
	SummaryModel   string
	AnswerMaxTokens int

	EmbedBatchSize int
	EmbedPauseMs   int

	ScheduleServiceURL string
	MenuServiceURL     string
	MenuPageURL        string
	CampusTimezone     string
	CampusCacheTTLMin  int

	RewriteEnabled bool
	OTelEnabled    bool

	MaxCandidates       int
	MaxDocs             int
	MaxPerDoc           int
	SnippetLimit        int
	BudgetChars         int
	ChunkOverhead       int
	ScoreGate           float64
	SummaryBudget       int
	TranscriptBudget    int
	DeterministicBudget int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "campus-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "campus_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "campus_password"),
		DBName:     getEnv("DB_NAME", "campus_db"),

		OllamaURL:       getEnv("OLLAMA_URL", "http://ollama:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		AnswerModel:     getEnv("ANSWER_MODEL", "campus-chat"),
		RouterModel:     getEnv("ROUTER_MODEL", "campus-router"),
		SummaryModel:    getEnv("SUMMARY_MODEL", "campus-chat"),
		AnswerMaxTokens: getEnvInt("ANSWER_MAX_TOKENS", 768),

		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 16),
		EmbedPauseMs:   getEnvInt("EMBED_PAUSE_MS", 200),

		ScheduleServiceURL: getEnv("SCHEDULE_SERVICE_URL", "http://schedule-api:8080"),
		MenuServiceURL:     getEnv("MENU_SERVICE_URL", "http://menu-api:8080"),
		MenuPageURL:        getEnv("MENU_PAGE_URL", "https://campus.example/menus"),
		CampusTimezone:     getEnv("CAMPUS_TIMEZONE", "Europe/Zurich"),
		CampusCacheTTLMin:  getEnvInt("CAMPUS_CACHE_TTL_MIN", 30),

		RewriteEnabled: getEnvBool("QUERY_REWRITE_ENABLED", false),
		OTelEnabled:    getEnvBool("OTEL_ENABLED", false),

		MaxCandidates:       getEnvInt("RETRIEVAL_MAX_CANDIDATES", 24),
		MaxDocs:             getEnvInt("RETRIEVAL_MAX_DOCS", 4),
		MaxPerDoc:           getEnvInt("RETRIEVAL_MAX_PER_DOC", 3),
		SnippetLimit:        getEnvInt("RETRIEVAL_SNIPPET_LIMIT", 600),
		BudgetChars:         getEnvInt("RETRIEVAL_BUDGET_CHARS", 1600),
		ChunkOverhead:       getEnvInt("RETRIEVAL_CHUNK_OVERHEAD", 50),
		ScoreGate:           getEnvFloat("RETRIEVAL_SCORE_GATE", 0.62),
		SummaryBudget:       getEnvInt("PROMPT_SUMMARY_BUDGET", 1200),
		TranscriptBudget:    getEnvInt("PROMPT_TRANSCRIPT_BUDGET", 800),
		DeterministicBudget: getEnvInt("PROMPT_DETERMINISTIC_BUDGET", 900),
	}
}

// DatabaseDSN renders the pgx connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// RetrievalPolicy builds the retrieval policy from the configured
// budgets.
func (c *Config) RetrievalPolicy() retrieval.Policy {
	return retrieval.Policy{
		MaxCandidates:       c.MaxCandidates,
		MaxDocs:             c.MaxDocs,
		MaxPerDoc:           c.MaxPerDoc,
		SnippetLimit:        c.SnippetLimit,
		BudgetChars:         c.BudgetChars,
		ChunkOverhead:       c.ChunkOverhead,
		ScoreGate:           float32(c.ScoreGate),
		SummaryBudget:       c.SummaryBudget,
		TranscriptBudget:    c.TranscriptBudget,
		DeterministicBudget: c.DeterministicBudget,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
