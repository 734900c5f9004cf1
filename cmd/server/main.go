package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"campus-orchestrator/internal/adapter/answer_http"
	"campus-orchestrator/internal/adapter/campus"
	"campus-orchestrator/internal/adapter/embedding"
	"campus-orchestrator/internal/adapter/llm"
	"campus-orchestrator/internal/adapter/store"
	"campus-orchestrator/internal/adapter/vectorindex"
	"campus-orchestrator/internal/infra"
	"campus-orchestrator/internal/infra/config"
	"campus-orchestrator/internal/infra/httpclient"
	"campus-orchestrator/internal/infra/logger"
	"campus-orchestrator/internal/usecase"
	"campus-orchestrator/internal/worker"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	policy := cfg.RetrievalPolicy()
	if err := policy.Validate(); err != nil {
		log.Error("invalid retrieval policy", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.CampusTimezone)
	if err != nil {
		log.Error("invalid campus timezone", "timezone", cfg.CampusTimezone, "error", err)
		os.Exit(1)
	}

	// 3. Initialize DB
	dbPool, err := infra.NewPostgresDB(context.Background(), cfg.DatabaseDSN()+"?sslmode=disable")
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Initialize Adapters
	embedder := embedding.NewHTTPEmbedder(
		cfg.OllamaURL,
		cfg.EmbeddingModel,
		httpclient.NewPooledClient(30*time.Second),
		cfg.EmbedBatchSize,
		time.Duration(cfg.EmbedPauseMs)*time.Millisecond,
		log,
	)
	chatClient := llm.NewOllamaChatClient(cfg.OllamaURL, cfg.AnswerModel, httpclient.NewPooledClient(120*time.Second), log)
	searcher := vectorindex.NewPgVectorSearcher(dbPool, log)
	conversationStore := store.NewConversationRepository(dbPool)

	cacheTTL := time.Duration(cfg.CampusCacheTTLMin) * time.Minute
	scheduleClient := campus.NewScheduleClient(cfg.ScheduleServiceURL, httpclient.NewPooledClient(10*time.Second), cacheTTL, log)
	foodClient := campus.NewFoodClient(cfg.MenuServiceURL, cfg.MenuPageURL, httpclient.NewPooledClient(10*time.Second), cacheTTL, log)

	// 5. Initialize Usecases
	retrieveUsecase := usecase.NewRetrieveContextUsecase(embedder, searcher, policy, log)
	promptBuilder := usecase.NewSectionedPromptBuilder()

	var rewriter *usecase.QueryRewriter
	if cfg.RewriteEnabled {
		rewriter = usecase.NewQueryRewriter(chatClient, cfg.RouterModel, log)
	}

	answerUsecase := usecase.NewAnswerUsecase(
		retrieveUsecase,
		promptBuilder,
		chatClient,
		rewriter,
		scheduleClient,
		foodClient,
		policy,
		usecase.AnswerOptions{
			Model:       cfg.AnswerModel,
			Temperature: 0.2,
			MaxTokens:   cfg.AnswerMaxTokens,
		},
		location,
		log,
	)
	titleUsecase := usecase.NewTitleUsecase(chatClient, cfg.AnswerModel, log)
	summaryUsecase := usecase.NewRollingSummaryUsecase(conversationStore, chatClient, cfg.SummaryModel, log)

	// 6. Initialize & Start Worker
	summaryWorker := worker.NewSummaryWorker(summaryUsecase, 0, log)
	summaryWorker.Start()
	defer summaryWorker.Stop()

	// 7. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request_handled",
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))

	// 8. Register Handlers
	handler := answer_http.NewHandler(answerUsecase, titleUsecase)
	handler.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if err := dbPool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 9. Start Server (h2c so sidecar proxies can speak HTTP/2 without TLS)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(e, &http2.Server{}),
	}
	go func() {
		log.Info("server_starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
}
