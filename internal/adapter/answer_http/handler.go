// Package answer_http exposes the answer pipeline over HTTP.
package answer_http

import (
	"net/http"
	"strings"

	"campus-orchestrator/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	answerUsecase usecase.AnswerUsecase
	titleUsecase  usecase.TitleUsecase
}

func NewHandler(answerUsecase usecase.AnswerUsecase, titleUsecase usecase.TitleUsecase) *Handler {
	return &Handler{
		answerUsecase: answerUsecase,
		titleUsecase:  titleUsecase,
	}
}

// Register wires the handler routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/answer", h.Answer)
	e.POST("/v1/title", h.Title)
}

type answerRequest struct {
	Question         string `json:"question"`
	ConversationID   string `json:"conversation_id"`
	UserID           string `json:"uid"`
	TopK             int    `json:"top_k"`
	Model            string `json:"model"`
	Summary          string `json:"summary"`
	RecentTranscript string `json:"recent_transcript"`
}

type sourceResponse struct {
	Idx   int     `json:"idx"`
	Title string  `json:"title,omitempty"`
	URL   string  `json:"url,omitempty"`
	Score float32 `json:"score"`
}

type answerResponse struct {
	Reply      string           `json:"reply"`
	PrimaryURL *string          `json:"primary_url"`
	BestScore  float32          `json:"best_score"`
	Sources    []sourceResponse `json:"sources"`
	SourceType string           `json:"source_type"`
	Intent     string           `json:"intent"`
	SearchText string           `json:"search_text,omitempty"`
}

// Answer handles POST /v1/answer.
func (h *Handler) Answer(ctx echo.Context) error {
	var req answerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	output, err := h.answerUsecase.Execute(ctx.Request().Context(), usecase.AnswerInput{
		Question:         req.Question,
		ConversationID:   req.ConversationID,
		UserID:           req.UserID,
		TopK:             req.TopK,
		Model:            req.Model,
		RollingSummary:   req.Summary,
		RecentTranscript: req.RecentTranscript,
	})
	if err != nil {
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	resp := answerResponse{
		Reply:      output.Reply,
		BestScore:  output.BestScore,
		Sources:    make([]sourceResponse, 0, len(output.Sources)),
		SourceType: string(output.SourceType),
		Intent:     string(output.Intent),
		SearchText: output.SearchText,
	}
	if output.PrimaryURL != "" {
		resp.PrimaryURL = &output.PrimaryURL
	}
	for _, s := range output.Sources {
		resp.Sources = append(resp.Sources, sourceResponse{
			Idx:   s.Index,
			Title: s.Title,
			URL:   s.URL,
			Score: s.Score,
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}

type titleRequest struct {
	Question string `json:"question"`
	Reply    string `json:"reply"`
}

type titleResponse struct {
	Title string `json:"title"`
}

// Title handles POST /v1/title.
func (h *Handler) Title(ctx echo.Context) error {
	var req titleRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	title, err := h.titleUsecase.Generate(ctx.Request().Context(), req.Question, req.Reply)
	if err != nil {
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, titleResponse{Title: title})
}
