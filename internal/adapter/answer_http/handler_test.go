package answer_http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerUsecase struct {
	output *usecase.AnswerOutput
	err    error
	input  usecase.AnswerInput
}

func (f *fakeAnswerUsecase) Execute(_ context.Context, input usecase.AnswerInput) (*usecase.AnswerOutput, error) {
	f.input = input
	return f.output, f.err
}

type fakeTitleUsecase struct {
	title string
	err   error
}

func (f *fakeTitleUsecase) Generate(context.Context, string, string) (string, error) {
	return f.title, f.err
}

func doRequest(h *Handler, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.Register(e)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Answer(t *testing.T) {
	answer := &fakeAnswerUsecase{output: &usecase.AnswerOutput{
		Reply:      "Apply before April.",
		PrimaryURL: "https://campus.example/admissions",
		BestScore:  0.88,
		Sources: []usecase.AnswerSource{
			{Index: 1, Title: "Admissions", URL: "https://campus.example/admissions", Score: 0.88},
		},
		SourceType: usecase.SourceTypeRAG,
		Intent:     domain.IntentOpenRetrieval,
	}}
	h := NewHandler(answer, &fakeTitleUsecase{})

	rec := doRequest(h, "/v1/answer", `{"question":"how do I apply","uid":"student-7","top_k":6}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp answerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Apply before April.", resp.Reply)
	require.NotNil(t, resp.PrimaryURL)
	assert.Equal(t, "https://campus.example/admissions", *resp.PrimaryURL)
	assert.Equal(t, float32(0.88), resp.BestScore)
	assert.Equal(t, "rag", resp.SourceType)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, 1, resp.Sources[0].Idx)

	assert.Equal(t, "student-7", answer.input.UserID)
	assert.Equal(t, 6, answer.input.TopK)
}

func TestHandler_Answer_NullPrimaryURLWithoutSources(t *testing.T) {
	answer := &fakeAnswerUsecase{output: &usecase.AnswerOutput{
		Reply:      "I don't know.",
		SourceType: usecase.SourceTypeNone,
		Intent:     domain.IntentOpenRetrieval,
	}}
	h := NewHandler(answer, &fakeTitleUsecase{})

	rec := doRequest(h, "/v1/answer", `{"question":"obscure question"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["primary_url"]))
	assert.Equal(t, "[]", string(raw["sources"]))
}

func TestHandler_Answer_BadRequests(t *testing.T) {
	h := NewHandler(&fakeAnswerUsecase{}, &fakeTitleUsecase{})

	tests := []struct {
		name string
		body string
	}{
		{"missing question", `{}`},
		{"blank question", `{"question":"   "}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, "/v1/answer", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Answer_PipelineErrorIsBadGateway(t *testing.T) {
	answer := &fakeAnswerUsecase{err: fmt.Errorf("completion failed")}
	h := NewHandler(answer, &fakeTitleUsecase{})

	rec := doRequest(h, "/v1/answer", `{"question":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_Title(t *testing.T) {
	h := NewHandler(&fakeAnswerUsecase{}, &fakeTitleUsecase{title: "Exchange Program Enrollment"})

	rec := doRequest(h, "/v1/title", `{"question":"how do I enroll","reply":"Applications open in October."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp titleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Exchange Program Enrollment", resp.Title)
}

func TestHandler_Title_RequiresQuestion(t *testing.T) {
	h := NewHandler(&fakeAnswerUsecase{}, &fakeTitleUsecase{})
	rec := doRequest(h, "/v1/title", `{"reply":"text"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
