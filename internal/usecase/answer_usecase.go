package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase/retrieval"
	"campus-orchestrator/internal/usecase/routing"
)

// AnswerOptions holds the generation defaults of the answer pipeline.
type AnswerOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type answerUsecase struct {
	retrieve      RetrieveContextUsecase
	promptBuilder PromptBuilder
	chat          domain.ChatClient
	rewriter      *QueryRewriter
	schedule      domain.ScheduleProvider
	food          domain.FoodProvider
	policy        retrieval.Policy
	opts          AnswerOptions
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// NewAnswerUsecase wires together the components of the answer
// pipeline. rewriter, schedule and food may be nil; the corresponding
// branches then degrade to open retrieval.
func NewAnswerUsecase(
	retrieve RetrieveContextUsecase,
	promptBuilder PromptBuilder,
	chat domain.ChatClient,
	rewriter *QueryRewriter,
	schedule domain.ScheduleProvider,
	food domain.FoodProvider,
	policy retrieval.Policy,
	opts AnswerOptions,
	location *time.Location,
	logger *slog.Logger,
) AnswerUsecase {
	if location == nil {
		location = time.UTC
	}
	return &answerUsecase{
		retrieve:      retrieve,
		promptBuilder: promptBuilder,
		chat:          chat,
		rewriter:      rewriter,
		schedule:      schedule,
		food:          food,
		policy:        policy,
		opts:          opts,
		location:      location,
		now:           time.Now,
		logger:        logger,
	}
}

// usedContextPattern matches the trailing control marker the model
// appends on open-retrieval replies.
var usedContextPattern = regexp.MustCompile(`(?m)\s*` + usedContextMarker + `=(YES|NO)\s*$`)

func (u *answerUsecase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	q := domain.NewQuery(input.Question, input.ConversationID, input.UserID, input.RollingSummary, input.RecentTranscript)
	if q.Text == "" {
		return nil, fmt.Errorf("question is required")
	}

	start := u.now()
	cls := routing.Classify(q.Text)

	opts := u.opts
	if input.Model != "" {
		opts.Model = input.Model
	}

	var out *AnswerOutput
	var err error
	switch cls.Intent {
	case domain.IntentFood:
		out, err = u.answerFood(ctx, q, opts)
	case domain.IntentSchedule:
		out, err = u.answerSchedule(ctx, q, opts)
	case domain.IntentSmallTalk, domain.IntentDiscussionBoard:
		out, err = u.answerConversational(ctx, q, cls.Intent, opts)
	default:
		out, err = u.answerWithRetrieval(ctx, q, cls, input.TopK, opts)
	}
	if err != nil {
		return nil, err
	}

	out.Intent = cls.Intent
	if out.SearchText == "" {
		out.SearchText = q.Text
	}

	u.logger.Info("answer_completed",
		slog.String("intent", string(out.Intent)),
		slog.String("source_type", string(out.SourceType)),
		slog.Float64("best_score", float64(out.BestScore)),
		slog.Int("source_count", len(out.Sources)),
		slog.Int64("duration_ms", u.now().Sub(start).Milliseconds()))

	return out, nil
}

// answerFood serves menu questions from the deterministic menu feed.
// When the feed has nothing for today the question falls through to
// open retrieval instead of failing.
func (u *answerUsecase) answerFood(ctx context.Context, q domain.Query, opts AnswerOptions) (*AnswerOutput, error) {
	if u.food == nil {
		return u.answerWithRetrieval(ctx, q, domain.Classification{Intent: domain.IntentOpenRetrieval}, 0, opts)
	}

	menu, err := u.food.FoodContext(ctx, u.now().In(u.location))
	if err != nil {
		u.logger.Warn("food_context_unavailable", slog.String("error", err.Error()))
		menu = ""
	}
	if menu == "" {
		return u.answerWithRetrieval(ctx, q, domain.Classification{Intent: domain.IntentOpenRetrieval}, 0, opts)
	}

	reply, err := u.complete(ctx, PromptInput{
		Query:                q,
		Intent:               domain.IntentFood,
		DeterministicContext: menu,
		Today:                u.todayLine(),
		Policy:               u.effectivePolicy(q),
	}, opts)
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{
		Reply:      reply,
		PrimaryURL: u.food.MenuURL(),
		BestScore:  1.0,
		SourceType: SourceTypeFood,
	}, nil
}

// answerSchedule serves timetable questions from the deterministic
// schedule feed. Without a user ID or stored schedule the question
// falls through to open retrieval.
func (u *answerUsecase) answerSchedule(ctx context.Context, q domain.Query, opts AnswerOptions) (*AnswerOutput, error) {
	if u.schedule == nil || q.UserID == "" {
		return u.answerWithRetrieval(ctx, q, domain.Classification{Intent: domain.IntentOpenRetrieval}, 0, opts)
	}

	timetable, err := u.schedule.ScheduleContext(ctx, q.UserID)
	if err != nil {
		u.logger.Warn("schedule_context_unavailable",
			slog.String("user_id", q.UserID),
			slog.String("error", err.Error()))
		timetable = ""
	}
	if timetable == "" {
		return u.answerWithRetrieval(ctx, q, domain.Classification{Intent: domain.IntentOpenRetrieval}, 0, opts)
	}

	reply, err := u.complete(ctx, PromptInput{
		Query:                q,
		Intent:               domain.IntentSchedule,
		DeterministicContext: timetable,
		Today:                u.todayLine(),
		Policy:               u.effectivePolicy(q),
	}, opts)
	if err != nil {
		return nil, err
	}

	return &AnswerOutput{
		Reply:      reply,
		BestScore:  1.0,
		SourceType: SourceTypeSchedule,
	}, nil
}

// answerConversational replies without any data section: small talk,
// and discussion-board requests whose actual posting is handled by the
// board connector after classification.
func (u *answerUsecase) answerConversational(ctx context.Context, q domain.Query, intent domain.Intent, opts AnswerOptions) (*AnswerOutput, error) {
	reply, err := u.complete(ctx, PromptInput{
		Query:  q,
		Intent: intent,
		Policy: u.effectivePolicy(q),
	}, opts)
	if err != nil {
		return nil, err
	}
	return &AnswerOutput{
		Reply:      reply,
		SourceType: SourceTypeNone,
	}, nil
}

func (u *answerUsecase) answerWithRetrieval(ctx context.Context, q domain.Query, cls domain.Classification, topK int, opts AnswerOptions) (*AnswerOutput, error) {
	searchText := cls.SearchText
	if searchText == "" {
		searchText = q.Text
	}
	if u.rewriter != nil {
		searchText = u.rewriter.Rewrite(ctx, searchText)
	}

	retrieved, err := u.retrieve.Execute(ctx, RetrieveContextInput{
		Query:      q,
		SearchText: searchText,
		TopK:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	reply, err := u.complete(ctx, PromptInput{
		Query:            q,
		Intent:           domain.IntentOpenRetrieval,
		RetrievedContext: retrieval.Render(retrieved.Chunks),
		Policy:           u.effectivePolicy(q),
	}, opts)
	if err != nil {
		return nil, err
	}

	reply = stripUsedContextMarker(reply)

	out := &AnswerOutput{
		Reply:      reply,
		BestScore:  retrieved.BestScore,
		SourceType: SourceTypeNone,
		SearchText: searchText,
	}
	if len(retrieved.Chunks) == 0 {
		return out, nil
	}

	out.SourceType = SourceTypeRAG
	out.PrimaryURL = retrieved.Chunks[0].URL
	for _, c := range retrieved.Chunks {
		out.Sources = append(out.Sources, AnswerSource{
			Index: c.Index,
			Title: c.Title,
			URL:   c.URL,
			Score: c.Score,
		})
	}
	return out, nil
}

// complete builds the prompt, runs the completion and post-processes
// the reply. A failed call or an empty response is a hard error; a
// truncated response is returned as-is since it still carries a usable
// partial answer.
func (u *answerUsecase) complete(ctx context.Context, prompt PromptInput, opts AnswerOptions) (string, error) {
	messages, err := u.promptBuilder.Build(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := u.chat.Chat(ctx, messages, domain.GenerateOptions{
		Model:       opts.Model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("completion returned an empty response")
	}
	if !resp.Done {
		u.logger.Warn("completion_truncated", slog.Int("reply_chars", len(resp.Text)))
	}

	return strings.TrimSpace(resp.Text), nil
}

// stripUsedContextMarker removes the trailing control marker. The
// marker's value is never consulted: source attribution comes from the
// pipeline branch that produced the answer, not from the model's claim.
func stripUsedContextMarker(reply string) string {
	if !usedContextPattern.MatchString(reply) {
		return reply
	}
	return strings.TrimSpace(usedContextPattern.ReplaceAllString(reply, ""))
}

func (u *answerUsecase) effectivePolicy(q domain.Query) retrieval.Policy {
	if q.IsShort() {
		return u.policy.ForShortQuery()
	}
	return u.policy
}

func (u *answerUsecase) todayLine() string {
	return u.now().In(u.location).Format("Monday, 2 January 2006")
}
