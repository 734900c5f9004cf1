package usecase

import (
	"strings"
	"testing"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMessages(t *testing.T, input PromptInput) (system, user string) {
	t.Helper()
	if input.Policy == (retrieval.Policy{}) {
		input.Policy = retrieval.DefaultPolicy()
	}
	messages, err := NewSectionedPromptBuilder().Build(input)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].Role)
	require.Equal(t, "user", messages[1].Role)
	return messages[0].Content, messages[1].Content
}

func TestPromptBuilder_RequiresQuery(t *testing.T) {
	_, err := NewSectionedPromptBuilder().Build(PromptInput{Policy: retrieval.DefaultPolicy()})
	assert.Error(t, err)
}

func TestPromptBuilder_SectionOrder(t *testing.T) {
	_, user := buildMessages(t, PromptInput{
		Query: domain.Query{
			Text:             "how do I enroll in the exchange program for next year",
			RollingSummary:   "Student is a second-year CS bachelor.",
			RecentTranscript: "user: hi\nassistant: hello",
		},
		Intent:           domain.IntentOpenRetrieval,
		RetrievedContext: "[1] Exchange\nApplications open in October.",
	})

	summaryAt := strings.Index(user, "<conversation_summary>")
	transcriptAt := strings.Index(user, "<recent_transcript>")
	contextAt := strings.Index(user, "<context>")
	queryAt := strings.Index(user, "<query>")

	require.GreaterOrEqual(t, summaryAt, 0)
	assert.Less(t, summaryAt, transcriptAt)
	assert.Less(t, transcriptAt, contextAt)
	assert.Less(t, contextAt, queryAt)
}

func TestPromptBuilder_SectionBudgetsAreIndependent(t *testing.T) {
	policy := retrieval.DefaultPolicy()
	policy.SummaryBudget = 10
	policy.TranscriptBudget = 10

	_, user := buildMessages(t, PromptInput{
		Query: domain.Query{
			Text:             "how do I enroll in the exchange program for next year",
			RollingSummary:   strings.Repeat("a", 100),
			RecentTranscript: strings.Repeat("b", 100),
		},
		Intent: domain.IntentOpenRetrieval,
		Policy: policy,
	})

	assert.Contains(t, user, strings.Repeat("a", 10))
	assert.NotContains(t, user, strings.Repeat("a", 11))
	assert.Contains(t, user, strings.Repeat("b", 10))
	assert.NotContains(t, user, strings.Repeat("b", 11))
}

func TestPromptBuilder_DeterministicExcludesRetrieved(t *testing.T) {
	_, user := buildMessages(t, PromptInput{
		Query:                domain.Query{Text: "what is on the menu today"},
		Intent:               domain.IntentFood,
		DeterministicContext: "Esplanade: pasta",
		RetrievedContext:     "[1] Stale\nOld menu text.",
	})

	assert.Contains(t, user, "<campus_data>")
	assert.NotContains(t, user, "<context>")
	assert.NotContains(t, user, "Old menu text")
}

func TestPromptBuilder_ScheduleIncludesToday(t *testing.T) {
	system, user := buildMessages(t, PromptInput{
		Query:                domain.Query{Text: "when is my next class"},
		Intent:               domain.IntentSchedule,
		DeterministicContext: "Mon 10:15 Analysis CO1",
		Today:                "Monday, 31 August 2026",
	})

	assert.Contains(t, user, "<today>Monday, 31 August 2026</today>")
	assert.Contains(t, system, "timetable")
}

func TestPromptBuilder_MarkerInstructionOnlyWithContext(t *testing.T) {
	withContext, _ := buildMessages(t, PromptInput{
		Query:            domain.Query{Text: "how do I enroll in the exchange program for next year"},
		Intent:           domain.IntentOpenRetrieval,
		RetrievedContext: "[1] Exchange\nApplications open in October.",
	})
	assert.Contains(t, withContext, "USED_CONTEXT")

	withoutContext, _ := buildMessages(t, PromptInput{
		Query:  domain.Query{Text: "how do I enroll in the exchange program for next year"},
		Intent: domain.IntentOpenRetrieval,
	})
	assert.NotContains(t, withoutContext, "USED_CONTEXT")
}

func TestPromptBuilder_NoURLInstruction(t *testing.T) {
	system, _ := buildMessages(t, PromptInput{
		Query:  domain.Query{Text: "hello"},
		Intent: domain.IntentSmallTalk,
	})
	assert.Contains(t, system, "Never include URLs")
}

func TestPromptBuilder_EscapesMarkup(t *testing.T) {
	_, user := buildMessages(t, PromptInput{
		Query:  domain.Query{Text: "what does <script>alert(1)</script> mean"},
		Intent: domain.IntentOpenRetrieval,
	})
	assert.NotContains(t, user, "<script>")
	assert.Contains(t, user, "&lt;script&gt;")
}
