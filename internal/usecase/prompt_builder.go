package usecase

import (
	"fmt"
	"strings"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase/retrieval"
)

// PromptInput contains the pieces that feed into the prompt builder.
// Sections are optional; each is clamped to its own budget so one
// oversized section cannot starve the others.
type PromptInput struct {
	Query  domain.Query
	Intent domain.Intent

	// DeterministicContext carries pre-formatted schedule or menu data.
	// When present, RetrievedContext is excluded from the prompt.
	DeterministicContext string

	// RetrievedContext is the rendered retrieval section.
	RetrievedContext string

	// Today is a human-readable localized date line, included for
	// schedule questions so relative day references resolve correctly.
	Today string

	Policy retrieval.Policy
}

// PromptBuilder builds the chat messages sent to the model.
type PromptBuilder interface {
	Build(input PromptInput) ([]domain.Message, error)
}

// SectionedPromptBuilder composes prompts out of tagged sections in a
// fixed priority order: conversation summary, recent transcript,
// deterministic campus data, then retrieved context.
type SectionedPromptBuilder struct {
	additionalInstructions []string
}

// NewSectionedPromptBuilder creates a prompt builder with optional extra instructions appended.
func NewSectionedPromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &SectionedPromptBuilder{
		additionalInstructions: additionalInstructions,
	}
}

// usedContextMarker is the trailing control marker the model is asked
// to emit on retrieval answers. Post-processing strips it before the
// reply leaves the service; source attribution is computed from the
// pipeline branch, never from the marker's value.
const usedContextMarker = "USED_CONTEXT"

// Build renders the Messages for the Chat API.
func (b *SectionedPromptBuilder) Build(input PromptInput) ([]domain.Message, error) {
	if input.Query.Text == "" {
		return nil, fmt.Errorf("query is required")
	}

	var sysSb strings.Builder
	sysSb.WriteString("<instructions>\n")

	baseInstructions := []string{
		"You are the campus assistant for university students. Answer in the language of the question.",
		"Be direct and concise. No greetings, no filler, no restating the question.",
		"Never include URLs or links in your answer; sources are attached separately.",
		"Prefer the sections in this order when they conflict: <conversation_summary>, <recent_transcript>, <campus_data>, <context>.",
	}
	baseInstructions = append(baseInstructions, b.intentInstructions(input)...)

	for _, inst := range append(baseInstructions, b.additionalInstructions...) {
		sysSb.WriteString("  <line>")
		sysSb.WriteString(escape(inst))
		sysSb.WriteString("</line>\n")
	}
	sysSb.WriteString("</instructions>\n")

	var userSb strings.Builder

	if summary := clamp(input.Query.RollingSummary, input.Policy.SummaryBudget); summary != "" {
		userSb.WriteString("<conversation_summary>\n")
		userSb.WriteString(escape(summary))
		userSb.WriteString("\n</conversation_summary>\n\n")
	}

	if transcript := clamp(input.Query.RecentTranscript, input.Policy.TranscriptBudget); transcript != "" {
		userSb.WriteString("<recent_transcript>\n")
		userSb.WriteString(escape(transcript))
		userSb.WriteString("\n</recent_transcript>\n\n")
	}

	deterministic := clamp(input.DeterministicContext, input.Policy.DeterministicBudget)
	if deterministic != "" {
		if input.Today != "" {
			userSb.WriteString("<today>")
			userSb.WriteString(escape(input.Today))
			userSb.WriteString("</today>\n\n")
		}
		userSb.WriteString("<campus_data>\n")
		userSb.WriteString(escape(deterministic))
		userSb.WriteString("\n</campus_data>\n\n")
	} else if input.RetrievedContext != "" {
		userSb.WriteString("<context>\n")
		userSb.WriteString(escape(input.RetrievedContext))
		userSb.WriteString("\n</context>\n\n")
	}

	userSb.WriteString("<query>\n")
	userSb.WriteString(escape(input.Query.Text))
	userSb.WriteString("\n</query>\n")

	return []domain.Message{
		{Role: "system", Content: sysSb.String()},
		{Role: "user", Content: userSb.String()},
	}, nil
}

func (b *SectionedPromptBuilder) intentInstructions(input PromptInput) []string {
	switch input.Intent {
	case domain.IntentSchedule:
		return []string{
			"The <campus_data> section holds the student's timetable. Answer strictly from it.",
			"Resolve relative day references (today, tomorrow, weekday names) against the <today> line.",
		}
	case domain.IntentFood:
		return []string{
			"The <campus_data> section holds today's cafeteria menus. Answer strictly from it.",
			"If a restaurant or dish the student asks about is absent from the data, say so; do not invent menu items.",
		}
	case domain.IntentSmallTalk:
		return []string{
			"This is casual conversation. Reply briefly and warmly without consulting any data sections.",
		}
	case domain.IntentDiscussionBoard:
		return []string{
			"The student wants to post on the course discussion board. Confirm briefly that the request is being passed to the board; do not answer the question yourself.",
		}
	default:
		instructions := []string{
			"Answer from the <context> documents when they are relevant. When they do not cover the question, say you don't know rather than guessing.",
		}
		if input.RetrievedContext != "" {
			instructions = append(instructions,
				fmt.Sprintf("End your reply with %s=YES on its own line if you used the <context> documents, %s=NO otherwise.",
					usedContextMarker, usedContextMarker))
		}
		return instructions
	}
}

// clamp truncates s to at most max characters after trimming. A zero
// or negative max disables the section entirely.
func clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if len(s) > max {
		s = strings.TrimSpace(s[:max])
	}
	return s
}

func escape(value string) string {
	s := strings.TrimSpace(value)
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(s)
}
