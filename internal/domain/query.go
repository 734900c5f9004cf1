package domain

import "strings"

// Query is the immutable input of one answer pipeline invocation.
// It is constructed per request and never mutated downstream.
type Query struct {
	Text             string
	ConversationID   string
	UserID           string
	RollingSummary   string
	RecentTranscript string
}

// NewQuery normalizes the raw question text once at the boundary.
func NewQuery(text, conversationID, userID, summary, transcript string) Query {
	return Query{
		Text:             strings.TrimSpace(text),
		ConversationID:   conversationID,
		UserID:           userID,
		RollingSummary:   summary,
		RecentTranscript: transcript,
	}
}

// IsShort reports whether the question is short enough to tighten
// retrieval and prompt budgets (short questions need less grounding).
func (q Query) IsShort() bool {
	return len(q.Text) <= 80
}

// IsTiny reports whether the question is tiny. Tiny questions request
// the smallest candidate pool from the retriever.
func (q Query) IsTiny() bool {
	return len(q.Text) <= 40
}
