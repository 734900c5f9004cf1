package domain

// Intent is the routing decision for one query.
type Intent string

const (
	IntentSmallTalk       Intent = "small_talk"
	IntentSchedule        Intent = "schedule"
	IntentFood            Intent = "food"
	IntentDiscussionBoard Intent = "discussion_board"
	IntentOpenRetrieval   Intent = "open_retrieval"
)

// Classification is the router output. SearchText carries an optional
// rewritten form of the query used for retrieval; when empty the
// original query text is used.
type Classification struct {
	Intent     Intent
	SearchText string
}
