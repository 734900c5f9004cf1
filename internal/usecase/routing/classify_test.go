package routing_test

import (
	"testing"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase/routing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Food(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"restaurant name", "What's for lunch at Esplanade?"},
		{"explicit eating phrase", "where to eat on campus"},
		{"french eating phrase", "qu'est-ce qu'on mange à midi"},
		{"diet with context", "is there a vegan meal at the cafeteria"},
		{"veggie shorthand", "y'a quoi de veggie aujourd'hui"},
		{"price with eating context", "cheapest lunch today"},
		{"two weak words", "what food is there for lunch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, domain.IntentFood, routing.Classify(tt.query).Intent)
		})
	}
}

func TestClassify_WeakFoodWordsAlone_DoNotTrigger(t *testing.T) {
	// A single food-adjacent word must not classify as food: "menu"
	// here means a UI menu.
	c := routing.Classify("how do I open the settings menu")
	assert.NotEqual(t, domain.IntentFood, c.Intent)
}

func TestClassify_Schedule(t *testing.T) {
	tests := []string{
		"what's my schedule tomorrow",
		"quand est mon prochain cours",
		"which room is the algebra lecture in",
		"do I have classes today",
	}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, domain.IntentSchedule, routing.Classify(q).Intent)
		})
	}
}

func TestClassify_FoodBeforeSchedule(t *testing.T) {
	// "today" belongs to both vocabularies; food is checked first so
	// the overlap resolves deterministically.
	c := routing.Classify("what's on the menu today")
	assert.Equal(t, domain.IntentFood, c.Intent)
}

func TestClassify_DiscussionBoard(t *testing.T) {
	tests := []string{
		"post this question on the discussion board",
		"can you post my question on ed",
	}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, domain.IntentDiscussionBoard, routing.Classify(q).Intent)
		})
	}
}

func TestClassify_SmallTalk(t *testing.T) {
	assert.Equal(t, domain.IntentSmallTalk, routing.Classify("hello!").Intent)
	assert.Equal(t, domain.IntentSmallTalk, routing.Classify("merci").Intent)
	assert.Equal(t, domain.IntentSmallTalk, routing.Classify("how are you").Intent)
}

func TestClassify_SmallTalk_LengthCeiling(t *testing.T) {
	// Greeting openers on long queries must not suppress retrieval.
	c := routing.Classify("hi, could you explain how the master admission process works")
	assert.Equal(t, domain.IntentOpenRetrieval, c.Intent)
}

func TestClassify_FallsThroughToOpenRetrieval(t *testing.T) {
	tests := []string{
		"what are the library opening hours",
		"asdkjasd",
		"who was the first president of the school",
	}
	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, domain.IntentOpenRetrieval, routing.Classify(q).Intent)
		})
	}
}

func TestClassify_TrimsInput(t *testing.T) {
	assert.Equal(t, domain.IntentSmallTalk, routing.Classify("  hello  ").Intent)
}
