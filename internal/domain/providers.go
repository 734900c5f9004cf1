package domain

import (
	"context"
	"time"
)

// ScheduleProvider returns a pre-formatted timetable text blob for a
// user, or an empty string when the user has no stored schedule. The
// pipeline only consumes the string and applies its own budget trim.
type ScheduleProvider interface {
	ScheduleContext(ctx context.Context, userID string) (string, error)
}

// FoodProvider returns a pre-formatted menu text blob for a date.
// MenuURL is the public menu page exposed as primary_url on food
// answers.
type FoodProvider interface {
	FoodContext(ctx context.Context, date time.Time) (string, error)
	MenuURL() string
}
