// Package routing classifies a query into the intent that selects the
// cheapest sufficient answer path. Classification is a chain of pure
// functions evaluated in a fixed, documented order; overlapping
// vocabulary ("today" appears in both food and schedule groups) is
// resolved by that order, food before schedule.
package routing

import (
	"strings"

	"campus-orchestrator/internal/domain"
)

// Strength is the confidence tier one classifier reports for a query.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthStrong
)

// classifier inspects a query and reports how strongly it claims it.
type classifier struct {
	intent domain.Intent
	match  func(q string) Strength
}

// chain is the fixed evaluation order.
var chain = []classifier{
	{domain.IntentFood, foodStrength},
	{domain.IntentSchedule, scheduleStrength},
	{domain.IntentDiscussionBoard, boardStrength},
	{domain.IntentSmallTalk, smallTalkStrength},
}

// Classify runs the classifier chain over the query text. The first
// classifier reporting strong wins; if none does, the query falls
// through to open retrieval. Pure function over text, no side effects.
func Classify(text string) domain.Classification {
	q := strings.TrimSpace(text)
	for _, c := range chain {
		if c.match(q) == StrengthStrong {
			return domain.Classification{Intent: c.intent}
		}
	}
	return domain.Classification{Intent: domain.IntentOpenRetrieval}
}

// foodStrength: restaurant names and explicit eating phrases always
// trigger; diet and price vocabulary needs an eating-context word; weak
// food-adjacent words need at least two co-occurrences.
func foodStrength(q string) Strength {
	if foodStrongPattern.MatchString(q) {
		return StrengthStrong
	}
	if foodDietQueryPattern.MatchString(q) {
		return StrengthStrong
	}
	if foodDietWordPattern.MatchString(q) && foodContextWordPattern.MatchString(q) {
		return StrengthStrong
	}
	if foodPriceWordPattern.MatchString(q) && foodContextWordPattern.MatchString(q) {
		return StrengthStrong
	}
	if foodWeakWordPattern.MatchString(q) {
		if len(foodWeakWordPattern.FindAllString(q, -1)) >= foodWeakThreshold {
			return StrengthStrong
		}
		return StrengthWeak
	}
	return StrengthNone
}

func scheduleStrength(q string) Strength {
	if schedulePattern.MatchString(q) {
		return StrengthStrong
	}
	return StrengthNone
}

func boardStrength(q string) Strength {
	if boardPattern.MatchString(q) {
		return StrengthStrong
	}
	return StrengthNone
}

// smallTalkStrength combines the opener allow-list with a length
// ceiling: long queries are never small talk even when they open with a
// greeting, so legitimately short factual questions keep retrieval.
func smallTalkStrength(q string) Strength {
	if len(q) > smallTalkMaxLen {
		return StrengthNone
	}
	if smallTalkPattern.MatchString(q) {
		return StrengthStrong
	}
	return StrengthNone
}
