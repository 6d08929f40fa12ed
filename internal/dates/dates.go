// Package dates normalizes natural-language date and recurrence phrases.
// Ambiguous relative phrases are always biased toward the future: "Friday"
// said on a Friday means next Friday, never today.
package dates

import (
	"strings"
	"time"

	naturaldate "github.com/tj/go-naturaldate"
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Normalize converts a date phrase into an absolute time anchored at now.
// It returns ok=false when the phrase cannot be parsed; callers must treat
// that as "ask the user", never as "no due date intended".
func Normalize(text string, now time.Time) (time.Time, bool) {
	phrase := strings.ToLower(strings.TrimSpace(text))
	if phrase == "" {
		return time.Time{}, false
	}

	switch phrase {
	case "today":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	}

	// Bare weekday names use explicit forward-only offset arithmetic. A
	// match on today's weekday rolls a full week ahead.
	if wd, ok := weekdays[strings.TrimPrefix(phrase, "next ")]; ok {
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead), true
	}

	// Everything else goes to the general parser, future-preferring.
	parsed, err := naturaldate.Parse(phrase, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, false
	}
	if parsed.Equal(now) {
		// The parser returns the reference time unchanged for inputs it
		// cannot anchor ("someday"); treat that as a failure.
		return time.Time{}, false
	}
	return parsed, true
}

// Extract scans free text for the first recognizable date phrase and
// normalizes it. Weekday mentions that belong to a recurrence phrase
// (preceded by "every") are skipped.
func Extract(text string, now time.Time) (time.Time, bool) {
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		w = strings.Trim(w, ".,!?")
		switch {
		case w == "today" || w == "tomorrow":
			return Normalize(w, now)
		case isWeekday(w):
			if i > 0 {
				prev := strings.Trim(words[i-1], ".,!?")
				if prev == "every" || prev == "and" {
					continue
				}
			}
			return Normalize(w, now)
		case w == "next" && i+1 < len(words):
			next := strings.Trim(words[i+1], ".,!?")
			if _, ok := weekdays[next]; ok {
				return Normalize(next, now)
			}
			if next == "week" {
				return now.AddDate(0, 0, 7), true
			}
			if next == "month" {
				return now.AddDate(0, 1, 0), true
			}
		case w == "in" && i+2 < len(words):
			// "in 3 days", "in 2 weeks": hand the tail to the parser.
			if t, ok := Normalize(strings.Join(words[i:i+3], " "), now); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func isWeekday(w string) bool {
	_, ok := weekdays[w]
	return ok
}
