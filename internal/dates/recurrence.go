package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Canonical recurrence descriptors.
const (
	Daily    = "daily"
	Weekdays = "weekdays"
	Weekends = "weekends"
	Weekly   = "weekly"
	Biweekly = "biweekly"
	Monthly  = "monthly"
)

var monthDayRe = regexp.MustCompile(`\bon the (\d{1,2})(?:st|nd|rd|th)? of (?:each|every) month\b`)

// Fixed phrases checked in order; more specific entries come first so
// "every other week" never collapses into "every week".
var fixedRecurrences = []struct {
	phrase string
	canon  string
}{
	{"every day", Daily},
	{"everyday", Daily},
	{"every weekday", Weekdays},
	{"every weekend", Weekends},
	{"every other week", Biweekly},
	{"every week", Weekly},
	{"every month", Monthly},
	{"daily", Daily},
	{"weekly", Weekly},
	{"biweekly", Biweekly},
	{"monthly", Monthly},
	{"weekends", Weekends},
	{"weekdays", Weekdays},
}

// NormalizeRecurrence maps a recurrence phrase inside text to a canonical
// descriptor. Weekday lists ("every Monday and Thursday") become
// "weekly (Monday, Thursday)" preserving first-mention order, de-duplicated.
func NormalizeRecurrence(text string) (string, bool) {
	lower := strings.ToLower(text)

	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		return fmt.Sprintf("monthly (day %s)", m[1]), true
	}

	for _, fr := range fixedRecurrences {
		if strings.Contains(lower, fr.phrase) {
			return fr.canon, true
		}
	}

	// Weekday list connected by "and", commas, "every", or "on". Only fires
	// when an "every" (or repeated-day phrasing) signals recurrence; a bare
	// weekday is a due date, not a schedule.
	if !strings.Contains(lower, "every") {
		return "", false
	}
	days := weekdayList(lower)
	if len(days) == 0 {
		return "", false
	}
	return fmt.Sprintf("weekly (%s)", strings.Join(days, ", ")), true
}

// RecurrenceSpan returns the [start, end) byte offsets of the recurrence
// phrase within text, so callers can mask it before scanning for due dates.
// ok is false when no recurrence phrase is present.
func RecurrenceSpan(text string) (int, int, bool) {
	lower := strings.ToLower(text)

	if loc := monthDayRe.FindStringIndex(lower); loc != nil {
		return loc[0], loc[1], true
	}
	for _, fr := range fixedRecurrences {
		if i := strings.Index(lower, fr.phrase); i >= 0 {
			return i, i + len(fr.phrase), true
		}
	}
	if i := strings.Index(lower, "every "); i >= 0 {
		// Extend over the trailing weekday list: "every monday and thursday".
		end := i + len("every")
		words := strings.Fields(lower[end:])
		consumed := end
		for _, w := range words {
			clean := strings.Trim(w, ".,!?")
			if !isWeekday(clean) && clean != "and" && clean != "on" && clean != "every" {
				break
			}
			consumed = strings.Index(lower[consumed:], w) + consumed + len(w)
		}
		if consumed > end {
			return i, consumed, true
		}
	}
	return 0, 0, false
}

func weekdayList(lower string) []string {
	seen := make(map[string]bool)
	var days []string
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ','
	}) {
		clean := strings.Trim(w, ".!?")
		if wd, ok := weekdays[clean]; ok && !seen[clean] {
			seen[clean] = true
			days = append(days, weekdayName(wd))
		}
	}
	return days
}

func weekdayName(wd time.Weekday) string {
	return wd.String()
}

var weeklyDaysRe = regexp.MustCompile(`^weekly \(([A-Za-z, ]+)\)$`)
var monthlyDayRe = regexp.MustCompile(`^monthly \(day (\d{1,2})\)$`)

// NextOccurrence computes the next time a chore with the given canonical
// recurrence descriptor comes due, strictly after the given time. ok is
// false for one-shot chores and unrecognized descriptors.
func NextOccurrence(recurrence string, after time.Time) (time.Time, bool) {
	switch recurrence {
	case "":
		return time.Time{}, false
	case Daily:
		return after.AddDate(0, 0, 1), true
	case Weekly:
		return after.AddDate(0, 0, 7), true
	case Biweekly:
		return after.AddDate(0, 0, 14), true
	case Monthly:
		return after.AddDate(0, 1, 0), true
	case Weekdays:
		next := after.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next, true
	case Weekends:
		next := after.AddDate(0, 0, 1)
		for next.Weekday() != time.Saturday && next.Weekday() != time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next, true
	}

	if m := weeklyDaysRe.FindStringSubmatch(recurrence); m != nil {
		best := time.Time{}
		for _, name := range strings.Split(m[1], ",") {
			wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				continue
			}
			ahead := (int(wd) - int(after.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			candidate := after.AddDate(0, 0, ahead)
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
		return best, !best.IsZero()
	}

	if m := monthlyDayRe.FindStringSubmatch(recurrence); m != nil {
		day := 0
		fmt.Sscanf(m[1], "%d", &day)
		next := time.Date(after.Year(), after.Month(), day,
			after.Hour(), after.Minute(), 0, 0, after.Location())
		if !next.After(after) {
			next = next.AddDate(0, 1, 0)
		}
		return next, true
	}

	return time.Time{}, false
}
