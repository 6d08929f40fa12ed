package interpret

import (
	"regexp"
	"strings"
	"time"

	"github.com/dustybot/dusty/internal/dates"
	"github.com/dustybot/dusty/internal/lexicon"
	"github.com/dustybot/dusty/internal/people"
)

// extraction is the extractor's working record. Chores is a list because an
// "add" segment can mention several chores ("dishes and vacuuming") that fan
// out into one ParsedCommand each.
type extraction struct {
	Chores     []string
	Assignee   string
	DueDate    time.Time
	Recurrence string
	Text       string
}

var dueRe = regexp.MustCompile(`\b(?:due|by)\s+(.+)$`)
var broadcastRe = regexp.MustCompile(`\b(?:broadcast|announce)\s+(.+)$`)

// intentsWithChores is the set of intents whose segments name a chore.
var intentsWithChores = map[Intent]bool{
	IntentAdd:      true,
	IntentDone:     true,
	IntentClaim:    true,
	IntentDelete:   true,
	IntentUnassign: true,
}

// extractEntities pulls a partial entity record out of one classified
// segment. It never fails; unresolved fields stay zero and the command
// execution layer prompts for whatever it still needs.
func extractEntities(segment string, tokens []lexicon.Token, intent Intent, trigger int, sender string, resolver *people.Resolver, now time.Time) extraction {
	var ext extraction

	if intent == IntentBroadcast {
		if m := broadcastRe.FindStringSubmatch(strings.ToLower(segment)); m != nil {
			ext.Text = strings.TrimSpace(m[1])
		}
		return ext
	}

	if rec, ok := dates.NormalizeRecurrence(segment); ok {
		ext.Recurrence = rec
	}

	ext.DueDate = extractDue(segment, intent, now)
	ext.Assignee = extractAssignee(tokens, sender, resolver)
	if intentsWithChores[intent] {
		ext.Chores = extractChores(tokens, intent, trigger)
	}
	return ext
}

// extractDue finds a due date: an explicit "due <phrase>" wins; otherwise
// add-type segments get a whole-segment scan. Relative phrases always bias
// toward the nearest future occurrence.
func extractDue(segment string, intent Intent, now time.Time) time.Time {
	masked := segment
	if s, e, ok := dates.RecurrenceSpan(segment); ok {
		masked = segment[:s] + strings.Repeat(" ", e-s) + segment[e:]
	}

	if m := dueRe.FindStringSubmatch(strings.ToLower(masked)); m != nil {
		phrase := strings.TrimSpace(m[1])
		if t, ok := dates.Normalize(phrase, now); ok {
			return t
		}
		if t, ok := dates.Extract(phrase, now); ok {
			return t
		}
	}

	if intent == IntentAdd || intent == IntentFollowUp {
		if t, ok := dates.Extract(masked, now); ok {
			return t
		}
	}
	return time.Time{}
}

// extractAssignee resolves the segment's assignee mention, if any. Priority:
// a literal "me", then the first PERSON span, then the noun following
// "to"/"for". Returns "" when nothing matched; the orchestrator decides
// whether the sender is the implicit assignee.
func extractAssignee(tokens []lexicon.Token, sender string, resolver *people.Resolver) string {
	for _, t := range tokens {
		if t.Text == "me" || t.Text == "myself" {
			return sender
		}
	}
	for _, t := range tokens {
		if t.Entity == lexicon.EntityPerson {
			return resolver.Resolve(t.Text, sender)
		}
	}
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i].Text != "to" && tokens[i].Text != "for" {
			continue
		}
		next := tokens[i+1]
		if (next.POS == lexicon.Noun || next.POS == lexicon.ProperNoun) && next.Entity != lexicon.EntityDate {
			return resolver.Resolve(next.Text, sender)
		}
	}
	return ""
}

// extractChores collects noun phrases and gerund verbs that are not dates,
// people, or the intent trigger itself. Contiguous qualifying tokens join
// into a single phrase; separate phrases become separate chores.
func extractChores(tokens []lexicon.Token, intent Intent, trigger int) []string {
	qualifies := func(i int) bool {
		t := tokens[i]
		if i == trigger {
			return false
		}
		if t.Entity == lexicon.EntityDate || t.Entity == lexicon.EntityPerson {
			return false
		}
		// Nouns in assignee position ("to zork") belong to the assignee.
		if i > 0 && (tokens[i-1].Text == "to" || tokens[i-1].Text == "for") {
			return false
		}
		switch t.POS {
		case lexicon.Noun, lexicon.ProperNoun:
			return true
		case lexicon.Verb:
			return strings.HasSuffix(t.Text, "ing")
		}
		return false
	}

	var phrases []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, strings.Join(current, " "))
			current = nil
		}
	}
	for i := range tokens {
		switch {
		case qualifies(i):
			current = append(current, tokens[i].Text)
		case tokens[i].POS == lexicon.Determiner && len(current) > 0:
			// Determiners inside a phrase ("clean the garage") don't split
			// it into separate chores.
		default:
			flush()
		}
	}
	flush()

	if len(phrases) == 0 {
		return nil
	}
	if intent != IntentAdd {
		return phrases[:1]
	}
	return phrases
}
