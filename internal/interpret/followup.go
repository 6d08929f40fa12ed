package interpret

import (
	"strings"
	"time"

	"github.com/dustybot/dusty/internal/convo"
	"github.com/dustybot/dusty/internal/lexicon"
	"github.com/dustybot/dusty/internal/people"
)

// resolveFollowUp turns a follow_up segment into a concrete command using
// the sender's conversation context. Follow-up phrasing is terse ("do it"),
// so a secondary text-level pass picks the intent rather than the lemma
// classifier. With no context available the segment stays follow_up with
// only its raw text attached, signaling that clarification is required.
func resolveFollowUp(segment string, tokens []lexicon.Token, snap convo.Snapshot, hasCtx bool, sender string, resolver *people.Resolver, now time.Time) ParsedCommand {
	if !hasCtx {
		return ParsedCommand{Intent: IntentFollowUp, Entities: Entities{Text: segment}}
	}

	lower := strings.ToLower(segment)
	intent := followUpIntent(lower)
	ent := Entities{}

	// Chore: inherited whenever the segment points back with a pronoun or
	// uses a verb implying continuation.
	if refersToPriorChore(lower, tokens) && snap.LastChore != "" {
		ent.Chore = snap.LastChore
	}

	// Assignee: fresh resolution beats inheritance; "her"/"him" leans on
	// context; "me" is always the sender.
	ent.Assignee = extractAssignee(tokens, sender, resolver)
	if ent.Assignee == "" && containsWord(tokens, "her", "him") && snap.LastAssignee != "" {
		ent.Assignee = snap.LastAssignee
	}

	// Due date: always re-parsed from the segment, never inherited. A
	// follow-up usually exists precisely to change the date. Stale
	// recurrence is likewise never merged in.
	ent.DueDate = extractDue(segment, IntentFollowUp, now)

	if intent == IntentUnknown {
		return ParsedCommand{Intent: IntentFollowUp, Entities: Entities{Text: segment}}
	}
	return ParsedCommand{Intent: intent, Entities: ent}
}

// followUpIntent is the text-level secondary intent pass.
func followUpIntent(lower string) Intent {
	switch {
	case strings.Contains(lower, "done") || strings.Contains(lower, "do it") ||
		strings.Contains(lower, "mark"):
		return IntentDone
	case strings.Contains(lower, "delete") || strings.Contains(lower, "remove"):
		return IntentDelete
	case strings.Contains(lower, "assign") || strings.Contains(lower, "add") ||
		strings.Contains(lower, "remind") || strings.Contains(lower, "postpone") ||
		strings.Contains(lower, "move") || strings.Contains(lower, "reschedule"):
		return IntentAdd
	}
	return IntentUnknown
}

func refersToPriorChore(lower string, tokens []lexicon.Token) bool {
	for _, t := range tokens {
		if t.POS == lexicon.Pronoun && (t.Text == "it" || t.Text == "this" || t.Text == "that") {
			return true
		}
	}
	return strings.Contains(lower, "remind") || strings.Contains(lower, "postpone")
}

func containsWord(tokens []lexicon.Token, words ...string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t.Text == w {
				return true
			}
		}
	}
	return false
}
