// Package interpret turns free-form, possibly multi-clause messages into
// structured commands. The pipeline is Segmenter -> Intent Classifier ->
// Entity Extractor, with follow-up references ("do it", "remind her
// tomorrow") resolved against per-sender conversation context.
package interpret

import "time"

// Intent is the closed set of command tags the interpreter emits.
type Intent string

const (
	IntentAdd       Intent = "add"
	IntentDone      Intent = "done"
	IntentList      Intent = "list"
	IntentClaim     Intent = "claim"
	IntentDelete    Intent = "delete"
	IntentUnassign  Intent = "unassign"
	IntentBroadcast Intent = "broadcast"
	IntentGreetings Intent = "greetings"
	IntentHelp      Intent = "help"
	IntentSetTone   Intent = "set_tone"
	IntentFollowUp  Intent = "follow_up"
	IntentUnknown   Intent = "unknown"
)

// Entities is a partial entity record. Zero values mean "not resolved";
// the interpreter never stores placeholder defaults, so callers can detect
// missing fields and prompt for them.
type Entities struct {
	// Chore is the chore description, lowercase.
	Chore string
	// Assignee is a canonical person identifier, never raw surface text
	// once resolution succeeds.
	Assignee string
	// DueDate is absolute; zero means no due date was resolved.
	DueDate time.Time
	// Recurrence is a canonical descriptor ("daily", "weekly (Saturday)").
	Recurrence string
	// Text carries raw payloads: the broadcast body, or the unresolved
	// segment of a follow-up that had no context to lean on.
	Text string
}

// ParsedCommand is the unit of interpreter output. Intent is never empty.
type ParsedCommand struct {
	Intent   Intent
	Entities Entities
}
