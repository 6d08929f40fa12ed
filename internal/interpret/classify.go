package interpret

import (
	"strings"

	"github.com/dustybot/dusty/internal/lexicon"
)

// intentKeywords maps token lemmas to intents. The first token whose lemma
// appears here decides the segment's intent; an explicit keyword is always
// stronger evidence than a pronoun pattern.
var intentKeywords = map[string]Intent{
	"add":        IntentAdd,
	"create":     IntentAdd,
	"assign":     IntentAdd,
	"give":       IntentAdd,
	"remind":     IntentAdd,
	"schedule":   IntentAdd,
	"postpone":   IntentAdd,
	"reschedule": IntentAdd,
	"move":       IntentAdd,

	"done":     IntentDone,
	"complete": IntentDone,
	"finish":   IntentDone,
	"mark":     IntentDone,

	"list": IntentList,
	"show": IntentList,
	"view": IntentList,

	"claim": IntentClaim,
	"take":  IntentClaim,
	"mine":  IntentClaim,

	"unassign": IntentUnassign,

	"delete": IntentDelete,
	"remove": IntentDelete,
	"trash":  IntentDelete,

	"broadcast": IntentBroadcast,
	"announce":  IntentBroadcast,

	"hi":    IntentGreetings,
	"hello": IntentGreetings,
	"hey":   IntentGreetings,
	"yo":    IntentGreetings,
	"howdy": IntentGreetings,
	"sup":   IntentGreetings,

	"help":    IntentHelp,
	"command": IntentHelp,
}

// Multi-word phrasings checked before the token scan; without these,
// "remove me from dishes" would read as a delete.
var phraseIntents = []struct {
	phrase string
	intent Intent
}{
	{"what can you do", IntentHelp},
	{"give up", IntentUnassign},
	{"remove me", IntentUnassign},
	{"give me", IntentClaim},
	{"i'll take", IntentClaim},
	{"set tone", IntentSetTone},
	{"be nice", IntentSetTone},
	{"be mean", IntentSetTone},
	{"be sarcastic", IntentSetTone},
}

// Verbs that suggest resuming a prior action when paired with an anaphoric
// pronoun. Most of these double as intent keywords and are caught earlier;
// the set matters for bare phrasings like "do it".
var followUpVerbs = map[string]bool{
	"do":         true,
	"mark":       true,
	"remind":     true,
	"delete":     true,
	"assign":     true,
	"postpone":   true,
	"reschedule": true,
}

// Classify labels one segment with an intent. It returns the index of the
// keyword token that decided the intent, or -1 when the decision came from
// a phrase match or the follow-up detector.
func Classify(segment string, tokens []lexicon.Token) (Intent, int) {
	lower := strings.ToLower(segment)
	for _, p := range phraseIntents {
		if strings.Contains(lower, p.phrase) {
			return p.intent, -1
		}
	}

	for i, t := range tokens {
		if intent, ok := intentKeywords[t.Lemma]; ok {
			return intent, i
		}
	}

	if detectFollowUp(tokens) {
		return IntentFollowUp, -1
	}
	return IntentUnknown, -1
}

// detectFollowUp fires when a segment pairs a resuming verb with a bare
// anaphoric pronoun, e.g. "do it", "postpone that".
func detectFollowUp(tokens []lexicon.Token) bool {
	var verb, anaphor bool
	for _, t := range tokens {
		if followUpVerbs[t.Lemma] {
			verb = true
		}
		if t.POS == lexicon.Pronoun && lexicon.IsAnaphor(t.Text) {
			anaphor = true
		}
	}
	return verb && anaphor
}
