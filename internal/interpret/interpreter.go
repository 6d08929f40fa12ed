package interpret

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dustybot/dusty/internal/convo"
	"github.com/dustybot/dusty/internal/lexicon"
	"github.com/dustybot/dusty/internal/people"
)

// Interpreter composes the pipeline: segment, classify, extract, resolve
// follow-ups against the Context Store, and emit an ordered command list.
// It is stateless apart from the store and deterministic for a given input,
// sender, and context snapshot.
type Interpreter struct {
	lex      lexicon.Analyzer
	resolver *people.Resolver
	store    *convo.Store
	now      func() time.Time
	logger   *slog.Logger
}

// New builds an Interpreter. A nil clock selects time.Now.
func New(lex lexicon.Analyzer, resolver *people.Resolver, store *convo.Store, clock func() time.Time) *Interpreter {
	if clock == nil {
		clock = time.Now
	}
	return &Interpreter{
		lex:      lex,
		resolver: resolver,
		store:    store,
		now:      clock,
		logger:   slog.Default(),
	}
}

// Trigger lemmas that create or hand off a chore; only these make the
// sender the implicit assignee. Continuation verbs (remind, postpone)
// must not steal the chore from whoever already owns it.
var assigningLemmas = map[string]bool{
	"add": true, "create": true, "assign": true, "give": true, "schedule": true,
}

// Interpret parses one raw message into an ordered list of commands. The
// Context Store is updated segment by segment, in order, so a follow-up in
// a later clause can reference a command from an earlier clause of the same
// message.
func (in *Interpreter) Interpret(message, sender string) []ParsedCommand {
	msg := strings.ToLower(strings.TrimSpace(message))
	segments := Segment(msg)

	var out []ParsedCommand
	for _, seg := range segments {
		cmds := in.interpretSegment(seg, sender)
		for _, cmd := range cmds {
			in.remember(sender, cmd)
		}
		out = append(out, cmds...)
	}
	return out
}

func (in *Interpreter) interpretSegment(seg, sender string) []ParsedCommand {
	tokens := in.lex.Analyze(seg)
	intent, trigger := Classify(seg, tokens)
	now := in.now()
	snap, hasCtx := in.store.Get(sender)

	in.logger.Debug("classified segment", "segment", seg, "intent", intent)

	switch intent {
	case IntentUnknown:
		return []ParsedCommand{{Intent: IntentUnknown}}
	case IntentFollowUp:
		return []ParsedCommand{resolveFollowUp(seg, tokens, snap, hasCtx, sender, in.resolver, now)}
	case IntentSetTone, IntentGreetings, IntentHelp, IntentList:
		return []ParsedCommand{{Intent: intent}}
	}

	ext := extractEntities(seg, tokens, intent, trigger, sender, in.resolver, now)

	ent := Entities{
		Assignee:   ext.Assignee,
		DueDate:    ext.DueDate,
		Recurrence: ext.Recurrence,
		Text:       ext.Text,
	}
	if len(ext.Chores) > 0 {
		ent.Chore = ext.Chores[0]
	}

	// Keyword-classified segments can still point back at prior context:
	// "delete it" carries an explicit intent but an anaphoric chore.
	if hasCtx {
		if ent.Chore == "" && refersToPriorChore(seg, tokens) && snap.LastChore != "" {
			ent.Chore = snap.LastChore
		}
		if ent.Assignee == "" && containsWord(tokens, "her", "him") && snap.LastAssignee != "" {
			ent.Assignee = snap.LastAssignee
		}
	}

	// A chore handed to nobody in particular belongs to the sender.
	if intent == IntentAdd && ent.Assignee == "" && trigger >= 0 && assigningLemmas[tokens[trigger].Lemma] {
		ent.Assignee = sender
	}

	cmds := []ParsedCommand{{Intent: intent, Entities: ent}}
	// Multi-chore add segments fan out into one command per chore, sharing
	// assignee, due date, and recurrence.
	if len(ext.Chores) > 1 {
		for _, chore := range ext.Chores[1:] {
			extra := ent
			extra.Chore = chore
			cmds = append(cmds, ParsedCommand{Intent: intent, Entities: extra})
		}
	}
	return cmds
}

// remember writes resolved values back to the Context Store. Unknown
// segments never touch context; unresolved follow-ups have nothing to add.
func (in *Interpreter) remember(sender string, cmd ParsedCommand) {
	if cmd.Intent == IntentUnknown || cmd.Intent == IntentFollowUp {
		return
	}
	in.store.Set(sender, convo.Update{
		Intent:   string(cmd.Intent),
		Chore:    cmd.Entities.Chore,
		Assignee: cmd.Entities.Assignee,
		DueDate:  cmd.Entities.DueDate,
	})
}
