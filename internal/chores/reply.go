package chores

import "strings"

// ReplyKey identifies a response situation. The personality layer (tone,
// snark, seasonal flavor) plugs in behind Replier; the executor only picks
// keys and fills slots.
type ReplyKey string

const (
	ReplyAdded          ReplyKey = "added"
	ReplyAddMissing     ReplyKey = "add_missing_chore"
	ReplyDone           ReplyKey = "done"
	ReplyDoneMissing    ReplyKey = "done_missing_chore"
	ReplyNotFound       ReplyKey = "chore_not_found"
	ReplyClaimed        ReplyKey = "claimed"
	ReplyDeleted        ReplyKey = "deleted"
	ReplyUnassigned     ReplyKey = "unassigned"
	ReplyBroadcastSent  ReplyKey = "broadcast_sent"
	ReplyNotAdmin       ReplyKey = "not_admin"
	ReplyUnknownPerson  ReplyKey = "unknown_person"
	ReplyGreetings      ReplyKey = "greetings"
	ReplyHelp           ReplyKey = "help"
	ReplyUnknown        ReplyKey = "unknown"
	ReplyNeedReferent   ReplyKey = "need_referent"
	ReplyToneAck        ReplyKey = "tone_ack"
	ReplyNothingToList  ReplyKey = "nothing_to_list"
	ReplyRescheduled    ReplyKey = "rescheduled"
	ReplyBroadcastEmpty ReplyKey = "broadcast_empty"
)

// Replier renders a user-facing reply for a key. Slots like {chore} and
// {name} are substituted from data.
type Replier interface {
	Render(key ReplyKey, data map[string]string) string
}

// PlainReplier renders flat, deterministic templates with no personality.
type PlainReplier struct{}

var plainTemplates = map[ReplyKey]string{
	ReplyAdded:          "Added \"{chore}\" for {assignee}.",
	ReplyAddMissing:     "What chore should I add? Try \"add dishes to me due Friday\".",
	ReplyDone:           "Marked \"{chore}\" as done. Nice work, {name}.",
	ReplyDoneMissing:    "Which chore did you finish?",
	ReplyNotFound:       "I couldn't find an open chore matching \"{chore}\".",
	ReplyClaimed:        "\"{chore}\" is yours now, {name}.",
	ReplyDeleted:        "Deleted \"{chore}\".",
	ReplyUnassigned:     "\"{chore}\" is up for grabs again.",
	ReplyBroadcastSent:  "Broadcast sent to {count} people.",
	ReplyNotAdmin:       "Only admins can do that.",
	ReplyUnknownPerson:  "I don't know anyone called \"{assignee}\".",
	ReplyGreetings:      "Hi {name}. Text \"help\" to see what I can do.",
	ReplyHelp:           "I understand: add <chore> to <person> due <date>, done <chore>, list, claim <chore>, delete <chore>, unassign <chore>, broadcast <message>.",
	ReplyUnknown:        "I didn't catch that. Text \"help\" for examples.",
	ReplyNeedReferent:   "What are you referring to? I lost the thread.",
	ReplyToneAck:        "Noted.",
	ReplyNothingToList:  "No open chores. Suspicious, but fine.",
	ReplyRescheduled:    "Rescheduled \"{chore}\"{due}.",
	ReplyBroadcastEmpty: "Broadcast what, exactly?",
}

func (PlainReplier) Render(key ReplyKey, data map[string]string) string {
	tmpl, ok := plainTemplates[key]
	if !ok {
		return plainTemplates[ReplyUnknown]
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
