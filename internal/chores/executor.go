// Package chores executes parsed commands against durable storage and
// composes the user-facing reply. It owns authorization (admin gating) and
// the contractual context write-back that keeps follow-ups working.
package chores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dustybot/dusty/internal/convo"
	"github.com/dustybot/dusty/internal/dates"
	"github.com/dustybot/dusty/internal/interpret"
	"github.com/dustybot/dusty/internal/storage"
)

// Executor acts on ParsedCommands. One instance serves all senders.
type Executor struct {
	store   *storage.Store
	context *convo.Store
	replier Replier
	sender  Sender
	now     func() time.Time
	logger  *slog.Logger
}

// NewExecutor wires an Executor. A nil clock selects time.Now; a nil
// replier selects PlainReplier; a nil sender selects LogSender.
func NewExecutor(store *storage.Store, ctxStore *convo.Store, replier Replier, sender Sender, clock func() time.Time) *Executor {
	if clock == nil {
		clock = time.Now
	}
	if replier == nil {
		replier = PlainReplier{}
	}
	if sender == nil {
		sender = &LogSender{}
	}
	return &Executor{
		store:   store,
		context: ctxStore,
		replier: replier,
		sender:  sender,
		now:     clock,
		logger:  slog.Default(),
	}
}

// Execute runs one command for a user and returns the reply text. Errors
// are reserved for storage/transport failures; semantic misses (missing
// chore name, unknown person) come back as clarification replies.
func (e *Executor) Execute(ctx context.Context, user storage.User, cmd interpret.ParsedCommand) (string, error) {
	var reply string
	var err error

	switch cmd.Intent {
	case interpret.IntentAdd:
		reply, err = e.handleAdd(user, cmd.Entities)
	case interpret.IntentDone:
		reply, err = e.handleDone(user, cmd.Entities)
	case interpret.IntentList:
		reply, err = e.handleList(user)
	case interpret.IntentClaim:
		reply, err = e.handleClaim(user, cmd.Entities)
	case interpret.IntentDelete:
		reply, err = e.handleDelete(user, cmd.Entities)
	case interpret.IntentUnassign:
		reply, err = e.handleUnassign(user, cmd.Entities)
	case interpret.IntentBroadcast:
		reply, err = e.handleBroadcast(ctx, user, cmd.Entities)
	case interpret.IntentGreetings:
		reply = e.render(ReplyGreetings, "name", user.Name)
	case interpret.IntentHelp:
		reply = e.render(ReplyHelp)
	case interpret.IntentSetTone:
		// Tone switching belongs to the personality layer; acknowledge
		// and move on.
		reply = e.render(ReplyToneAck)
	case interpret.IntentFollowUp:
		reply = e.render(ReplyNeedReferent)
	default:
		reply = e.render(ReplyUnknown)
	}
	if err != nil {
		return "", err
	}

	e.writeBack(user, cmd)
	return reply, nil
}

// writeBack updates conversation context so the next follow-up resolves.
// Unknown commands never touch context; a completed conversation clears it.
func (e *Executor) writeBack(user storage.User, cmd interpret.ParsedCommand) {
	switch cmd.Intent {
	case interpret.IntentUnknown, interpret.IntentFollowUp:
		return
	case interpret.IntentDone:
		e.context.Clear(user.Name)
		return
	}
	e.context.Set(user.Name, convo.Update{
		Intent:   string(cmd.Intent),
		Chore:    cmd.Entities.Chore,
		Assignee: cmd.Entities.Assignee,
		DueDate:  cmd.Entities.DueDate,
	})
}

func (e *Executor) handleAdd(user storage.User, ent interpret.Entities) (string, error) {
	if ent.Chore == "" {
		return e.render(ReplyAddMissing), nil
	}

	assigneeID := ""
	assigneeName := "anyone"
	if ent.Assignee != "" {
		assignee, err := e.store.GetUserByName(ent.Assignee)
		if errors.Is(err, storage.ErrNotFound) {
			return e.render(ReplyUnknownPerson, "assignee", ent.Assignee), nil
		}
		if err != nil {
			return "", fmt.Errorf("looking up assignee %q: %w", ent.Assignee, err)
		}
		assigneeID = assignee.ID
		assigneeName = assignee.Name
	}

	// "postpone it to next week" arrives here as an add against an
	// existing chore: reschedule rather than duplicate.
	if existing, err := e.store.FindOpenChore(ent.Chore, ""); err == nil {
		if !ent.DueDate.IsZero() || ent.Recurrence != "" {
			if err := e.store.UpdateChoreSchedule(existing.ID, ent.DueDate, ent.Recurrence); err != nil {
				return "", fmt.Errorf("rescheduling chore: %w", err)
			}
		}
		if ent.Assignee != "" && assigneeID != existing.AssigneeID {
			if err := e.store.AssignChore(existing.ID, assigneeID); err != nil {
				return "", fmt.Errorf("reassigning chore: %w", err)
			}
		}
		return e.render(ReplyRescheduled, "chore", existing.Name, "due", e.dueSuffix(ent.DueDate)), nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("checking existing chore: %w", err)
	}

	_, err := e.store.CreateChore(storage.Chore{
		Name:       ent.Chore,
		AssigneeID: assigneeID,
		DueDate:    ent.DueDate,
		Recurrence: ent.Recurrence,
		CreatedAt:  e.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("creating chore: %w", err)
	}
	return e.render(ReplyAdded, "chore", ent.Chore, "assignee", assigneeName), nil
}

func (e *Executor) handleDone(user storage.User, ent interpret.Entities) (string, error) {
	if ent.Chore == "" {
		return e.render(ReplyDoneMissing), nil
	}
	chore, err := e.store.FindOpenChore(ent.Chore, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return e.render(ReplyNotFound, "chore", ent.Chore), nil
	}
	if err != nil {
		return "", fmt.Errorf("finding chore: %w", err)
	}

	now := e.now().UTC()
	if err := e.store.CompleteChore(chore.ID, user.ID, now); err != nil {
		return "", fmt.Errorf("completing chore: %w", err)
	}

	// Recurring chores respawn at their next occurrence.
	if next, ok := dates.NextOccurrence(chore.Recurrence, now); ok {
		if _, err := e.store.CreateChore(storage.Chore{
			Name:       chore.Name,
			AssigneeID: chore.AssigneeID,
			DueDate:    next,
			Recurrence: chore.Recurrence,
			CreatedAt:  now,
		}); err != nil {
			return "", fmt.Errorf("rescheduling recurring chore: %w", err)
		}
	}
	return e.render(ReplyDone, "chore", chore.Name, "name", user.Name), nil
}

func (e *Executor) handleList(user storage.User) (string, error) {
	mine, err := e.store.ListOpenChores(user.ID)
	if err != nil {
		return "", fmt.Errorf("listing chores: %w", err)
	}
	free, err := e.store.ListUnassignedChores()
	if err != nil {
		return "", fmt.Errorf("listing unassigned chores: %w", err)
	}
	if len(mine) == 0 && len(free) == 0 {
		return e.render(ReplyNothingToList), nil
	}

	var b strings.Builder
	if len(mine) > 0 {
		b.WriteString("Your chores:\n")
		for _, c := range mine {
			fmt.Fprintf(&b, "- %s%s\n", c.Name, e.dueSuffix(c.DueDate))
		}
	}
	if len(free) > 0 {
		b.WriteString("Up for grabs:\n")
		for _, c := range free {
			fmt.Fprintf(&b, "- %s%s\n", c.Name, e.dueSuffix(c.DueDate))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (e *Executor) handleClaim(user storage.User, ent interpret.Entities) (string, error) {
	if ent.Chore == "" {
		return e.render(ReplyNotFound, "chore", "that"), nil
	}
	chore, err := e.store.FindOpenChore(ent.Chore, "")
	if errors.Is(err, storage.ErrNotFound) {
		return e.render(ReplyNotFound, "chore", ent.Chore), nil
	}
	if err != nil {
		return "", fmt.Errorf("finding chore: %w", err)
	}
	if err := e.store.AssignChore(chore.ID, user.ID); err != nil {
		return "", fmt.Errorf("claiming chore: %w", err)
	}
	return e.render(ReplyClaimed, "chore", chore.Name, "name", user.Name), nil
}

func (e *Executor) handleDelete(user storage.User, ent interpret.Entities) (string, error) {
	if ent.Chore == "" {
		return e.render(ReplyNotFound, "chore", "that"), nil
	}
	chore, err := e.store.FindOpenChore(ent.Chore, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return e.render(ReplyNotFound, "chore", ent.Chore), nil
	}
	if err != nil {
		return "", fmt.Errorf("finding chore: %w", err)
	}
	// Deleting someone else's chore is an admin move.
	if chore.AssigneeID != "" && chore.AssigneeID != user.ID && !user.Admin {
		return e.render(ReplyNotAdmin), nil
	}
	if err := e.store.DeleteChore(chore.ID); err != nil {
		return "", fmt.Errorf("deleting chore: %w", err)
	}
	return e.render(ReplyDeleted, "chore", chore.Name), nil
}

func (e *Executor) handleUnassign(user storage.User, ent interpret.Entities) (string, error) {
	name := ent.Chore
	chore, err := e.store.FindOpenChore(name, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return e.render(ReplyNotFound, "chore", name), nil
	}
	if err != nil {
		return "", fmt.Errorf("finding chore: %w", err)
	}
	if err := e.store.AssignChore(chore.ID, ""); err != nil {
		return "", fmt.Errorf("unassigning chore: %w", err)
	}
	return e.render(ReplyUnassigned, "chore", chore.Name), nil
}

func (e *Executor) handleBroadcast(ctx context.Context, user storage.User, ent interpret.Entities) (string, error) {
	if !user.Admin {
		return e.render(ReplyNotAdmin), nil
	}
	if strings.TrimSpace(ent.Text) == "" {
		return e.render(ReplyBroadcastEmpty), nil
	}

	users, err := e.store.ListUsers()
	if err != nil {
		return "", fmt.Errorf("listing users: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	count := 0
	for _, u := range users {
		if u.ID == user.ID {
			continue
		}
		count++
		g.Go(func() error {
			return e.sender.Send(gctx, u.Phone, ent.Text)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("broadcasting: %w", err)
	}
	return e.render(ReplyBroadcastSent, "count", fmt.Sprintf("%d", count)), nil
}

func (e *Executor) dueSuffix(due time.Time) string {
	if due.IsZero() {
		return ""
	}
	return " (due " + due.Format("Mon Jan 2") + ")"
}

// render is a small convenience over Replier: render(key, k1, v1, k2, v2...).
func (e *Executor) render(key ReplyKey, kv ...string) string {
	data := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i]] = kv[i+1]
	}
	return e.replier.Render(key, data)
}
