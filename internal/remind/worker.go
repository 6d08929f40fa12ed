// Package remind runs the reminder loop: due chores become delivery jobs in
// the SQLite queue, and a polling worker pushes them through the outbound
// Sender with retry and backoff handled by the queue.
package remind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dustybot/dusty/internal/chores"
	"github.com/dustybot/dusty/internal/storage"
)

// Store abstracts the queue and chore lookups the worker needs.
type Store interface {
	DueChores(cutoff time.Time) ([]storage.Chore, error)
	MarkReminded(id string, at time.Time) error
	GetUserByID(id string) (storage.User, error)
	EnqueueJob(job storage.Job) error
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// Worker scans for due chores and delivers queued reminder/broadcast jobs.
type Worker struct {
	store  Store
	sender chores.Sender
	poll   time.Duration
	lead   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewWorker creates a Worker. pollInterval <= 0 defaults to 30s; lead is
// how far ahead of a due date the reminder fires (<= 0 means only overdue).
func NewWorker(store Store, sender chores.Sender, pollInterval, lead time.Duration, clock func() time.Time) *Worker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Worker{
		store:  store,
		sender: sender,
		poll:   pollInterval,
		lead:   lead,
		now:    clock,
		logger: slog.Default(),
	}
}

// Run loops until ctx is cancelled: enqueue reminders for newly due chores,
// then drain the job queue.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := w.ScanOnce(); err != nil {
			w.logger.Error("reminder scan failed", "error", err)
		}

		for {
			done, err := w.DeliverOnce(ctx)
			if err != nil {
				w.logger.Error("delivery iteration failed", "error", err)
			}
			if !done {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// ScanOnce finds chores whose due date falls within the lead window and
// enqueues one reminder job per chore with a reachable assignee.
func (w *Worker) ScanOnce() error {
	now := w.now().UTC()
	due, err := w.store.DueChores(now.Add(w.lead))
	if err != nil {
		return fmt.Errorf("scanning due chores: %w", err)
	}

	for _, c := range due {
		if c.AssigneeID == "" {
			// Nobody to nag. The chore shows up in "list" until claimed.
			continue
		}
		user, err := w.store.GetUserByID(c.AssigneeID)
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.Warn("due chore has unknown assignee", "chore", c.Name, "assignee_id", c.AssigneeID)
			continue
		}
		if err != nil {
			return fmt.Errorf("loading assignee for %q: %w", c.Name, err)
		}

		payload, err := json.Marshal(deliveryPayload{
			Phone: user.Phone,
			Body:  reminderBody(c, now),
		})
		if err != nil {
			return fmt.Errorf("encoding reminder payload: %w", err)
		}
		if err := w.store.EnqueueJob(storage.Job{
			ID:          uuid.New().String(),
			Type:        storage.JobReminder,
			PayloadJSON: string(payload),
		}); err != nil {
			return fmt.Errorf("enqueueing reminder for %q: %w", c.Name, err)
		}
		if err := w.store.MarkReminded(c.ID, now); err != nil {
			return fmt.Errorf("marking %q reminded: %w", c.Name, err)
		}
		w.logger.Debug("reminder queued", "chore", c.Name, "to", user.Name)
	}
	return nil
}

// DeliverOnce claims and delivers a single queued job. Returns true if a
// job was processed, regardless of success.
func (w *Worker) DeliverOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{storage.JobReminder, storage.JobBroadcast})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.deliver(ctx, job); err != nil {
		w.logger.Warn("delivery failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}
	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

type deliveryPayload struct {
	Phone string `json:"phone"`
	Body  string `json:"body"`
}

func (w *Worker) deliver(ctx context.Context, job *storage.Job) error {
	var payload deliveryPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	return w.sender.Send(ctx, payload.Phone, payload.Body)
}

func reminderBody(c storage.Chore, now time.Time) string {
	if c.DueDate.Before(now) {
		return fmt.Sprintf("Overdue: %q was due %s.", c.Name, c.DueDate.Format("Mon Jan 2"))
	}
	return fmt.Sprintf("Reminder: %q is due %s.", c.Name, c.DueDate.Format("Mon Jan 2"))
}
