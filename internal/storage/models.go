package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User is a household member reachable by phone.
type User struct {
	ID      string
	Name    string // lowercase; doubles as the canonical person identifier
	Phone   string
	Aliases string // comma-separated nicknames
	Admin   bool
}

// Chore is a unit of household work, optionally assigned, due, or recurring.
type Chore struct {
	ID          string
	Name        string
	AssigneeID  string // empty = unassigned
	DueDate     time.Time
	Recurrence  string // canonical descriptor, empty = one-shot
	Completed   bool
	RemindedAt  time.Time
	CreatedAt   time.Time
	CompletedAt time.Time
}

// HistoryEntry records a completed chore for the household ledger.
type HistoryEntry struct {
	ID            string
	ChoreName     string
	CompletedByID string
	CompletedAt   time.Time
}

// Job is a queued outbound delivery (reminder or broadcast message).
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
