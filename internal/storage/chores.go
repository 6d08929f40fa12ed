package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const choreColumns = `id, name, assignee_id, due_date, recurrence, completed, reminded_at, created_at, completed_at`

// CreateChore inserts a chore and returns it with its generated ID.
func (s *Store) CreateChore(c Chore) (Chore, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	_, err := s.db.Exec(`
		INSERT INTO chores (`+choreColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.AssigneeID, encodeTime(c.DueDate), c.Recurrence,
		boolInt(c.Completed), encodeTime(c.RemindedAt), encodeTime(c.CreatedAt), encodeTime(c.CompletedAt),
	)
	if err != nil {
		return Chore{}, fmt.Errorf("inserting chore %q: %w", c.Name, err)
	}
	return c, nil
}

// GetChore fetches one chore by ID.
func (s *Store) GetChore(id string) (Chore, error) {
	return scanChore(s.db.QueryRow(`SELECT `+choreColumns+` FROM chores WHERE id = ?`, id))
}

// FindOpenChore finds the first incomplete chore whose name contains the
// given text. When assigneeID is non-empty the search is limited to that
// assignee first, falling back to any assignee on a miss.
func (s *Store) FindOpenChore(name, assigneeID string) (Chore, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Chore{}, ErrNotFound
	}
	pattern := "%" + name + "%"

	if assigneeID != "" {
		c, err := scanChore(s.db.QueryRow(`
			SELECT `+choreColumns+` FROM chores
			WHERE completed = 0 AND assignee_id = ? AND name LIKE ?
			ORDER BY created_at LIMIT 1`, assigneeID, pattern))
		if err == nil {
			return c, nil
		}
		if err != ErrNotFound {
			return Chore{}, err
		}
	}
	return scanChore(s.db.QueryRow(`
		SELECT `+choreColumns+` FROM chores
		WHERE completed = 0 AND name LIKE ?
		ORDER BY created_at LIMIT 1`, pattern))
}

// ListOpenChores returns incomplete chores for one assignee (or all open
// chores when assigneeID is empty), soonest due first.
func (s *Store) ListOpenChores(assigneeID string) ([]Chore, error) {
	query := `SELECT ` + choreColumns + ` FROM chores WHERE completed = 0`
	args := []any{}
	if assigneeID != "" {
		query += ` AND assignee_id = ?`
		args = append(args, assigneeID)
	}
	query += ` ORDER BY CASE WHEN due_date = '' THEN 1 ELSE 0 END, due_date`
	return s.queryChores(query, args...)
}

// ListUnassignedChores returns open chores nobody has claimed.
func (s *Store) ListUnassignedChores() ([]Chore, error) {
	return s.queryChores(`
		SELECT ` + choreColumns + ` FROM chores
		WHERE completed = 0 AND assignee_id = ''
		ORDER BY CASE WHEN due_date = '' THEN 1 ELSE 0 END, due_date`)
}

// DueChores returns open, not-yet-reminded chores due at or before the
// cutoff. Chores without a due date never come due.
func (s *Store) DueChores(cutoff time.Time) ([]Chore, error) {
	return s.queryChores(`
		SELECT `+choreColumns+` FROM chores
		WHERE completed = 0 AND reminded_at = '' AND due_date != '' AND due_date <= ?
		ORDER BY due_date`, encodeTime(cutoff))
}

// MarkReminded records that a reminder went out for the chore.
func (s *Store) MarkReminded(id string, at time.Time) error {
	return s.execOne(`UPDATE chores SET reminded_at = ? WHERE id = ?`, encodeTime(at), id)
}

// CompleteChore marks the chore done and appends a history entry.
func (s *Store) CompleteChore(id, completedByID string, at time.Time) error {
	c, err := s.GetChore(id)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning completion transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE chores SET completed = 1, completed_at = ? WHERE id = ?`,
		encodeTime(at), id); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO chore_history (id, chore_name, completed_by_id, completed_at)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(), c.Name, completedByID, encodeTime(at)); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateChoreSchedule rewrites a chore's due date and recurrence, clearing
// any pending reminder so the new date gets its own notification.
func (s *Store) UpdateChoreSchedule(id string, due time.Time, recurrence string) error {
	return s.execOne(`UPDATE chores SET due_date = ?, recurrence = ?, reminded_at = '' WHERE id = ?`,
		encodeTime(due), recurrence, id)
}

// AssignChore hands the chore to a new assignee ("" unassigns it).
func (s *Store) AssignChore(id, assigneeID string) error {
	return s.execOne(`UPDATE chores SET assignee_id = ? WHERE id = ?`, assigneeID, id)
}

// DeleteChore removes a chore outright.
func (s *Store) DeleteChore(id string) error {
	return s.execOne(`DELETE FROM chores WHERE id = ?`, id)
}

// ListHistory returns completion records, most recent first.
func (s *Store) ListHistory(limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, chore_name, completed_by_id, completed_at
		FROM chore_history ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var completedAt string
		if err := rows.Scan(&e.ID, &e.ChoreName, &e.CompletedByID, &completedAt); err != nil {
			return nil, err
		}
		if e.CompletedAt, err = decodeTime(completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) queryChores(query string, args ...any) ([]Chore, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chores []Chore
	for rows.Next() {
		c, err := scanChoreRow(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChore(row *sql.Row) (Chore, error) {
	c, err := scanChoreRow(row)
	if err == sql.ErrNoRows {
		return Chore{}, ErrNotFound
	}
	return c, err
}

func scanChoreRow(row scannable) (Chore, error) {
	var c Chore
	var completed int
	var due, reminded, created, completedAt string
	err := row.Scan(&c.ID, &c.Name, &c.AssigneeID, &due, &c.Recurrence,
		&completed, &reminded, &created, &completedAt)
	if err != nil {
		return Chore{}, err
	}
	c.Completed = completed != 0
	for _, f := range []struct {
		raw string
		dst *time.Time
	}{
		{due, &c.DueDate},
		{reminded, &c.RemindedAt},
		{created, &c.CreatedAt},
		{completedAt, &c.CompletedAt},
	} {
		t, err := decodeTime(f.raw)
		if err != nil {
			return Chore{}, fmt.Errorf("parsing chore timestamp: %w", err)
		}
		*f.dst = t
	}
	return c, nil
}
