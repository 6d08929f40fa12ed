package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateUser inserts a user. Name is stored lowercase since it doubles as
// the canonical person identifier.
func (s *Store) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Name = strings.ToLower(strings.TrimSpace(u.Name))
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, phone, aliases, admin)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Phone, u.Aliases, boolInt(u.Admin),
	)
	if err != nil {
		return User{}, fmt.Errorf("inserting user %s: %w", u.Name, err)
	}
	return u, nil
}

// GetUserByID fetches one user by ID.
func (s *Store) GetUserByID(id string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, name, phone, aliases, admin FROM users WHERE id = ?`, id))
}

// GetUserByPhone looks a user up by phone number.
func (s *Store) GetUserByPhone(phone string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, name, phone, aliases, admin FROM users WHERE phone = ?`, phone))
}

// GetUserByName looks a user up by name, case-insensitively.
func (s *Store) GetUserByName(name string) (User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT id, name, phone, aliases, admin FROM users WHERE name = ?`,
		strings.ToLower(strings.TrimSpace(name))))
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, aliases, admin FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var admin int
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone, &u.Aliases, &admin); err != nil {
			return nil, err
		}
		u.Admin = admin != 0
		users = append(users, u)
	}
	return users, rows.Err()
}

// Aliases builds the surface-mention table used by the person resolver:
// every user's name plus their nicknames, all mapping to the user's name.
func (s *Store) Aliases() map[string]string {
	users, err := s.ListUsers()
	if err != nil {
		return map[string]string{}
	}
	aliases := make(map[string]string, len(users))
	for _, u := range users {
		aliases[u.Name] = u.Name
		for _, a := range strings.Split(u.Aliases, ",") {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				aliases[a] = u.Name
			}
		}
	}
	return aliases
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var admin int
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Aliases, &admin)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Admin = admin != 0
	return u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
