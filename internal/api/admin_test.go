package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dustybot/dusty/internal/storage"
)

const testToken = "test-token"

func newAdminFixture(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewAdminHandler(AdminDeps{Store: store, Token: testToken}), store
}

func adminRequest(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	h, _ := newAdminFixture(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "nope", http.StatusUnauthorized},
		{"valid token", testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := adminRequest(t, h, http.MethodGet, "/chores", tt.token)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdminListChores(t *testing.T) {
	h, store := newAdminFixture(t)
	assigned, err := store.CreateChore(storage.Chore{Name: "dishes", AssigneeID: "u1"})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	unassigned, err := store.CreateChore(storage.Chore{Name: "mow lawn"})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}

	var chores []storage.Chore
	rec := adminRequest(t, h, http.MethodGet, "/chores", testToken)
	if err := json.Unmarshal(rec.Body.Bytes(), &chores); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(chores) != 2 {
		t.Errorf("got %d chores, want 2", len(chores))
	}

	rec = adminRequest(t, h, http.MethodGet, "/chores?unassigned=true", testToken)
	chores = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &chores); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(chores) != 1 || chores[0].ID != unassigned.ID {
		t.Errorf("unassigned = %+v", chores)
	}

	rec = adminRequest(t, h, http.MethodGet, "/chores?assignee=u1", testToken)
	chores = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &chores); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(chores) != 1 || chores[0].ID != assigned.ID {
		t.Errorf("assignee filter = %+v", chores)
	}
}

func TestAdminListChoresEmpty(t *testing.T) {
	h, _ := newAdminFixture(t)

	rec := adminRequest(t, h, http.MethodGet, "/chores", testToken)
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestAdminGetChore(t *testing.T) {
	h, store := newAdminFixture(t)
	c, err := store.CreateChore(storage.Chore{Name: "dishes"})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}

	rec := adminRequest(t, h, http.MethodGet, "/chores/"+c.ID, testToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got storage.Chore
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID != c.ID || got.Name != "dishes" {
		t.Errorf("chore = %+v", got)
	}

	rec = adminRequest(t, h, http.MethodGet, "/chores/nope", testToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing chore: status = %d, want 404", rec.Code)
	}
}

func TestAdminDeleteChore(t *testing.T) {
	h, store := newAdminFixture(t)
	c, err := store.CreateChore(storage.Chore{Name: "dishes"})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}

	rec := adminRequest(t, h, http.MethodDelete, "/chores/"+c.ID, testToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := store.GetChore(c.ID); err != storage.ErrNotFound {
		t.Errorf("chore still present after delete: %v", err)
	}

	rec = adminRequest(t, h, http.MethodDelete, "/chores/"+c.ID, testToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete: status = %d, want 404", rec.Code)
	}
}

func TestAdminListUsers(t *testing.T) {
	h, store := newAdminFixture(t)
	if _, err := store.CreateUser(storage.User{Name: "becky", Phone: "+15550001"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	rec := adminRequest(t, h, http.MethodGet, "/users", testToken)
	var users []storage.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(users) != 1 || users[0].Name != "becky" {
		t.Errorf("users = %+v", users)
	}
}

func adminPost(t *testing.T, h http.Handler, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminCreateUser(t *testing.T) {
	h, store := newAdminFixture(t)

	rec := adminPost(t, h, "/users", testToken, `{"name": "Becky", "phone": "+15550001", "aliases": "becks", "admin": true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created storage.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" || created.Name != "becky" || created.Phone != "+15550001" || !created.Admin {
		t.Errorf("created user = %+v", created)
	}

	stored, err := store.GetUserByName("becky")
	if err != nil {
		t.Fatalf("GetUserByName: %v", err)
	}
	if stored.Aliases != "becks" {
		t.Errorf("aliases = %q, want becks", stored.Aliases)
	}
}

func TestAdminCreateUserValidation(t *testing.T) {
	h, _ := newAdminFixture(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"phone": "+15550001"}`, http.StatusBadRequest},
		{"missing phone", `{"name": "becky"}`, http.StatusBadRequest},
		{"malformed JSON", `{"name": `, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := adminPost(t, h, "/users", testToken, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdminCreateUserDuplicate(t *testing.T) {
	h, store := newAdminFixture(t)
	if _, err := store.CreateUser(storage.User{Name: "becky", Phone: "+15550001"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	rec := adminPost(t, h, "/users", testToken, `{"name": "Becky", "phone": "+15550002"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestAdminCreateUserUnauthenticated(t *testing.T) {
	h, _ := newAdminFixture(t)

	rec := adminPost(t, h, "/users", "", `{"name": "becky", "phone": "+15550001"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAdminListHistory(t *testing.T) {
	h, store := newAdminFixture(t)
	c, err := store.CreateChore(storage.Chore{Name: "dishes"})
	if err != nil {
		t.Fatalf("CreateChore: %v", err)
	}
	if err := store.CompleteChore(c.ID, "u1", time.Now().UTC()); err != nil {
		t.Fatalf("CompleteChore: %v", err)
	}

	rec := adminRequest(t, h, http.MethodGet, "/history?limit=5", testToken)
	var entries []storage.HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 1 || entries[0].ChoreName != "dishes" {
		t.Errorf("history = %+v", entries)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=500", 100},
		{"limit=-3", 20},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/history?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20, 100); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
