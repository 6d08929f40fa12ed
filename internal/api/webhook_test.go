package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dustybot/dusty/internal/convo"
	"github.com/dustybot/dusty/internal/interpret"
	"github.com/dustybot/dusty/internal/lexicon"
	"github.com/dustybot/dusty/internal/people"
	"github.com/dustybot/dusty/internal/storage"
)

type stubUsers struct {
	byPhone map[string]storage.User
}

func (s *stubUsers) GetUserByPhone(phone string) (storage.User, error) {
	u, ok := s.byPhone[phone]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

type stubExecutor struct {
	commands []interpret.ParsedCommand
	users    []storage.User
	reply    string
	err      error
}

func (s *stubExecutor) Execute(_ context.Context, user storage.User, cmd interpret.ParsedCommand) (string, error) {
	s.commands = append(s.commands, cmd)
	s.users = append(s.users, user)
	return s.reply, s.err
}

func newWebhookFixture(exec *stubExecutor) http.Handler {
	tagger := lexicon.NewTagger([]string{"becky", "mike"})
	resolver := people.NewResolver(people.StaticDirectory{"becky": "becky", "mike": "mike"}, 0)
	store := convo.NewStore(0, nil)
	interp := interpret.New(tagger, resolver, store, func() time.Time {
		return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	})

	return NewWebhookHandler(WebhookDeps{
		Users: &stubUsers{byPhone: map[string]storage.User{
			"+15550002": {ID: "u-mike", Name: "mike", Phone: "+15550002"},
		}},
		Interpreter: interp,
		Executor:    exec,
	})
}

func postSMS(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookSMS(t *testing.T) {
	exec := &stubExecutor{reply: `Added "dishes" for becky.`}
	h := newWebhookFixture(exec)

	rec := postSMS(t, h, url.Values{
		"From": {"+15550002"},
		"Body": {"add dishes for becky"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `<Message>Added &#34;dishes&#34; for becky.</Message>`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	if len(exec.commands) != 1 {
		t.Fatalf("executor ran %d commands, want 1", len(exec.commands))
	}
	cmd := exec.commands[0]
	if cmd.Intent != interpret.IntentAdd || cmd.Entities.Chore != "dishes" || cmd.Entities.Assignee != "becky" {
		t.Errorf("command = %+v", cmd)
	}
	if exec.users[0].Name != "mike" {
		t.Errorf("executed as %q, want mike", exec.users[0].Name)
	}
}

func TestWebhookMultiCommandMessage(t *testing.T) {
	exec := &stubExecutor{reply: "ok"}
	h := newWebhookFixture(exec)

	rec := postSMS(t, h, url.Values{
		"From": {"+15550002"},
		"Body": {"add laundry then add dishes"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(exec.commands) != 2 {
		t.Fatalf("executor ran %d commands, want 2", len(exec.commands))
	}
	if n := strings.Count(rec.Body.String(), "<Message>"); n != 2 {
		t.Errorf("got %d <Message> elements, want 2: %s", n, rec.Body.String())
	}
}

func TestWebhookUnknownNumber(t *testing.T) {
	exec := &stubExecutor{}
	h := newWebhookFixture(exec)

	rec := postSMS(t, h, url.Values{
		"From": {"+19998887777"},
		"Body": {"add dishes"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "I don&#39;t know this number") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(exec.commands) != 0 {
		t.Errorf("executor ran for an unknown sender: %+v", exec.commands)
	}
}

func TestWebhookMissingFields(t *testing.T) {
	h := newWebhookFixture(&stubExecutor{})

	tests := []url.Values{
		{"From": {"+15550002"}},
		{"Body": {"add dishes"}},
		{},
	}
	for _, form := range tests {
		rec := postSMS(t, h, form)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("form %v: status = %d, want 400", form, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid_request_error") {
			t.Errorf("form %v: body = %s", form, rec.Body.String())
		}
	}
}

func TestWebhookExecutorError(t *testing.T) {
	exec := &stubExecutor{err: context.DeadlineExceeded}
	h := newWebhookFixture(exec)

	rec := postSMS(t, h, url.Values{
		"From": {"+15550002"},
		"Body": {"add dishes"},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookHealth(t *testing.T) {
	h := newWebhookFixture(&stubExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
