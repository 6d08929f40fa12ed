package remind

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dustybot/dusty/internal/storage"
)

var testNow = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

type mockStore struct {
	due      []storage.Chore
	users    map[string]storage.User
	enqueued []storage.Job
	reminded []string
	queue    []*storage.Job
	complete []string
	failed   []string
}

func (m *mockStore) DueChores(cutoff time.Time) ([]storage.Chore, error) {
	var out []storage.Chore
	for _, c := range m.due {
		if !c.DueDate.After(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) MarkReminded(id string, at time.Time) error {
	m.reminded = append(m.reminded, id)
	return nil
}

func (m *mockStore) GetUserByID(id string) (storage.User, error) {
	u, ok := m.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) EnqueueJob(job storage.Job) error {
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockStore) ClaimNextJob(types []string) (*storage.Job, error) {
	if len(m.queue) == 0 {
		return nil, nil
	}
	job := m.queue[0]
	m.queue = m.queue[1:]
	return job, nil
}

func (m *mockStore) CompleteJob(id string) error {
	m.complete = append(m.complete, id)
	return nil
}

func (m *mockStore) FailJob(id string, errMsg string) error {
	m.failed = append(m.failed, id)
	return nil
}

type mockSender struct {
	sent []string // "phone: body"
	fail error
}

func (s *mockSender) Send(_ context.Context, phone, body string) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, phone+": "+body)
	return nil
}

func newTestWorker(store *mockStore, sender *mockSender, lead time.Duration) *Worker {
	return NewWorker(store, sender, time.Second, lead, func() time.Time { return testNow })
}

func TestScanOnceEnqueuesReminders(t *testing.T) {
	store := &mockStore{
		due: []storage.Chore{
			{ID: "c1", Name: "dishes", AssigneeID: "u1", DueDate: testNow.Add(-time.Hour)},
			{ID: "c2", Name: "mow lawn", DueDate: testNow.Add(-time.Hour)}, // unassigned
		},
		users: map[string]storage.User{
			"u1": {ID: "u1", Name: "becky", Phone: "+15550001"},
		},
	}
	w := newTestWorker(store, &mockSender{}, 0)

	if err := w.ScanOnce(); err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}

	if len(store.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1 (unassigned chores are skipped)", len(store.enqueued))
	}
	job := store.enqueued[0]
	if job.Type != storage.JobReminder || job.ID == "" {
		t.Errorf("job = %+v", job)
	}

	var payload deliveryPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if payload.Phone != "+15550001" {
		t.Errorf("phone = %q", payload.Phone)
	}
	if !strings.HasPrefix(payload.Body, `Overdue: "dishes"`) {
		t.Errorf("body = %q, want overdue wording", payload.Body)
	}

	if len(store.reminded) != 1 || store.reminded[0] != "c1" {
		t.Errorf("reminded = %v, want [c1]", store.reminded)
	}
}

func TestScanOnceLeadWindow(t *testing.T) {
	store := &mockStore{
		due: []storage.Chore{
			{ID: "c1", Name: "dishes", AssigneeID: "u1", DueDate: testNow.Add(30 * time.Minute)},
			{ID: "c2", Name: "laundry", AssigneeID: "u1", DueDate: testNow.Add(2 * time.Hour)},
		},
		users: map[string]storage.User{
			"u1": {ID: "u1", Name: "becky", Phone: "+15550001"},
		},
	}
	w := newTestWorker(store, &mockSender{}, time.Hour)

	if err := w.ScanOnce(); err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if len(store.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want only the chore inside the lead window", len(store.enqueued))
	}

	var payload deliveryPayload
	if err := json.Unmarshal([]byte(store.enqueued[0].PayloadJSON), &payload); err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	if !strings.HasPrefix(payload.Body, `Reminder: "dishes"`) {
		t.Errorf("body = %q, want upcoming wording", payload.Body)
	}
}

func TestScanOnceSkipsUnknownAssignee(t *testing.T) {
	store := &mockStore{
		due: []storage.Chore{
			{ID: "c1", Name: "dishes", AssigneeID: "ghost", DueDate: testNow.Add(-time.Hour)},
		},
		users: map[string]storage.User{},
	}
	w := newTestWorker(store, &mockSender{}, 0)

	if err := w.ScanOnce(); err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if len(store.enqueued) != 0 {
		t.Errorf("enqueued %d jobs for unknown assignee, want 0", len(store.enqueued))
	}
	if len(store.reminded) != 0 {
		t.Errorf("marked %v reminded despite skipping", store.reminded)
	}
}

func TestDeliverOnceSuccess(t *testing.T) {
	store := &mockStore{
		queue: []*storage.Job{{
			ID:          "j1",
			Type:        storage.JobReminder,
			PayloadJSON: `{"phone":"+15550001","body":"Reminder: dishes"}`,
		}},
	}
	sender := &mockSender{}
	w := newTestWorker(store, sender, 0)

	processed, err := w.DeliverOnce(context.Background())
	if err != nil {
		t.Fatalf("DeliverOnce: %v", err)
	}
	if !processed {
		t.Fatal("processed = false, want true")
	}
	if len(sender.sent) != 1 || sender.sent[0] != "+15550001: Reminder: dishes" {
		t.Errorf("sent = %v", sender.sent)
	}
	if len(store.complete) != 1 || store.complete[0] != "j1" {
		t.Errorf("completed = %v, want [j1]", store.complete)
	}
	if len(store.failed) != 0 {
		t.Errorf("failed = %v, want none", store.failed)
	}
}

func TestDeliverOnceEmptyQueue(t *testing.T) {
	w := newTestWorker(&mockStore{}, &mockSender{}, 0)

	processed, err := w.DeliverOnce(context.Background())
	if err != nil {
		t.Fatalf("DeliverOnce: %v", err)
	}
	if processed {
		t.Error("processed = true on empty queue")
	}
}

func TestDeliverOnceSendFailure(t *testing.T) {
	store := &mockStore{
		queue: []*storage.Job{{
			ID:          "j1",
			Type:        storage.JobReminder,
			PayloadJSON: `{"phone":"+15550001","body":"hi"}`,
		}},
	}
	sender := &mockSender{fail: errors.New("gateway down")}
	w := newTestWorker(store, sender, 0)

	processed, err := w.DeliverOnce(context.Background())
	if err != nil {
		t.Fatalf("DeliverOnce: %v", err)
	}
	if !processed {
		t.Fatal("processed = false, want true (failure still consumes the job)")
	}
	if len(store.failed) != 1 || store.failed[0] != "j1" {
		t.Errorf("failed = %v, want [j1]", store.failed)
	}
	if len(store.complete) != 0 {
		t.Errorf("completed = %v, want none", store.complete)
	}
}

func TestDeliverOnceBadPayload(t *testing.T) {
	store := &mockStore{
		queue: []*storage.Job{{ID: "j1", Type: storage.JobReminder, PayloadJSON: "{"}},
	}
	w := newTestWorker(store, &mockSender{}, 0)

	processed, err := w.DeliverOnce(context.Background())
	if err != nil {
		t.Fatalf("DeliverOnce: %v", err)
	}
	if !processed || len(store.failed) != 1 {
		t.Errorf("bad payload: processed=%v failed=%v", processed, store.failed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := newTestWorker(&mockStore{}, &mockSender{}, 0)
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
