package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SsToRR/HourlyBot/internal/domain"
	"github.com/SsToRR/HourlyBot/internal/store"
)

// memRepo is an in-memory store.Repo for router/dispatcher tests, with
// injectable failures per operation.
type memRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	responses map[string]*domain.Response

	failRecord      error
	failPlaceholder error
	failActive      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     make(map[string]*domain.User),
		responses: make(map[string]*domain.Response),
	}
}

func respKey(userID, date string, slot domain.Slot) string {
	return fmt.Sprintf("%s|%s|%d", userID, date, int(slot))
}

func (m *memRepo) TouchContact(_ context.Context, userID, name, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		u = &domain.User{ID: userID, CreatedAt: time.Now()}
		m.users[userID] = u
	}
	u.Name = name
	u.ConversationRef = ref
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Subscribe(_ context.Context, userID, name string) (domain.SubscribeOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		m.users[userID] = &domain.User{ID: userID, Name: name, Active: true, EverSubscribed: true, CreatedAt: time.Now()}
		return domain.SubscribedNew, nil
	}
	if u.Active {
		return domain.SubscribedAlready, nil
	}
	outcome := domain.SubscribedAgain
	if !u.EverSubscribed {
		outcome = domain.SubscribedNew
	}
	u.Active = true
	u.EverSubscribed = true
	u.Name = name
	return outcome, nil
}

func (m *memRepo) Unsubscribe(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || !u.Active {
		return false, nil
	}
	u.Active = false
	return true, nil
}

func (m *memRepo) ActiveUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failActive != nil {
		return nil, m.failActive
	}
	var res []domain.User
	for _, u := range m.users {
		if u.Active {
			res = append(res, *u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memRepo) UpsertPlaceholder(_ context.Context, userID, date string, slot domain.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPlaceholder != nil {
		return m.failPlaceholder
	}
	key := respKey(userID, date, slot)
	if _, ok := m.responses[key]; ok {
		return nil
	}
	m.responses[key] = &domain.Response{UserID: userID, Date: date, Slot: slot, RecordedAt: time.Now()}
	return nil
}

func (m *memRepo) RecordAnswer(_ context.Context, userID, date string, slot domain.Slot, text string) (domain.RecordOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord != nil {
		return 0, m.failRecord
	}
	key := respKey(userID, date, slot)
	if r, ok := m.responses[key]; ok {
		r.Text = text
		r.RecordedAt = time.Now()
		return domain.RecordUpdated, nil
	}
	m.responses[key] = &domain.Response{UserID: userID, Date: date, Slot: slot, Text: text, RecordedAt: time.Now()}
	return domain.RecordCreated, nil
}

func (m *memRepo) ListResponses(_ context.Context, userID, date string) ([]domain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.Response
	for _, r := range m.responses {
		if r.UserID == userID && r.Date == date {
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Slot < res[j].Slot })
	return res, nil
}

func (m *memRepo) PurgeOlderThan(_ context.Context, cutoffDate string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, r := range m.responses {
		if r.Date < cutoffDate {
			delete(m.responses, key)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) responseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func (m *memRepo) response(userID, date string, slot domain.Slot) (domain.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[respKey(userID, date, slot)]
	if !ok {
		return domain.Response{}, false
	}
	return *r, true
}

// fakeClock reports a fixed instant.
type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type sentMessage struct {
	Ref  string
	Text string
}

// fakeSender records sends and can fail for selected conversation refs.
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failRefs map[string]bool
}

func (s *fakeSender) Send(_ context.Context, ref, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRefs[ref] {
		return fmt.Errorf("delivery to %s failed", ref)
	}
	s.sent = append(s.sent, sentMessage{Ref: ref, Text: text})
	return nil
}

func (s *fakeSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

// fakeSummarizer counts invocations and returns a canned summary.
type fakeSummarizer struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
