package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/healthgate/health"
)

// fakeStore is an in-memory Store with scripted failures.
type fakeStore struct {
	mu   sync.Mutex
	err  error
	rows []Activity
	now  time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func failingStore(err error) *fakeStore {
	s := newFakeStore()
	s.err = err
	return s
}

func (s *fakeStore) insert(action string) Activity {
	s.now = s.now.Add(time.Second)
	a := Activity{ID: uuid.New(), Timestamp: s.now, Action: action}
	s.rows = append(s.rows, a)
	return a
}

func (s *fakeStore) Create(_ context.Context, action string) (Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Activity{}, s.err
	}
	return s.insert(action), nil
}

func (s *fakeStore) CreateMany(_ context.Context, actions []string) ([]Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Activity, len(actions))
	for i, a := range actions {
		out[i] = s.insert(a)
	}
	return out, nil
}

func (s *fakeStore) Recent(_ context.Context, limit int) ([]Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Activity
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.rows[i])
	}
	return out, nil
}

func (s *fakeStore) Stats(_ context.Context, since time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Stats{}, s.err
	}
	st := Stats{Since: since}
	seen := map[string]bool{}
	for _, r := range s.rows {
		if r.Timestamp.Before(since) {
			continue
		}
		st.Total++
		if !seen[r.Action] {
			seen[r.Action] = true
			st.Actions = append(st.Actions, r.Action)
		}
	}
	return st, nil
}

func (s *fakeStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return len(s.rows), nil
}

func (s *fakeStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Action
	}
	return out
}

func probe(s *fakeStore) health.Probe[Store] {
	if s == nil {
		return health.Unavailable[Store]()
	}
	return health.Configured[Store](s)
}
