// Package memory is an in-process datasource.Backend. It backs tests and the
// default DATA_BACKEND=memory mode, and reproduces the push semantics of the
// hosted backends: every committed mutation fans a fresh full snapshot out to
// active watchers.
package memory

import (
	"context"
	"sync"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
)

type watcher struct {
	filter datasource.Filter
	ch     chan datasource.Update
	done   chan struct{}
}

// Store keeps all records in memory, guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	records  map[string]core.Transaction
	groups   map[string]core.SavingsGroup
	watchers map[int]*watcher
	nextID   int
}

func New() *Store {
	return &Store{
		records:  make(map[string]core.Transaction),
		groups:   make(map[string]core.SavingsGroup),
		watchers: make(map[int]*watcher),
	}
}

func (s *Store) CreateTransaction(_ context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[t.ID] = *t
	s.broadcastLocked()
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[t.ID]; !ok {
		return datasource.ErrNotFound
	}
	s.records[t.ID] = *t
	s.broadcastLocked()
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return datasource.ErrNotFound
	}
	delete(s.records, id)
	s.broadcastLocked()
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.records[id]
	if !ok {
		return core.Transaction{}, datasource.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f datasource.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(f), nil
}

func (s *Store) CreateGroup(_ context.Context, g *core.SavingsGroup) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = *g
	return nil
}

func (s *Store) GetGroup(_ context.Context, id string) (core.SavingsGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return core.SavingsGroup{}, datasource.ErrNotFound
	}
	return g, nil
}

func (s *Store) AddGroupMember(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return datasource.ErrNotFound
	}
	s.groups[groupID] = g.WithMember(userID)
	return nil
}

func (s *Store) ListGroups(_ context.Context, userID string) ([]core.SavingsGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SavingsGroup
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Watch registers a snapshot feed for the filter. The initial snapshot is
// buffered immediately, so the first receive never blocks on a mutation.
func (s *Store) Watch(_ context.Context, f datasource.Filter) (datasource.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &watcher{
		filter: f,
		ch:     make(chan datasource.Update, 1),
		done:   make(chan struct{}),
	}
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	w.ch <- datasource.Update{Records: s.listLocked(f)}

	return &subscription{store: s, id: id, w: w}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.watchers {
		close(w.done)
		close(w.ch)
		delete(s.watchers, id)
	}
	return nil
}

// Fail pushes an error event to every watcher. Tests use it to simulate a
// broken feed.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers {
		push(w, datasource.Update{Err: err})
	}
}

func (s *Store) listLocked(f datasource.Filter) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.records {
		if matches(f, t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) broadcastLocked() {
	for _, w := range s.watchers {
		push(w, datasource.Update{Records: s.listLocked(w.filter)})
	}
}

// push delivers latest-wins: a snapshot the consumer has not read yet is
// replaced, never queued behind.
func push(w *watcher, u datasource.Update) {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.ch <- u:
	default:
		select {
		case <-w.ch:
		default:
		}
		w.ch <- u
	}
}

func matches(f datasource.Filter, t core.Transaction) bool {
	if f.GroupID != "" {
		return t.GroupID == f.GroupID
	}
	return t.OwnerID == f.OwnerID && t.GroupID == ""
}

type subscription struct {
	store *Store
	id    int
	w     *watcher
	once  sync.Once
}

func (s *subscription) Updates() <-chan datasource.Update {
	return s.w.ch
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		if _, ok := s.store.watchers[s.id]; ok {
			delete(s.store.watchers, s.id)
			close(s.w.done)
			close(s.w.ch)
		}
	})
}
