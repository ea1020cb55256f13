package storage

import (
	"sync"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
)

// feed fans full snapshots out to scope watchers. It stands in for the
// document store's real-time listener: every committed mutation triggers a
// re-query per watcher and a latest-wins push.
type feed struct {
	mu       sync.Mutex
	watchers map[int]*watcher
	nextID   int
}

type watcher struct {
	filter datasource.Filter
	ch     chan datasource.Update
	done   chan struct{}
}

func newFeed() *feed {
	return &feed{watchers: make(map[int]*watcher)}
}

// watch registers a subscription and buffers the initial snapshot.
func (f *feed) watch(filter datasource.Filter, initial datasource.Update) datasource.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &watcher{
		filter: filter,
		ch:     make(chan datasource.Update, 1),
		done:   make(chan struct{}),
	}
	id := f.nextID
	f.nextID++
	f.watchers[id] = w
	w.ch <- initial
	return &subscription{feed: f, id: id, w: w}
}

// broadcast re-queries every watcher's scope and pushes the result. A query
// failure becomes an error event for that watcher, not a dropped update.
func (f *feed) broadcast(list func(datasource.Filter) ([]core.Transaction, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers {
		records, err := list(w.filter)
		if err != nil {
			push(w, datasource.Update{Err: err})
			continue
		}
		push(w, datasource.Update{Records: records})
	}
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, w := range f.watchers {
		close(w.done)
		close(w.ch)
		delete(f.watchers, id)
	}
}

// push delivers latest-wins: an unread buffered snapshot is replaced rather
// than queued behind. Sends are serialized under the feed mutex, so the
// second send cannot block.
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

type subscription struct {
	feed *feed
	id   int
	w    *watcher
	once sync.Once
}

func (s *subscription) Updates() <-chan datasource.Update {
	return s.w.ch
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()
		if _, ok := s.feed.watchers[s.id]; ok {
			delete(s.feed.watchers, s.id)
			close(s.w.done)
			close(s.w.ch)
		}
	})
}
