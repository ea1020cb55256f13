// Package aggregate keeps a continuously up-to-date transaction list and
// income/expense summary for the selected scope. It owns at most one live
// data-source subscription at a time; every snapshot is recomputed from
// scratch (intentional: at personal-finance scale a full recompute is cheap
// and cannot drift the way incremental accounting can).
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
)

// Update is what observers receive: the scope it belongs to, the records
// sorted newest first, and the summary over them. Err non-nil signals
// "aggregation unavailable": the feed failed, Records and Summary carry the
// last good values for the scope and the engine will not retry on its own —
// re-selecting the scope is the caller's decision.
type Update struct {
	Scope   scope.Handle
	Records []core.Transaction
	Summary core.Summary
	Err     error
}

// Observer receives published updates. Observers are invoked synchronously
// in arrival order and must not call back into the engine.
type Observer func(Update)

// Engine is the live aggregation engine. The zero value is not usable; use
// New.
type Engine struct {
	source datasource.Source
	logger *log.Logger

	mu        sync.Mutex
	gen       uint64
	sub       datasource.Subscription
	current   scope.Handle
	last      *Update
	observers map[int]Observer
	nextObs   int
}

func New(source datasource.Source, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	return &Engine{
		source:    source,
		logger:    logger.WithComponent(log.ComponentAggregate),
		observers: make(map[int]Observer),
	}
}

// SetScope switches the engine to a new scope. The previous subscription is
// cancelled before the replacement is opened, and a generation token makes
// the switch atomic from the observers' point of view: a late callback from
// the superseded subscription is discarded even if it races the switch.
//
// When the data source refuses the watch, the error is returned to the
// caller and aggregation for that scope does not start; the last published
// update of the previous scope stays cached rather than being replaced by
// zeros.
func (e *Engine) SetScope(ctx context.Context, h scope.Handle) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	if e.sub != nil {
		e.sub.Cancel()
		e.sub = nil
	}
	e.current = h
	e.mu.Unlock()

	sub, err := e.source.Watch(ctx, h.Filter())
	if err != nil {
		return fmt.Errorf("watch scope %q: %w", h.Name, err)
	}

	e.mu.Lock()
	if gen != e.gen {
		// Another SetScope won the race while we were opening the watch.
		e.mu.Unlock()
		sub.Cancel()
		return nil
	}
	e.sub = sub
	e.mu.Unlock()

	e.logger.Info("scope selected",
		log.FieldScope, h.Name,
		log.FieldGroupID, h.GroupID,
		log.FieldGeneration, gen)

	go e.pump(gen, h, sub)
	return nil
}

// Current returns the scope the engine is aggregating for.
func (e *Engine) Current() scope.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Subscribe registers an observer and replays the last published update to
// it immediately, if there is one, so late subscribers see the current state
// without waiting for the next snapshot. The returned function unsubscribes;
// after it returns no further updates are delivered.
func (e *Engine) Subscribe(fn Observer) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	if e.last != nil {
		fn(*e.last)
	}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// Last returns the most recently published update, if any.
func (e *Engine) Last() (Update, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Update{}, false
	}
	return *e.last, true
}

// Close cancels the active subscription and drops all observers.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	if e.sub != nil {
		e.sub.Cancel()
		e.sub = nil
	}
	e.observers = make(map[int]Observer)
	return nil
}

func (e *Engine) pump(gen uint64, h scope.Handle, sub datasource.Subscription) {
	for u := range sub.Updates() {
		e.deliver(gen, h, u)
	}
}

// deliver recomputes and publishes under the engine mutex, which gives the
// two ordering guarantees at once: publishes follow snapshot arrival order,
// and an unsubscribe that has returned can no longer be invoked.
func (e *Engine) deliver(gen uint64, h scope.Handle, u datasource.Update) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		// Stale callback from a superseded scope.
		return
	}

	var out Update
	if u.Err != nil {
		out = Update{Scope: h, Err: u.Err}
		if e.last != nil {
			// Keep showing the last good data alongside the error.
			out.Records = e.last.Records
			out.Summary = e.last.Summary
		}
		e.logger.Error("aggregation unavailable",
			log.FieldScope, h.Name,
			log.FieldError, u.Err)
	} else {
		records := append([]core.Transaction(nil), u.Records...)
		core.SortByDateDesc(records)
		out = Update{
			Scope:   h,
			Records: records,
			Summary: core.Summarize(records),
		}
		e.logger.Debug("snapshot aggregated",
			log.FieldScope, h.Name,
			log.FieldRecordCount, len(records))
	}

	e.last = &out
	for _, fn := range e.observers {
		fn(out)
	}
}
