// Package datasource defines the ports the tracker core consumes for
// persistence and for the real-time snapshot feed. Implementations live in
// internal/storage (SQLite), internal/storage/supabase and
// internal/datasource/memory.
package datasource

import (
	"context"
	"errors"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Filter selects the transactions of exactly one scope. Either GroupID is
// set (group scope) or it is empty and OwnerID selects the personal ledger:
// records owned by that user with no group attached.
type Filter struct {
	OwnerID string
	GroupID string
}

// Update is one event on a subscription: a complete snapshot of the scope's
// records, replacing the previous one, or an error when the feed failed.
// Err set means Records must be ignored.
type Update struct {
	Records []core.Transaction
	Err     error
}

// Subscription is a live snapshot feed for one filter. Updates delivers the
// current full record set after every change; the channel is closed after
// Cancel. Cancel is idempotent.
type Subscription interface {
	Updates() <-chan Update
	Cancel()
}

// Source hands out snapshot subscriptions. At most one update is buffered
// per subscription; a slow consumer sees the latest snapshot, not every
// intermediate one.
type Source interface {
	Watch(ctx context.Context, f Filter) (Subscription, error)
}

// Store is the persistence port. The core never owns persistence; it hands
// fully validated records to a Store and derives everything else at read
// time.
type Store interface {
	CreateTransaction(ctx context.Context, t *core.Transaction) error
	UpdateTransaction(ctx context.Context, t *core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, f Filter) ([]core.Transaction, error)

	CreateGroup(ctx context.Context, g *core.SavingsGroup) error
	GetGroup(ctx context.Context, id string) (core.SavingsGroup, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
	ListGroups(ctx context.Context, userID string) ([]core.SavingsGroup, error)
}

// Backend couples a Store with its change feed.
type Backend interface {
	Store
	Source
	Close() error
}
