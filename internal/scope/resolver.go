// Package scope resolves the active account context: the personal ledger or
// one savings group. The resolver is the leaf of the system; validity of a
// group id is checked downstream by the data source, not here.
package scope

import (
	"sync"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
)

// Handle identifies one scope. GroupID empty means the owner's personal
// ledger. Handles are immutable values; a new selection produces a new
// handle.
type Handle struct {
	OwnerID string
	GroupID string
	Name    string
}

// Personal reports whether the handle points at the personal ledger.
func (h Handle) Personal() bool {
	return h.GroupID == ""
}

// Filter translates the handle into the data-source filter for its records.
func (h Handle) Filter() datasource.Filter {
	if h.Personal() {
		return datasource.Filter{OwnerID: h.OwnerID}
	}
	return datasource.Filter{GroupID: h.GroupID}
}

// Resolver tracks the currently selected scope for one user. Selecting a
// scope invalidates the previous one; there is no error path, any display
// name and id are accepted.
type Resolver struct {
	mu      sync.Mutex
	ownerID string
	current Handle
}

// NewResolver starts on the user's personal ledger.
func NewResolver(ownerID string) *Resolver {
	return &Resolver{
		ownerID: ownerID,
		current: Handle{OwnerID: ownerID, Name: core.PersonalAccountName},
	}
}

// Select replaces the active scope. An empty groupID selects the personal
// ledger; an empty displayName falls back to the personal label.
func (r *Resolver) Select(groupID, displayName string) Handle {
	if displayName == "" {
		displayName = core.PersonalAccountName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Handle{OwnerID: r.ownerID, GroupID: groupID, Name: displayName}
	return r.current
}

// Current returns the active scope handle.
func (r *Resolver) Current() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
