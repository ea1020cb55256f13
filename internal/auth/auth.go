// Package auth exposes the identity of the signed-in user. The role is
// advisory: it gates UI affordances only and must never back an
// authorization decision of consequence.
package auth

import "github.com/Jexxy1517/CashFlowReportApp/internal/core"

// Provider is the auth collaborator the core consumes.
type Provider interface {
	// CurrentUserID returns the signed-in user's id; ok is false when no
	// user is signed in.
	CurrentUserID() (id string, ok bool)
	CurrentUser() core.User
}

// Static is a Provider with a fixed identity, configured at startup. The
// hosted auth service sits outside this process; the tracker only needs to
// know who it is running as.
type Static struct {
	User core.User
}

func NewStatic(user core.User) *Static {
	if user.Role == "" {
		user.Role = core.RoleUser
	}
	return &Static{User: user}
}

func (s *Static) CurrentUserID() (string, bool) {
	return s.User.ID, s.User.ID != ""
}

func (s *Static) CurrentUser() core.User {
	return s.User
}
