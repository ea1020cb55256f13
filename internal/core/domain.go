package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// PersonalAccountName is the display label of the personal ledger.
const PersonalAccountName = "Keuangan Pribadi"

type (
	TransactionType string

	// Role is advisory only: it gates UI affordances, never authorization.
	Role string

	// Transaction is one income or expense event. A transaction belongs to
	// exactly one scope, fixed at creation: either the owner's personal
	// ledger (GroupID empty) or a savings group (GroupID set). Edits never
	// move a transaction between scopes.
	Transaction struct {
		ID         string
		Title      string
		Amount     Money
		Type       TransactionType
		Category   string // empty allowed; aggregation buckets it as "uncategorized"
		Date       time.Time
		Account    string // display label of the owning scope at creation time
		OwnerID    string
		GroupID    string // empty means personal scope
		ReceiptURL string // optional externally hosted image
	}

	// SavingsGroup is a shared scope. Membership is append-only and the
	// owner is always a member.
	SavingsGroup struct {
		ID        string
		Name      string
		OwnerID   string
		Members   []string
		CreatedAt time.Time
	}

	User struct {
		ID    string
		Email string
		Name  string
		Role  Role
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyName     = errors.New("empty group name")
	ErrEmptyOwner    = errors.New("empty owner id")
)

// IsValid reports whether the type is one of the two known values.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// EnsureID assigns a fresh UUID when the storage layer has not assigned one.
func (t *Transaction) EnsureID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	return nil
}

// NewSavingsGroup creates a group owned by ownerID, with the owner as the
// first member.
func NewSavingsGroup(name, ownerID string) SavingsGroup {
	return SavingsGroup{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   ownerID,
		Members:   []string{ownerID},
		CreatedAt: time.Now(),
	}
}

func (g SavingsGroup) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if strings.TrimSpace(g.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !g.HasMember(g.OwnerID) {
		return errors.New("owner must be a member")
	}
	return nil
}

// HasMember reports whether userID is in the member set.
func (g SavingsGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// WithMember returns a copy of the group with userID appended. Adding an
// existing member is a no-op; members are never removed.
func (g SavingsGroup) WithMember(userID string) SavingsGroup {
	if g.HasMember(userID) {
		return g
	}
	out := g
	out.Members = append(append([]string(nil), g.Members...), userID)
	return out
}
