// Package service orchestrates transaction and group operations across
// the store, the receipt uploader and the notification sink.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jexxy1517/CashFlowReportApp/internal/auth"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/media"
	"github.com/Jexxy1517/CashFlowReportApp/internal/notify"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
)

// ErrNotGroupOwner is returned when someone other than the owner tries
// to add a member. The check is advisory here; the store is shared, so
// a hostile client could still write directly.
var ErrNotGroupOwner = errors.New("only the group owner can add members")

// Receipt is an attachment handed in alongside a transaction.
type Receipt struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Tracker is the write side of the app: it validates, stores, uploads
// receipts and fires notifications. Reads go through the aggregation
// engine instead.
type Tracker struct {
	store    datasource.Store
	resolver *scope.Resolver
	auth     auth.Provider
	uploader media.Uploader
	sink     notify.Sink
	logger   *log.Logger
}

func NewTracker(store datasource.Store, resolver *scope.Resolver, provider auth.Provider, uploader media.Uploader, sink notify.Sink, logger *log.Logger) *Tracker {
	if sink == nil {
		sink = notify.Nop{}
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}
	return &Tracker{
		store:    store,
		resolver: resolver,
		auth:     provider,
		uploader: uploader,
		sink:     sink,
		logger:   logger.WithComponent(log.ComponentTracker),
	}
}

// AddTransaction stores a new transaction in the currently selected
// scope. A receipt, when present, is uploaded first so the stored
// record already carries its URL.
func (t *Tracker) AddTransaction(ctx context.Context, trx core.Transaction, receipt *Receipt) (core.Transaction, error) {
	handle := t.resolver.Current()
	userID, ok := t.auth.CurrentUserID()
	if !ok {
		return core.Transaction{}, errors.New("no authenticated user")
	}

	trx.OwnerID = userID
	trx.GroupID = handle.GroupID
	trx.Account = handle.Name
	trx.EnsureID()

	if err := trx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if receipt != nil && t.uploader != nil {
		url, err := t.uploader.Upload(ctx, receipt.Filename, receipt.ContentType, receipt.Content)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("upload receipt: %w", err)
		}
		trx.ReceiptURL = url
	}

	if err := t.store.CreateTransaction(ctx, &trx); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	t.notify(ctx, "Transaksi Baru",
		fmt.Sprintf("Berhasil menambahkan %s sebesar %s", trx.Title, trx.Amount.Format()))

	t.logger.InfoContext(ctx, "transaction added",
		log.FieldTitle, trx.Title,
		log.FieldAmountCents, trx.Amount.Cents,
		log.FieldScope, handle.Name)
	return trx, nil
}

// UpdateTransaction replaces the editable fields of an existing
// transaction. Scope fields stay as stored: editing never moves a
// record between accounts.
func (t *Tracker) UpdateTransaction(ctx context.Context, trx core.Transaction) (core.Transaction, error) {
	existing, err := t.store.GetTransaction(ctx, trx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	trx.OwnerID = existing.OwnerID
	trx.GroupID = existing.GroupID
	trx.Account = existing.Account
	if trx.ReceiptURL == "" {
		trx.ReceiptURL = existing.ReceiptURL
	}

	if err := trx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := t.store.UpdateTransaction(ctx, &trx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	t.notify(ctx, "Transaksi Diupdate",
		fmt.Sprintf("Transaksi %s berhasil diupdate", trx.Title))
	return trx, nil
}

// DeleteTransaction removes a transaction by id.
func (t *Tracker) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := t.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := t.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	t.notify(ctx, "Transaksi Dihapus",
		fmt.Sprintf("Transaksi %s berhasil dihapus", existing.Title))
	return nil
}

// CreateGroup creates a savings group owned by the current user, who
// becomes its first member.
func (t *Tracker) CreateGroup(ctx context.Context, name string) (core.SavingsGroup, error) {
	userID, ok := t.auth.CurrentUserID()
	if !ok {
		return core.SavingsGroup{}, errors.New("no authenticated user")
	}

	group := core.NewSavingsGroup(name, userID)
	if err := group.Validate(); err != nil {
		return core.SavingsGroup{}, err
	}
	if err := t.store.CreateGroup(ctx, &group); err != nil {
		return core.SavingsGroup{}, fmt.Errorf("create group: %w", err)
	}

	t.logger.InfoContext(ctx, "group created",
		log.FieldGroupID, group.ID,
		log.FieldTitle, group.Name)
	return group, nil
}

// AddMember adds a user to a group. Only the group owner may do this.
func (t *Tracker) AddMember(ctx context.Context, groupID, memberID string) (core.SavingsGroup, error) {
	userID, ok := t.auth.CurrentUserID()
	if !ok {
		return core.SavingsGroup{}, errors.New("no authenticated user")
	}

	group, err := t.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.SavingsGroup{}, fmt.Errorf("load group: %w", err)
	}
	if group.OwnerID != userID {
		return core.SavingsGroup{}, ErrNotGroupOwner
	}

	updated := group.WithMember(memberID)
	if err := t.store.AddGroupMember(ctx, groupID, memberID); err != nil {
		return core.SavingsGroup{}, fmt.Errorf("add member: %w", err)
	}

	t.notify(ctx, "Anggota Baru",
		fmt.Sprintf("Anggota baru bergabung ke %s", group.Name))
	return updated, nil
}

// Groups lists the savings groups the current user belongs to.
func (t *Tracker) Groups(ctx context.Context) ([]core.SavingsGroup, error) {
	userID, ok := t.auth.CurrentUserID()
	if !ok {
		return nil, errors.New("no authenticated user")
	}
	groups, err := t.store.ListGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// notify fires a notification without failing the operation: the write
// already happened, a lost notification is acceptable.
func (t *Tracker) notify(ctx context.Context, title, body string) {
	if err := t.sink.Notify(ctx, title, body); err != nil {
		t.logger.ErrorContext(ctx, "notification failed",
			log.FieldTitle, title,
			log.FieldError, err)
	}
}
