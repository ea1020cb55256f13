package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/auth"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource/memory"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
)

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _, _ string, _ []byte) (string, error) {
	return f.url, f.err
}

type recordingSink struct {
	titles []string
}

func (r *recordingSink) Notify(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return nil
}

func newTracker(t *testing.T) (*Tracker, *memory.Store, *recordingSink) {
	t.Helper()
	store := memory.New()
	sink := &recordingSink{}
	provider := auth.NewStatic(core.User{ID: "user-1", Name: "Budi"})
	tracker := NewTracker(store, scope.NewResolver("user-1"), provider, &fakeUploader{url: "https://cdn.example/r.jpg"}, sink, nil)
	return tracker, store, sink
}

func TestAddTransactionAssignsScope(t *testing.T) {
	tracker, store, sink := newTracker(t)

	trx, err := tracker.AddTransaction(context.Background(), core.Transaction{
		Title:  "Gaji",
		Amount: core.Money{Cents: 500_000_00},
		Type:   core.Income,
		Date:   time.Now(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if trx.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if trx.OwnerID != "user-1" || trx.GroupID != "" {
		t.Fatalf("wrong scope: owner=%q group=%q", trx.OwnerID, trx.GroupID)
	}
	if trx.Account != core.PersonalAccountName {
		t.Fatalf("account = %q", trx.Account)
	}

	stored, err := store.GetTransaction(context.Background(), trx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Gaji" {
		t.Fatalf("stored title = %q", stored.Title)
	}
	if len(sink.titles) != 1 || sink.titles[0] != "Transaksi Baru" {
		t.Fatalf("notifications = %v", sink.titles)
	}
}

func TestAddTransactionUploadsReceipt(t *testing.T) {
	tracker, _, _ := newTracker(t)

	trx, err := tracker.AddTransaction(context.Background(), core.Transaction{
		Title:  "Belanja",
		Amount: core.Money{Cents: 15_000_00},
		Type:   core.Expense,
		Date:   time.Now(),
	}, &Receipt{Filename: "struk.jpg", ContentType: "image/jpeg", Content: []byte("jpeg")})
	if err != nil {
		t.Fatal(err)
	}
	if trx.ReceiptURL != "https://cdn.example/r.jpg" {
		t.Fatalf("receipt url = %q", trx.ReceiptURL)
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	tracker, _, sink := newTracker(t)

	_, err := tracker.AddTransaction(context.Background(), core.Transaction{
		Title:  "",
		Amount: core.Money{Cents: 100},
		Type:   core.Expense,
		Date:   time.Now(),
	}, nil)
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("err = %v", err)
	}
	if len(sink.titles) != 0 {
		t.Fatalf("no notification expected, got %v", sink.titles)
	}
}

func TestUpdateTransactionPreservesScope(t *testing.T) {
	tracker, _, _ := newTracker(t)

	trx, err := tracker.AddTransaction(context.Background(), core.Transaction{
		Title:  "Kopi",
		Amount: core.Money{Cents: 25_000_00},
		Type:   core.Expense,
		Date:   time.Now(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	edited := trx
	edited.Title = "Kopi Susu"
	edited.OwnerID = "intruder"
	edited.GroupID = "other-group"

	got, err := tracker.UpdateTransaction(context.Background(), edited)
	if err != nil {
		t.Fatal(err)
	}
	if got.OwnerID != "user-1" || got.GroupID != "" {
		t.Fatalf("scope changed: owner=%q group=%q", got.OwnerID, got.GroupID)
	}
	if got.Title != "Kopi Susu" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestDeleteTransactionNotifies(t *testing.T) {
	tracker, store, sink := newTracker(t)

	trx, err := tracker.AddTransaction(context.Background(), core.Transaction{
		Title:  "Bensin",
		Amount: core.Money{Cents: 50_000_00},
		Type:   core.Expense,
		Date:   time.Now(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := tracker.DeleteTransaction(context.Background(), trx.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetTransaction(context.Background(), trx.ID); err == nil {
		t.Fatal("transaction should be gone")
	}
	if sink.titles[len(sink.titles)-1] != "Transaksi Dihapus" {
		t.Fatalf("notifications = %v", sink.titles)
	}
}

func TestAddMemberOwnerOnly(t *testing.T) {
	tracker, store, _ := newTracker(t)

	group, err := tracker.CreateGroup(context.Background(), "Liburan")
	if err != nil {
		t.Fatal(err)
	}
	if !group.HasMember("user-1") {
		t.Fatal("owner should be a member")
	}

	updated, err := tracker.AddMember(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatal(err)
	}
	if !updated.HasMember("user-2") {
		t.Fatal("member not added")
	}

	// A group owned by someone else must reject this tracker's user.
	other := core.NewSavingsGroup("Arisan", "user-9")
	if err := store.CreateGroup(context.Background(), &other); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.AddMember(context.Background(), other.ID, "user-3"); !errors.Is(err, ErrNotGroupOwner) {
		t.Fatalf("err = %v", err)
	}
}

func TestGroupsListsMembership(t *testing.T) {
	tracker, store, _ := newTracker(t)

	if _, err := tracker.CreateGroup(context.Background(), "Liburan"); err != nil {
		t.Fatal(err)
	}
	foreign := core.NewSavingsGroup("Rahasia", "user-9")
	if err := store.CreateGroup(context.Background(), &foreign); err != nil {
		t.Fatal(err)
	}

	groups, err := tracker.Groups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Name != "Liburan" {
		t.Fatalf("groups = %+v", groups)
	}
}
