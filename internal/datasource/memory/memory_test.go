package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
)

func newTx(owner, group string, cents int64) *core.Transaction {
	return &core.Transaction{
		Title:   "entry",
		Amount:  core.Money{Cents: cents},
		Type:    core.Expense,
		Date:    time.Now(),
		OwnerID: owner,
		GroupID: group,
	}
}

func recv(t *testing.T, sub datasource.Subscription) datasource.Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return datasource.Update{}
}

func TestWatchInitialSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateTransaction(ctx, newTx("u1", "", 100)); err != nil {
		t.Fatal(err)
	}

	sub, err := s.Watch(ctx, datasource.Filter{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Cancel()

	u := recv(t, sub)
	if u.Err != nil || len(u.Records) != 1 {
		t.Fatalf("initial snapshot = %+v", u)
	}
}

func TestWatchPushesOnMutation(t *testing.T) {
	s := New()
	ctx := context.Background()
	sub, err := s.Watch(ctx, datasource.Filter{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Cancel()
	recv(t, sub) // empty initial snapshot

	if err := s.CreateTransaction(ctx, newTx("u1", "", 500)); err != nil {
		t.Fatal(err)
	}
	u := recv(t, sub)
	if len(u.Records) != 1 || u.Records[0].Amount.Cents != 500 {
		t.Fatalf("snapshot after create = %+v", u)
	}

	// A group record does not leak into the personal scope.
	if err := s.CreateTransaction(ctx, newTx("u1", "g1", 900)); err != nil {
		t.Fatal(err)
	}
	u = recv(t, sub)
	if len(u.Records) != 1 {
		t.Fatalf("personal scope must not see group records: %+v", u)
	}
}

func TestWatchLatestWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	sub, err := s.Watch(ctx, datasource.Filter{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Cancel()
	recv(t, sub)

	// Two mutations without a read in between: only the latest snapshot
	// remains buffered.
	if err := s.CreateTransaction(ctx, newTx("u1", "", 100)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateTransaction(ctx, newTx("u1", "", 200)); err != nil {
		t.Fatal(err)
	}
	u := recv(t, sub)
	if len(u.Records) != 2 {
		t.Fatalf("expected the latest snapshot with 2 records, got %+v", u)
	}
	select {
	case extra := <-sub.Updates():
		t.Fatalf("no further update expected, got %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	s := New()
	ctx := context.Background()
	sub, err := s.Watch(ctx, datasource.Filter{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	recv(t, sub)
	sub.Cancel()
	sub.Cancel() // idempotent

	if err := s.CreateTransaction(ctx, newTx("u1", "", 100)); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-sub.Updates(); ok {
		t.Fatal("channel should be closed after Cancel")
	}
}

func TestGroups(t *testing.T) {
	s := New()
	ctx := context.Background()
	g := core.NewSavingsGroup("Arisan", "owner")
	if err := s.CreateGroup(ctx, &g); err != nil {
		t.Fatal(err)
	}
	if err := s.AddGroupMember(ctx, g.ID, "friend"); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetGroup(ctx, g.ID)
	if err != nil || !got.HasMember("friend") {
		t.Fatalf("group after add = %+v err=%v", got, err)
	}
	mine, err := s.ListGroups(ctx, "friend")
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListGroups = %+v err=%v", mine, err)
	}
	if _, err := s.GetGroup(ctx, "missing"); err != datasource.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
