package core

import (
	"testing"
	"time"
)

func tx(typ TransactionType, cents int64, category string, date time.Time) Transaction {
	return Transaction{
		ID:       "t",
		Title:    "entry",
		Amount:   Money{Cents: cents},
		Type:     typ,
		Category: category,
		Date:     date,
		OwnerID:  "u1",
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Income.Cents != 0 || s.Expense.Cents != 0 || s.Balance().Cents != 0 {
		t.Fatalf("empty set should yield zero summary, got %+v", s)
	}
}

func TestSummarizeBalanceExact(t *testing.T) {
	// Amounts chosen to expose float drift if it existed: many 0.01 entries.
	var records []Transaction
	for i := 0; i < 1000; i++ {
		records = append(records, tx(Income, 1, "", time.Now()))
	}
	for i := 0; i < 300; i++ {
		records = append(records, tx(Expense, 1, "", time.Now()))
	}
	s := Summarize(records)
	if s.Income.Cents != 1000 || s.Expense.Cents != 300 {
		t.Fatalf("totals = %d/%d, want 1000/300", s.Income.Cents, s.Expense.Cents)
	}
	if got := s.Income.Sub(s.Expense); got != s.Balance() {
		t.Fatalf("balance mismatch: %d vs %d", got.Cents, s.Balance().Cents)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	records := []Transaction{
		tx(Income, 100000, "", time.Now()),
		tx(Expense, 30000, "Makanan", time.Now()),
	}
	first := Summarize(records)
	second := Summarize(records)
	if first != second {
		t.Fatalf("same snapshot produced different summaries: %+v vs %+v", first, second)
	}
}

func TestByCategory(t *testing.T) {
	if got := ByCategory(nil); len(got) != 0 {
		t.Fatalf("empty list should yield empty map, got %v", got)
	}

	records := []Transaction{
		tx(Expense, 10000, "", time.Now()),
		tx(Expense, 5000, "Makanan", time.Now()),
		tx(Expense, 2500, "Makanan", time.Now()),
		tx(Income, 99999, "Gaji", time.Now()), // income never shows up
	}
	got := ByCategory(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %v", got)
	}
	if got[UncategorizedLabel].Cents != 10000 {
		t.Fatalf("uncategorized = %d, want 10000", got[UncategorizedLabel].Cents)
	}
	if got["Makanan"].Cents != 7500 {
		t.Fatalf("Makanan = %d, want 7500", got["Makanan"].Cents)
	}
}

func TestByMonth(t *testing.T) {
	loc := time.UTC
	records := []Transaction{
		tx(Income, 50000, "", time.Date(2024, time.March, 10, 12, 0, 0, 0, loc)),
		tx(Expense, 20000, "", time.Date(2024, time.March, 20, 12, 0, 0, 0, loc)),
		tx(Income, 77700, "", time.Date(2023, time.March, 1, 12, 0, 0, 0, loc)), // wrong year
	}
	income, expense := ByMonth(records, 2024, loc)
	for i := 0; i < 12; i++ {
		wantIn, wantEx := int64(0), int64(0)
		if i == 2 { // March
			wantIn, wantEx = 50000, 20000
		}
		if income[i].Cents != wantIn || expense[i].Cents != wantEx {
			t.Fatalf("month %d = %d/%d, want %d/%d", i, income[i].Cents, expense[i].Cents, wantIn, wantEx)
		}
	}
}

func TestEndToEndYear(t *testing.T) {
	loc := time.UTC
	records := []Transaction{
		tx(Income, 100000, "", time.Date(2024, time.January, 5, 0, 0, 0, 0, loc)),
		tx(Expense, 30000, "", time.Date(2024, time.January, 10, 0, 0, 0, 0, loc)),
		tx(Expense, 20000, "", time.Date(2024, time.February, 1, 0, 0, 0, 0, loc)),
	}
	s := Summarize(records)
	if s.Income.Cents != 100000 || s.Expense.Cents != 50000 || s.Balance().Cents != 50000 {
		t.Fatalf("summary = %+v balance = %d", s, s.Balance().Cents)
	}
	income, expense := ByMonth(records, 2024, loc)
	if income[0].Cents != 100000 || expense[0].Cents != 30000 {
		t.Fatalf("January = %d/%d", income[0].Cents, expense[0].Cents)
	}
	if income[1].Cents != 0 || expense[1].Cents != 20000 {
		t.Fatalf("February = %d/%d", income[1].Cents, expense[1].Cents)
	}
	for i := 2; i < 12; i++ {
		if income[i].Cents != 0 || expense[i].Cents != 0 {
			t.Fatalf("month %d should be empty", i)
		}
	}
}

func TestSortByDateDescStable(t *testing.T) {
	d := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := []Transaction{
		{ID: "a", Date: d},
		{ID: "b", Date: d.Add(24 * time.Hour)},
		{ID: "c", Date: d},
		{ID: "d", Date: d},
	}
	SortByDateDesc(records)
	want := []string{"b", "a", "c", "d"}
	for i, id := range want {
		if records[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, records[i].ID, id)
		}
	}
}
