package core

import (
	"sort"
	"time"
)

// UncategorizedLabel is the bucket used for transactions whose category is
// empty.
const UncategorizedLabel = "uncategorized"

// Summary is the derived income/expense aggregate for one snapshot of
// records. It is recomputed from scratch on every snapshot; there is no
// incremental state to drift.
type Summary struct {
	Income  Money
	Expense Money
}

// Balance returns income minus expense. It may be negative.
func (s Summary) Balance() Money {
	return s.Income.Sub(s.Expense)
}

// Summarize computes the income/expense totals over a record set. An empty
// set yields a zero summary.
func Summarize(records []Transaction) Summary {
	var s Summary
	for _, t := range records {
		if t.Type == Income {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	return s
}

// SortByDateDesc orders records newest first. The sort is stable, so records
// sharing a date keep their source order.
func SortByDateDesc(records []Transaction) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// ByCategory sums expense amounts per category. Income is excluded and an
// empty category is folded into UncategorizedLabel. An empty record set
// yields an empty map.
func ByCategory(records []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, t := range records {
		if t.Type != Expense {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		out[cat] = out[cat].Add(t.Amount)
	}
	return out
}

// ByMonth buckets the records of one calendar year into twelve income and
// twelve expense totals (index 0 = January). Records outside the year are
// skipped. Month assignment follows loc, the reporting timezone; a nil loc
// means time.Local.
func ByMonth(records []Transaction, year int, loc *time.Location) (income, expense [12]Money) {
	if loc == nil {
		loc = time.Local
	}
	for _, t := range records {
		d := t.Date.In(loc)
		if d.Year() != year {
			continue
		}
		m := int(d.Month()) - 1
		if t.Type == Income {
			income[m] = income[m].Add(t.Amount)
		} else {
			expense[m] = expense[m].Add(t.Amount)
		}
	}
	return income, expense
}
