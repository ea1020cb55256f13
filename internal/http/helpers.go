package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/aggregate"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
)

type transactionView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Cents      int64  `json:"amount_cents"`
	Type       string `json:"type"`
	Category   string `json:"category,omitempty"`
	Date       string `json:"date"`
	Account    string `json:"account"`
	GroupID    string `json:"group_id,omitempty"`
	ReceiptURL string `json:"receipt_url,omitempty"`
}

type summaryView struct {
	Scope       string            `json:"scope"`
	GroupID     string            `json:"group_id,omitempty"`
	Income      string            `json:"income"`
	Expense     string            `json:"expense"`
	Balance     string            `json:"balance"`
	Records     []transactionView `json:"records"`
	Unavailable bool              `json:"unavailable,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type groupView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	OwnerID string   `json:"owner_id"`
	Members []string `json:"members"`
}

func viewTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:         t.ID,
		Title:      t.Title,
		Amount:     t.Amount.Format(),
		Cents:      t.Amount.Cents,
		Type:       string(t.Type),
		Category:   t.Category,
		Date:       t.Date.Format(time.RFC3339),
		Account:    t.Account,
		GroupID:    t.GroupID,
		ReceiptURL: t.ReceiptURL,
	}
}

func viewSummary(u aggregate.Update) summaryView {
	out := summaryView{
		Scope:   u.Scope.Name,
		GroupID: u.Scope.GroupID,
		Income:  u.Summary.Income.Format(),
		Expense: u.Summary.Expense.Format(),
		Balance: u.Summary.Balance().Format(),
		Records: make([]transactionView, 0, len(u.Records)),
	}
	for _, t := range u.Records {
		out.Records = append(out.Records, viewTransaction(t))
	}
	if u.Err != nil {
		out.Unavailable = true
		out.Error = "aggregation unavailable"
	}
	return out
}

func viewGroup(g core.SavingsGroup) groupView {
	return groupView{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, Members: g.Members}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseYear reads the year query parameter, defaulting to the current
// year.
func parseYear(r *http.Request) int {
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			return y
		}
	}
	return time.Now().Year()
}

// parseAmount accepts either a decimal string ("150.000" or "150000,50")
// or raw cents.
func parseAmount(amount string, cents int64) (core.Money, error) {
	if cents != 0 {
		return core.Money{Cents: cents}, nil
	}
	parsed, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: parsed}, nil
}
