package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/aggregate"
	"github.com/Jexxy1517/CashFlowReportApp/internal/charts"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/service"
)

const maxReceiptSize = 10 << 20 // 10 MiB

type transactionRequest struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Cents    int64  `json:"amount_cents"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type scopeRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	u, ok := s.engine.Last()
	if !ok {
		u = aggregate.Update{Scope: s.resolver.Current()}
	}
	writeJSON(w, http.StatusOK, viewSummary(u))
}

func (s *Server) handleSelectScope(w http.ResponseWriter, r *http.Request) {
	var req scopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle := s.resolver.Select(req.GroupID, req.Name)
	if err := s.engine.SetScope(r.Context(), handle); err != nil {
		s.logger.ErrorContext(r.Context(), "scope switch failed",
			log.FieldScope, handle.Name,
			log.FieldError, err)
		writeError(w, http.StatusBadGateway, "could not subscribe to the selected scope")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"scope":    handle.Name,
		"group_id": handle.GroupID,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	u, ok := s.engine.Last()
	if !ok {
		writeJSON(w, http.StatusOK, []transactionView{})
		return
	}
	views := make([]transactionView, 0, len(u.Records))
	for _, t := range u.Records {
		views = append(views, viewTransaction(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var (
		req     transactionRequest
		receipt *service.Receipt
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		req = transactionRequest{
			Title:    r.FormValue("title"),
			Amount:   r.FormValue("amount"),
			Type:     r.FormValue("type"),
			Category: r.FormValue("category"),
			Date:     r.FormValue("date"),
		}
		if file, header, err := r.FormFile("receipt"); err == nil {
			defer file.Close()
			content, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
			if err != nil {
				writeError(w, http.StatusBadRequest, "could not read receipt")
				return
			}
			receipt = &service.Receipt{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     content,
			}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	trx, err := buildTransaction(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.tracker.AddTransaction(r.Context(), trx, receipt)
	if err != nil {
		s.writeDomainError(w, r, err, "create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, viewTransaction(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trx, err := buildTransaction(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	trx.ID = r.PathValue("id")

	updated, err := s.tracker.UpdateTransaction(r.Context(), trx)
	if err != nil {
		s.writeDomainError(w, r, err, "update transaction")
		return
	}
	writeJSON(w, http.StatusOK, viewTransaction(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err, "delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.tracker.Groups(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "list groups")
		return
	}
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, viewGroup(g))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	group, err := s.tracker.CreateGroup(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(w, r, err, "create group")
		return
	}
	writeJSON(w, http.StatusCreated, viewGroup(group))
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	group, err := s.tracker.AddMember(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "add member")
		return
	}
	writeJSON(w, http.StatusOK, viewGroup(group))
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)
	u, _ := s.engine.Last()
	income, expense := core.ByMonth(u.Records, year, s.loc)

	type monthRow struct {
		Month   int    `json:"month"`
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Balance string `json:"balance"`
	}
	rows := make([]monthRow, 12)
	for i := 0; i < 12; i++ {
		rows[i] = monthRow{
			Month:   i + 1,
			Income:  income[i].Format(),
			Expense: expense[i].Format(),
			Balance: income[i].Sub(expense[i]).Format(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"scope":  u.Scope.Name,
		"months": rows,
	})
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	u, ok := s.engine.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	key := "categories:" + u.Scope.Name + ":" + u.Scope.GroupID
	png, cached := s.chartCache.Get(key)
	if !cached {
		var err error
		png, err = charts.CategoryPie(core.ByCategory(u.Records))
		if err != nil {
			s.logger.ErrorContext(r.Context(), "chart render failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "chart render failed")
			return
		}
		if png != nil {
			s.chartCache.Set(key, png)
		}
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleRecapChart(w http.ResponseWriter, r *http.Request) {
	year := parseYear(r)
	u, ok := s.engine.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	key := fmt.Sprintf("recap:%s:%s:%d", u.Scope.Name, u.Scope.GroupID, year)
	png, cached := s.chartCache.Get(key)
	if !cached {
		income, expense := core.ByMonth(u.Records, year, s.loc)
		var err error
		png, err = charts.MonthlyRecap(year, income, expense)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "chart render failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "chart render failed")
			return
		}
		s.chartCache.Set(key, png)
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export not configured")
		return
	}
	u, ok := s.engine.Last()
	if !ok {
		writeError(w, http.StatusConflict, "no aggregated data yet")
		return
	}
	path, err := s.exporter.Export(r.Context(), u.Scope.Name, u.Records)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleExportSheet(w http.ResponseWriter, r *http.Request) {
	if s.recap == nil {
		writeError(w, http.StatusServiceUnavailable, "sheet export not configured")
		return
	}
	year := parseYear(r)
	u, ok := s.engine.Last()
	if !ok {
		writeError(w, http.StatusConflict, "no aggregated data yet")
		return
	}
	income, expense := core.ByMonth(u.Records, year, s.loc)
	if err := s.recap.AppendRecap(r.Context(), u.Scope.Name, year, income, expense); err != nil {
		s.logger.ErrorContext(r.Context(), "sheet export failed", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "sheet export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "scope": u.Scope.Name})
}

// handleStream mirrors the aggregation feed as server-sent events. Each
// event is the full summary view; a new subscriber immediately gets the
// last published update.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Latest-wins hand-off from the observer to this goroutine: the
	// observer runs under the engine's publish lock and must not block.
	updates := make(chan aggregate.Update, 1)
	unsubscribe := s.engine.Subscribe(func(u aggregate.Update) {
		select {
		case updates <- u:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- u:
			default:
			}
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case u := <-updates:
			payload, err := json.Marshal(viewSummary(u))
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func buildTransaction(req transactionRequest) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount, req.Cents)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount: %w", err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.Transaction{
		Title:    strings.TrimSpace(req.Title),
		Amount:   amount,
		Type:     core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Category: strings.TrimSpace(req.Category),
		Date:     date,
	}, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, datasource.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotGroupOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			log.FieldOperation, op,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
