package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jexxy1517/CashFlowReportApp/internal/aggregate"
	"github.com/Jexxy1517/CashFlowReportApp/internal/auth"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	"github.com/Jexxy1517/CashFlowReportApp/internal/datasource/memory"
	"github.com/Jexxy1517/CashFlowReportApp/internal/notify"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
	"github.com/Jexxy1517/CashFlowReportApp/internal/service"
)

func newTestServer(t *testing.T) (*Server, *aggregate.Engine) {
	t.Helper()

	store := memory.New()
	resolver := scope.NewResolver("user-1")
	engine := aggregate.New(store, nil)
	t.Cleanup(func() { engine.Close() })

	if err := engine.SetScope(context.Background(), resolver.Current()); err != nil {
		t.Fatal(err)
	}

	provider := auth.NewStatic(core.User{ID: "user-1", Name: "Budi"})
	tracker := service.NewTracker(store, resolver, provider, nil, notify.Nop{}, nil)

	s := NewServer(":0", tracker, engine, resolver, Options{}, nil)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, engine
}

func waitForRecords(t *testing.T, engine *aggregate.Engine, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if u, ok := engine.Last(); ok && len(u.Records) == want && u.Err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("engine never reached %d records", want)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransactionAndSummary(t *testing.T) {
	s, engine := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Gaji","amount_cents":500000000,"type":"income","date":"2026-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Account != core.PersonalAccountName {
		t.Fatalf("created = %+v", created)
	}

	waitForRecords(t, engine, 1)

	rec = doJSON(t, s, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var summary summaryView
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Scope != core.PersonalAccountName {
		t.Errorf("scope = %q", summary.Scope)
	}
	if summary.Income != "Rp5.000.000" {
		t.Errorf("income = %q", summary.Income)
	}
	if len(summary.Records) != 1 {
		t.Errorf("records = %d", len(summary.Records))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"title":"","amount_cents":100,"type":"expense","date":"2026-03-01"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestScopeSwitchIsolatesRecords(t *testing.T) {
	s, engine := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Gaji","amount_cents":100000,"type":"income","date":"2026-03-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	waitForRecords(t, engine, 1)

	rec = doJSON(t, s, http.MethodPost, "/api/groups", `{"name":"Liburan"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("group status = %d", rec.Code)
	}
	var group groupView
	if err := json.Unmarshal(rec.Body.Bytes(), &group); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/scope",
		`{"group_id":"`+group.ID+`","name":"Liburan"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("scope status = %d, body = %s", rec.Code, rec.Body.String())
	}
	waitForRecords(t, engine, 0)

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", "")
	var views []transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Errorf("group scope should start empty, got %d records", len(views))
	}
}

func TestRecapBucketsByMonth(t *testing.T) {
	s, engine := newTestServer(t)

	for _, body := range []string{
		`{"title":"Gaji","amount_cents":100000,"type":"income","date":"2026-03-05"}`,
		`{"title":"Belanja","amount_cents":40000,"type":"expense","date":"2026-03-20"}`,
		`{"title":"Lama","amount_cents":999999,"type":"expense","date":"2025-03-20"}`,
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	waitForRecords(t, engine, 3)

	rec := doJSON(t, s, http.MethodGet, "/api/recap?year=2026", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recap status = %d", rec.Code)
	}
	var recap struct {
		Year   int `json:"year"`
		Months []struct {
			Month   int    `json:"month"`
			Income  string `json:"income"`
			Expense string `json:"expense"`
		} `json:"months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &recap); err != nil {
		t.Fatal(err)
	}
	if recap.Year != 2026 || len(recap.Months) != 12 {
		t.Fatalf("recap = %+v", recap)
	}
	march := recap.Months[2]
	if march.Income != "Rp1.000" || march.Expense != "Rp400" {
		t.Errorf("march = %+v", march)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s, engine := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions",
		`{"title":"Kopi","amount_cents":2500000,"type":"expense","date":"2026-03-01"}`)
	var created transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	waitForRecords(t, engine, 1)

	rec = doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID,
		`{"title":"Kopi Susu","amount_cents":3000000,"type":"expense","date":"2026-03-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Kopi Susu" {
		t.Errorf("title = %q", updated.Title)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	waitForRecords(t, engine, 0)

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestAddMemberForbiddenForNonOwner(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/groups/missing/members", `{"user_id":"user-2"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
