package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := store.New(0, ContextNotifier())
	s := NewServer(st, Options{Addr: ":0"})
	s.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
	})
	return s, st
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := get(t, s, "/healthz"); rec.Code != 200 || rec.Body.String() != "ok" {
		t.Errorf("healthz: got %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, s, "/readyz"); rec.Code != 200 || rec.Body.String() != "ready" {
		t.Errorf("readyz: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexRendersShell(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/")
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Dashboard", "Transactions", "Budgets", "Insights", "/ui/dashboard"} {
		if !strings.Contains(body, want) {
			t.Errorf("index should contain %q", want)
		}
	}

	if rec := get(t, s, "/?view=insights"); !strings.Contains(rec.Body.String(), `hx-get="/ui/insights"`) {
		t.Errorf("view param should select the initial partial")
	}

	if rec := get(t, s, "/nope"); rec.Code != 404 {
		t.Errorf("unknown path should 404, got %d", rec.Code)
	}
}

func TestViewsRenderEmptyStates(t *testing.T) {
	s, _ := newTestServer(t)

	views := map[string]string{
		"/ui/dashboard":    "No transactions yet",
		"/ui/transactions": "No transactions yet",
		"/ui/budgets":      "No budgets for this month",
		"/ui/insights":     "Nothing to analyze yet",
	}
	for path, want := range views {
		rec := get(t, s, path)
		if rec.Code != 200 {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
			continue
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: empty state should contain %q", path, want)
		}
	}
}

func TestCreateTransactionFlow(t *testing.T) {
	s, st := newTestServer(t)

	rec := postForm(t, s, "/transactions", url.Values{
		"amount":      {"300"},
		"date":        {"2025-06-05"},
		"category":    {"Food"},
		"description": {"Groceries"},
	})
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	header := rec.Header().Get("HX-Trigger")
	for _, want := range []string{"show-notification", "transactions:changed", "form:reset"} {
		if !strings.Contains(header, want) {
			t.Errorf("HX-Trigger should contain %q, got %s", want, header)
		}
	}
	if len(st.Transactions()) != 1 {
		t.Fatalf("expected 1 stored transaction")
	}

	// Views now include it
	if rec := get(t, s, "/ui/transactions"); !strings.Contains(rec.Body.String(), "Groceries") {
		t.Errorf("transactions view should list the new record")
	}
	if rec := get(t, s, "/ui/dashboard"); !strings.Contains(rec.Body.String(), "$300.00") {
		t.Errorf("dashboard should reflect the month total")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, st := newTestServer(t)

	rec := postForm(t, s, "/transactions", url.Values{
		"amount":   {"-5"},
		"date":     {"2025-06-05"},
		"category": {"Food"},
	})
	if rec.Code != 422 {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "form-error") {
		t.Errorf("expected inline error fragment, got %s", rec.Body.String())
	}
	if len(st.Transactions()) != 0 {
		t.Errorf("nothing should be stored")
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s, st := newTestServer(t)

	postForm(t, s, "/transactions", url.Values{
		"amount": {"100"}, "date": {"2025-06-01"}, "category": {"Food"}, "description": {"Before"},
	})
	id := st.Transactions()[0].ID

	rec := postForm(t, s, "/transactions/update", url.Values{
		"id": {id}, "amount": {"250"}, "date": {"2025-06-02"}, "category": {"Shopping"}, "description": {"After"},
	})
	if rec.Code != 200 {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, ok := st.Transaction(id)
	if !ok || got.Description != "After" || got.Amount.Cents != 25000 || got.Category != "Shopping" {
		t.Fatalf("unexpected record after update: %+v", got)
	}

	// Delete accepts the DELETE verb too
	req := httptest.NewRequest(http.MethodDelete, "/transactions/delete?id="+id, nil)
	del := httptest.NewRecorder()
	s.Handler.ServeHTTP(del, req)
	if del.Code != 200 {
		t.Fatalf("delete: expected 200, got %d", del.Code)
	}
	if len(st.Transactions()) != 0 {
		t.Errorf("record should be gone")
	}
}

func TestBudgetDuplicateRejected(t *testing.T) {
	s, st := newTestServer(t)

	form := url.Values{"amount": {"400"}, "month": {"2025-06"}, "category": {"Food"}}
	if rec := postForm(t, s, "/budgets", form); rec.Code != 200 {
		t.Fatalf("first budget: expected 200, got %d", rec.Code)
	}

	rec := postForm(t, s, "/budgets", form)
	if rec.Code != 422 {
		t.Errorf("duplicate budget: expected 422, got %d", rec.Code)
	}
	header := rec.Header().Get("HX-Trigger")
	if !strings.Contains(header, "Budget Already Exists") || !strings.Contains(header, "destructive") {
		t.Errorf("expected destructive toast in HX-Trigger, got %s", header)
	}
	if len(st.Budgets()) != 1 {
		t.Errorf("exactly one budget must remain")
	}
}

func TestBudgetsViewClassification(t *testing.T) {
	s, st := newTestServer(t)
	st.Seed(
		[]core.Transaction{
			{Amount: core.Money{Cents: 30000}, Date: core.NewDate(2025, 6, 5), Category: "Food"},
			{Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 6, 7), Category: "Shopping"},
		},
		[]core.Budget{
			{Category: "Food", Month: "2025-06", Amount: core.Money{Cents: 40000}},
			{Category: "Shopping", Month: "2025-06", Amount: core.Money{Cents: 40000}},
		},
	)

	rec := get(t, s, "/ui/budgets?month=2025-06")
	body := rec.Body.String()
	if !strings.Contains(body, "badge--success") {
		t.Errorf("75%% used should render on-track")
	}
	if !strings.Contains(body, "badge--danger") {
		t.Errorf("125%% used should render over-budget")
	}
	if !strings.Contains(body, "June 2025") {
		t.Errorf("month label missing")
	}
}

func TestTransactionListsOrderedByDate(t *testing.T) {
	s, st := newTestServer(t)
	// Inserted out of date order on purpose
	st.Seed([]core.Transaction{
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 3), Description: "Day03", Category: "Food"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 6), Description: "Day06", Category: "Food"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 1), Description: "Day01", Category: "Food"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 5), Description: "Day05", Category: "Food"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 2), Description: "Day02", Category: "Food"},
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 6, 4), Description: "Day04", Category: "Food"},
	}, nil)

	body := get(t, s, "/ui/transactions").Body.String()
	last := -1
	for _, want := range []string{"Day06", "Day05", "Day04", "Day03", "Day02", "Day01"} {
		idx := strings.Index(body, want)
		if idx == -1 {
			t.Fatalf("transactions view should contain %q", want)
		}
		if idx < last {
			t.Errorf("%q should render after the newer records", want)
		}
		last = idx
	}

	// Recent activity keeps the five newest by date, not by insertion
	dash := get(t, s, "/ui/dashboard").Body.String()
	if strings.Contains(dash, "Day01") {
		t.Errorf("oldest record should fall out of recent activity")
	}
	if strings.Index(dash, "Day06") > strings.Index(dash, "Day02") {
		t.Errorf("recent activity should lead with the newest record")
	}
}

func TestInsightsBudgetCards(t *testing.T) {
	s, st := newTestServer(t)
	st.Seed(
		[]core.Transaction{
			{Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 6, 5), Category: "Food", Description: "Groceries"},
			{Amount: core.Money{Cents: 35000}, Date: core.NewDate(2025, 6, 6), Category: "Shopping", Description: "Clothes"},
			{Amount: core.Money{Cents: 10000}, Date: core.NewDate(2025, 6, 7), Category: "Rent", Description: "Storage"},
		},
		[]core.Budget{
			{Category: "Food", Month: "2025-06", Amount: core.Money{Cents: 40000}},
			{Category: "Shopping", Month: "2025-06", Amount: core.Money{Cents: 40000}},
			{Category: "Rent", Month: "2025-06", Amount: core.Money{Cents: 100000}},
		},
	)

	body := get(t, s, "/ui/insights").Body.String()
	cards := map[string]string{
		"over budget": "You have exceeded your Food budget by $100.00.",
		"near limit":  "You are close to your Shopping budget limit. $50.00 remaining.",
		"on track":    "You are within your Rent budget. $900.00 remaining.",
	}
	for name, want := range cards {
		if !strings.Contains(body, want) {
			t.Errorf("%s card missing, want %q", name, want)
		}
	}
	for _, class := range []string{"insight--danger", "insight--warning", "insight--success"} {
		if !strings.Contains(body, class) {
			t.Errorf("status class %q missing", class)
		}
	}
	if !strings.Contains(body, "budgets:changed from:body") {
		t.Errorf("insights should re-render when budgets change")
	}
}

func TestTransactionFormPrefill(t *testing.T) {
	s, st := newTestServer(t)
	st.Seed([]core.Transaction{{
		ID:          "tx-1",
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2025, 6, 5),
		Description: "Lunch",
		Category:    "Food",
	}}, nil)

	rec := get(t, s, "/ui/transaction-form?id=tx-1")
	body := rec.Body.String()
	for _, want := range []string{`value="12.50"`, `value="2025-06-05"`, `value="Lunch"`, "/transactions/update", "Cancel"} {
		if !strings.Contains(body, want) {
			t.Errorf("edit form should contain %q", want)
		}
	}

	// Unknown id falls back to the create form
	rec = get(t, s, "/ui/transaction-form?id=nope")
	if !strings.Contains(rec.Body.String(), `hx-post="/transactions"`) {
		t.Errorf("unknown id should render the create form")
	}
}

func TestMutationRateLimit(t *testing.T) {
	st := store.New(0, ContextNotifier())
	s := NewServer(st, Options{Addr: ":0", RateLimitRPM: 2})
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
	})

	form := url.Values{"amount": {"10"}, "date": {"2025-06-01"}, "category": {"Food"}}
	for i := 0; i < 2; i++ {
		if rec := postForm(t, s, "/transactions", form); rec.Code != 200 {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := postForm(t, s, "/transactions", form)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Errorf("429 should carry Retry-After")
	}
}

func TestDerivedViewsCacheOnVersion(t *testing.T) {
	s, _ := newTestServer(t)

	get(t, s, "/ui/transactions")
	if s.txCache.Size() != 1 {
		t.Fatalf("first render should populate the cache")
	}

	// Same version hits the cache; a mutation changes the key
	get(t, s, "/ui/transactions")
	if s.txCache.Size() != 1 {
		t.Fatalf("same version must not add entries")
	}

	postForm(t, s, "/transactions", url.Values{
		"amount": {"10"}, "date": {"2025-06-01"}, "category": {"Food"},
	})
	get(t, s, "/ui/transactions")
	if s.txCache.Size() != 2 {
		t.Fatalf("new version should produce a new entry, size=%d", s.txCache.Size())
	}
}
