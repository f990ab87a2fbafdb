package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/reports"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(Config{
		Addr:              ":0",
		SessionTTL:        time.Hour,
		RequestsPerMinute: 10000,
	}, repo, services.NewExpenseService(repo, nil), services.NewGoalService(repo), reports.NewEngine(repo, repo))
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	token, _ := decodeResponse(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("register returned no token")
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "ada@example.com")

	// Same address cannot register twice.
	rr := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    "ada@example.com",
		"name":     "Imposter",
		"password": "correct-horse",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status=%d", rr.Code)
	}

	// Wrong password is indistinguishable from an unknown address.
	for _, creds := range []map[string]any{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "correct-horse"},
	} {
		rr = doJSON(t, srv, http.MethodPost, "/auth/login", "", creds)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("bad login status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	token, _ := decodeResponse(t, rr)["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}

	rr = doJSON(t, srv, http.MethodGet, "/auth/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status=%d", rr.Code)
	}
	user, _ := decodeResponse(t, rr)["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Fatalf("me email=%v", user["email"])
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]any{
		"email":    "not-an-address",
		"name":     "",
		"password": "short",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	fields, _ := decodeResponse(t, rr)["fields"].([]any)
	if len(fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d", len(fields))
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/expenses", "/goals", "/dashboard/overview"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token status=%d", path, rr.Code)
		}
		rr = doJSON(t, srv, http.MethodGet, path, "bogus-token", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s with bogus token status=%d", path, rr.Code)
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	if rr := doJSON(t, srv, http.MethodPost, "/auth/logout", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("logout status=%d", rr.Code)
	}
	if rr := doJSON(t, srv, http.MethodGet, "/auth/me", token, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status=%d", rr.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "Groceries",
		"amount":   45.99,
		"category": "Food & Dining",
		"tags":     []string{"weekly"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created, _ := decodeResponse(t, rr)["expense"].(map[string]any)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created expense has no id")
	}
	if created["paymentMethod"] != "Cash" {
		t.Fatalf("paymentMethod=%v, want default Cash", created["paymentMethod"])
	}

	rr = doJSON(t, srv, http.MethodGet, "/expenses/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPut, "/expenses/"+id, token, map[string]any{
		"title":  "Groceries and wine",
		"amount": 52.40,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated, _ := decodeResponse(t, rr)["expense"].(map[string]any)
	if updated["title"] != "Groceries and wine" {
		t.Fatalf("title=%v after update", updated["title"])
	}
	if amount, _ := updated["amount"].(float64); amount != 52.40 {
		t.Fatalf("amount=%v after update", updated["amount"])
	}
	// Untouched fields survive a partial update.
	if updated["category"] != "Food & Dining" {
		t.Fatalf("category=%v after update", updated["category"])
	}

	rr = doJSON(t, srv, http.MethodDelete, "/expenses/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/expenses/"+id, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}
}

func TestExpenseValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "",
		"amount":   10,
		"category": "Teleportation",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)
	fields, _ := body["fields"].([]any)
	if len(fields) != 2 {
		t.Fatalf("expected title and category errors, got %v", body["fields"])
	}

	// Unknown body keys are rejected rather than silently dropped.
	rr = doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
		"title":    "Coffee",
		"amount":   3,
		"category": "Food & Dining",
		"colour":   "red",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown key status=%d", rr.Code)
	}
}

func TestExpenseListPagination(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	for i := 0; i < 15; i++ {
		rr := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
			"title":    fmt.Sprintf("Expense %02d", i),
			"amount":   10,
			"category": "Food & Dining",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create %d status=%d", i, rr.Code)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/expenses?page=2&limit=10", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	body := decodeResponse(t, rr)

	expenses, _ := body["expenses"].([]any)
	if len(expenses) != 5 {
		t.Fatalf("page 2 has %d expenses, want 5", len(expenses))
	}

	p, _ := body["pagination"].(map[string]any)
	want := map[string]any{
		"currentPage": 2.0, "totalPages": 2.0, "totalItems": 15.0,
		"itemsPerPage": 10.0, "hasNext": false, "hasPrev": true,
	}
	for k, v := range want {
		if p[k] != v {
			t.Errorf("pagination.%s=%v, want %v", k, p[k], v)
		}
	}

	// The summary covers all 15 records, not just the returned page.
	summary, _ := body["summary"].(map[string]any)
	if total, _ := summary["totalAmount"].(float64); total != 150 {
		t.Fatalf("summary total=%v, want 150", summary["totalAmount"])
	}
	if count, _ := summary["count"].(float64); count != 15 {
		t.Fatalf("summary count=%v, want 15", summary["count"])
	}
}

func TestExpenseListSummaryAverageRoundsHalfUp(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	// 5 + 10 cents over two records: the average is 7.5 cents, which
	// must round to 8, not truncate to 7.
	for _, amount := range []float64{0.05, 0.10} {
		rr := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
			"title":    "Tiny",
			"amount":   amount,
			"category": "Food & Dining",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/expenses", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	summary, _ := decodeResponse(t, rr)["summary"].(map[string]any)
	if avg, _ := summary["averageAmount"].(float64); avg != 0.08 {
		t.Fatalf("averageAmount=%v, want 0.08", summary["averageAmount"])
	}
}

func TestRequestLogCarriesRequestID(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	if rr := doJSON(t, srv, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, "Request started") || !strings.Contains(logs, "Request completed") {
		t.Fatalf("missing request lifecycle log lines: %s", logs)
	}
	if !strings.Contains(logs, "request_id=req_") {
		t.Fatalf("log lines carry no request id: %s", logs)
	}
}

func TestExpenseOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)
	owner := registerUser(t, srv, "ada@example.com")
	other := registerUser(t, srv, "grace@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", owner, map[string]any{
		"title":    "Private lunch",
		"amount":   12,
		"category": "Food & Dining",
	})
	created, _ := decodeResponse(t, rr)["expense"].(map[string]any)
	id, _ := created["id"].(string)

	if rr := doJSON(t, srv, http.MethodGet, "/expenses/"+id, other, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user get status=%d, want 404", rr.Code)
	}
	if rr := doJSON(t, srv, http.MethodDelete, "/expenses/"+id, other, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete status=%d, want 404", rr.Code)
	}
	if rr := doJSON(t, srv, http.MethodGet, "/expenses/"+id, owner, nil); rr.Code != http.StatusOK {
		t.Fatalf("owner get after foreign delete status=%d", rr.Code)
	}
}

func TestGoalContributionFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/goals", token, map[string]any{
		"title":        "Emergency fund",
		"targetAmount": 100,
		"targetDate":   time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02"),
		"category":     "Emergency Fund",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal, _ := decodeResponse(t, rr)["goal"].(map[string]any)
	id, _ := goal["id"].(string)
	if goal["status"] != "Active" || goal["priority"] != "Medium" {
		t.Fatalf("defaults: status=%v priority=%v", goal["status"], goal["priority"])
	}

	rr = doJSON(t, srv, http.MethodPost, "/goals/"+id+"/contribute", token, map[string]any{
		"amount": 100,
		"note":   "bonus",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("contribute status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal, _ = decodeResponse(t, rr)["goal"].(map[string]any)
	if goal["status"] != "Completed" {
		t.Fatalf("status=%v after reaching target, want Completed", goal["status"])
	}

	// A completed goal refuses further deposits.
	rr = doJSON(t, srv, http.MethodPost, "/goals/"+id+"/contribute", token, map[string]any{
		"amount": 5,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("contribute to completed goal status=%d, want 409", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/goals/"+id+"/contributions", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("contributions status=%d", rr.Code)
	}
	body := decodeResponse(t, rr)
	if count, _ := body["count"].(float64); count != 1 {
		t.Fatalf("count=%v, want 1", body["count"])
	}
	if total, _ := body["total"].(float64); total != 100 {
		t.Fatalf("total=%v, want 100", body["total"])
	}
}

func TestGoalCreateWithSeededAmount(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")
	targetDate := time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")

	rr := doJSON(t, srv, http.MethodPost, "/goals", token, map[string]any{
		"title":         "Moved from another account",
		"targetAmount":  1000,
		"currentAmount": 250,
		"targetDate":    targetDate,
		"category":      "Other",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal, _ := decodeResponse(t, rr)["goal"].(map[string]any)
	if cur, _ := goal["currentAmount"].(float64); cur != 250 {
		t.Fatalf("currentAmount=%v, want seeded 250", goal["currentAmount"])
	}
	if goal["status"] != "Active" {
		t.Fatalf("status=%v, want Active", goal["status"])
	}

	// Seeding at or past the target completes the goal outright.
	rr = doJSON(t, srv, http.MethodPost, "/goals", token, map[string]any{
		"title":         "Already funded",
		"targetAmount":  500,
		"currentAmount": 500,
		"targetDate":    targetDate,
		"category":      "Other",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal, _ = decodeResponse(t, rr)["goal"].(map[string]any)
	if goal["status"] != "Completed" {
		t.Fatalf("status=%v, want Completed", goal["status"])
	}
}

func TestGoalStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/goals", token, map[string]any{
		"title":        "Vacation",
		"targetAmount": 500,
		"targetDate":   time.Now().UTC().AddDate(0, 6, 0).Format("2006-01-02"),
		"category":     "Vacation",
	})
	goal, _ := decodeResponse(t, rr)["goal"].(map[string]any)
	id, _ := goal["id"].(string)

	rr = doJSON(t, srv, http.MethodPut, "/goals/"+id+"/status", token, map[string]any{"status": "Paused"})
	if rr.Code != http.StatusOK {
		t.Fatalf("set status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal, _ = decodeResponse(t, rr)["goal"].(map[string]any)
	if goal["status"] != "Paused" {
		t.Fatalf("status=%v, want Paused", goal["status"])
	}

	rr = doJSON(t, srv, http.MethodPut, "/goals/"+id+"/status", token, map[string]any{"status": "Hibernating"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid status code=%d, want 400", rr.Code)
	}
}

func TestGoalDetailIncludesProgress(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/goals", token, map[string]any{
		"title":        "New laptop",
		"targetAmount": 2000,
		"targetDate":   time.Now().UTC().AddDate(0, 10, 0).Format("2006-01-02"),
		"category":     "Technology",
	})
	goal, _ := decodeResponse(t, rr)["goal"].(map[string]any)
	id, _ := goal["id"].(string)

	doJSON(t, srv, http.MethodPost, "/goals/"+id+"/contribute", token, map[string]any{"amount": 500})

	rr = doJSON(t, srv, http.MethodGet, "/goals/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get goal status=%d", rr.Code)
	}
	progress, _ := decodeResponse(t, rr)["progress"].(map[string]any)
	if pct, _ := progress["percentage"].(float64); pct != 25 {
		t.Fatalf("percentage=%v, want 25", progress["percentage"])
	}
	if rem, _ := progress["remainingAmount"].(float64); rem != 1500 {
		t.Fatalf("remainingAmount=%v, want 1500", progress["remainingAmount"])
	}
}

func TestDashboardOverview(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	now := time.Now().UTC()
	for _, amount := range []float64{30, 70} {
		rr := doJSON(t, srv, http.MethodPost, "/expenses", token, map[string]any{
			"title":    "This month",
			"amount":   amount,
			"category": "Food & Dining",
			"date":     now.Format(time.RFC3339),
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/dashboard/overview", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("overview status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := decodeResponse(t, rr)

	current, _ := body["currentMonth"].(map[string]any)
	if total, _ := current["totalAmount"].(float64); total != 100 {
		t.Fatalf("currentMonth total=%v, want 100", current["totalAmount"])
	}
	if count, _ := current["count"].(float64); count != 2 {
		t.Fatalf("currentMonth count=%v, want 2", current["count"])
	}

	top, _ := body["topCategories"].([]any)
	if len(top) != 1 {
		t.Fatalf("topCategories len=%d, want 1", len(top))
	}
	food, _ := top[0].(map[string]any)
	if food["category"] != "Food & Dining" || food["percentage"].(float64) != 100 {
		t.Fatalf("top category=%v", top[0])
	}
}

func TestDashboardTrendsRejectsUnknownPeriod(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodGet, "/dashboard/spending-trends?period=42days", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q", got)
	}
}
