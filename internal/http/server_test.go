package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"networth/internal/core"
	"networth/internal/middleware/trace"
	"networth/internal/sheets/memory"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func newTestServer(t *testing.T, opts Options) (*Server, *memory.Store) {
	t.Helper()
	n := 0
	store := memory.New(
		memory.WithClock(func() time.Time { return fixedNow }),
		memory.WithIDs(func() string { n++; return fmt.Sprintf("calc-%d", n) }),
	)
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	srv := NewServer(":0", store, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

const validBody = `{
	"userId": "u1",
	"currency": "USD",
	"assets": {"checking": 500, "savings": 1500},
	"liabilities": {"creditCard1": 400},
	"totalAssets": 2000,
	"totalLiabilities": 400,
	"netWorth": 1600
}`

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealthProbes(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr := do(srv, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("/api/health status=%d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if body["timestamp"] != "2025-03-14T09:26:53.589Z" {
		t.Errorf("timestamp = %q", body["timestamp"])
	}
}

func TestCreateCalculation(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	rr := do(srv, http.MethodPost, "/api/net-worth", validBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var rec core.NetWorthCalculation
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID != "calc-1" || rec.UserID != "u1" || rec.Currency != core.USD {
		t.Errorf("unexpected record identity: %+v", rec)
	}
	if rec.TotalAssets != 2000 || rec.NetWorth != 1600 {
		t.Errorf("totals = %v / %v", rec.TotalAssets, rec.NetWorth)
	}
	if !rec.CreatedAt.Equal(fixedNow) || !rec.UpdatedAt.Equal(rec.CreatedAt) {
		t.Errorf("timestamps = %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d records, want 1", store.Len())
	}
}

func TestCreateCalculationDefaultsCurrency(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(srv, http.MethodPost, "/api/net-worth", `{"assets":{},"liabilities":{},"extra":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var rec core.NetWorthCalculation
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Currency != core.USD {
		t.Errorf("currency = %q, want USD", rec.Currency)
	}
}

func TestCreateCalculationRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPath string
		wantCode string
	}{
		{
			name:     "negative asset",
			body:     `{"currency":"USD","assets":{"checking":-1},"liabilities":{}}`,
			wantPath: "assets.checking",
			wantCode: core.CodeTooSmall,
		},
		{
			name:     "unknown currency",
			body:     `{"currency":"XYZ","assets":{},"liabilities":{}}`,
			wantPath: "currency",
			wantCode: core.CodeInvalidEnum,
		},
		{
			name:     "string amount",
			body:     `{"assets":{"savings":"100"},"liabilities":{}}`,
			wantPath: "assets.savings",
			wantCode: core.CodeInvalidType,
		},
		{
			name:     "malformed json",
			body:     `{"assets":`,
			wantPath: "",
			wantCode: CodeInvalidJSON,
		},
		{
			name:     "array body",
			body:     `[1,2]`,
			wantPath: "",
			wantCode: CodeInvalidJSON,
		},
		{
			name:     "trailing data",
			body:     `{"assets":{},"liabilities":{}} {}`,
			wantPath: "",
			wantCode: CodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t, Options{})
			rr := do(srv, http.MethodPost, "/api/net-worth", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			body := decodeError(t, rr)
			if body.Message != MsgInvalidData {
				t.Errorf("message = %q", body.Message)
			}
			if len(body.Errors) == 0 {
				t.Fatal("expected at least one error")
			}
			found := false
			for _, e := range body.Errors {
				if strings.Join(e.Path, ".") == tt.wantPath && e.Code == tt.wantCode {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %+v missing %s/%s", body.Errors, tt.wantPath, tt.wantCode)
			}
			if store.Len() != 0 {
				t.Errorf("rejected payload was stored")
			}
		})
	}
}

func TestMalformedJSONHasSingleError(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(srv, http.MethodPost, "/api/net-worth", "not json")
	body := decodeError(t, rr)
	if len(body.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(body.Errors))
	}
}

func TestGetCalculation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/net-worth", validBody)

	rr := do(srv, http.MethodGet, "/api/net-worth/calc-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var rec core.NetWorthCalculation
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Assets.Savings != 1500 {
		t.Errorf("savings = %v, want 1500", rec.Assets.Savings)
	}

	rr = do(srv, http.MethodGet, "/api/net-worth/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d", rr.Code)
	}
	if msg := decodeError(t, rr).Message; msg != MsgNotFound {
		t.Errorf("message = %q", msg)
	}
}

func TestListUserCalculations(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/net-worth", validBody)
	do(srv, http.MethodPost, "/api/net-worth", `{"userId":"u2","assets":{},"liabilities":{}}`)
	do(srv, http.MethodPost, "/api/net-worth", validBody)

	rr := do(srv, http.MethodGet, "/api/users/u1/net-worth", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var recs []core.NetWorthCalculation
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "calc-1" || recs[1].ID != "calc-3" {
		t.Errorf("unexpected list: %+v", recs)
	}

	rr = do(srv, http.MethodGet, "/api/users/nobody/net-worth", "")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("empty list body = %q, want []", got)
	}
}

func TestCalculationReport(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	do(srv, http.MethodPost, "/api/net-worth", validBody)

	rr := do(srv, http.MethodGet, "/api/net-worth/calc-1/report", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	page := rr.Body.String()
	for _, want := range []string{"<h1>Net Worth Report</h1>", "1,600.00", "Checking Account"} {
		if !strings.Contains(page, want) {
			t.Errorf("report missing %q", want)
		}
	}

	rr = do(srv, http.MethodGet, "/api/net-worth/missing/report", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id status=%d", rr.Code)
	}
}

func TestRateLimitAppliesToPostOnly(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := do(srv, http.MethodPost, "/api/net-worth", validBody); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(srv, http.MethodPost, "/api/net-worth", validBody)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if msg := decodeError(t, rr).Message; msg != MsgRateLimited {
		t.Errorf("message = %q", msg)
	}

	for i := 0; i < 5; i++ {
		if rr := do(srv, http.MethodGet, "/api/health", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET throttled: status=%d", rr.Code)
		}
	}

	requests, _, limits := srv.Metrics()
	if requests.TotalRequests != 8 || limits.Rejected != 1 {
		t.Errorf("metrics: requests=%d rejected=%d", requests.TotalRequests, limits.Rejected)
	}
}

func TestResponseHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(srv, http.MethodGet, "/api/health", "")

	if rr.Header().Get(trace.HeaderRequestID) == "" {
		t.Error("request id header missing")
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRoutingErrors(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	if rr := do(srv, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodDelete, "/api/net-worth/calc-1", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status=%d", rr.Code)
	}
}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, core.NewCalculation) (core.NetWorthCalculation, error) {
	return core.NetWorthCalculation{}, f.err
}

func (f failingStore) Get(context.Context, string) (core.NetWorthCalculation, error) {
	return core.NetWorthCalculation{}, f.err
}

func (f failingStore) ListByUser(context.Context, string) ([]core.NetWorthCalculation, error) {
	return nil, f.err
}

func TestStoreFailuresMapTo500(t *testing.T) {
	srv := NewServer(":0", failingStore{err: errors.New("disk on fire")}, Options{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/api/net-worth", validBody},
		{http.MethodGet, "/api/net-worth/x", ""},
		{http.MethodGet, "/api/users/u1/net-worth", ""},
	}
	for _, c := range cases {
		rr := do(srv, c.method, c.path, c.body)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s %s status=%d", c.method, c.path, rr.Code)
			continue
		}
		if msg := decodeError(t, rr).Message; msg != MsgInternalError {
			t.Errorf("%s %s message=%q", c.method, c.path, msg)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := NewServer(":0", memory.New(), Options{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
