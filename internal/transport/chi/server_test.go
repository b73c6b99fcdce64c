package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/footrag/internal/domain/entity"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	healthuc "github.com/kailas-cloud/footrag/internal/usecase/health"
	"github.com/kailas-cloud/footrag/internal/usecase/pipeline"
)

// --- Mocks ---

type mockAnswerer struct {
	gotQuery string
	gotLimit int
	calls    int
	resp     pipeline.Response
	panicMsg string
}

func (m *mockAnswerer) AnswerLimit(_ context.Context, raw string, limit int) pipeline.Response {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.calls++
	m.gotQuery, m.gotLimit = raw, limit
	return m.resp
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(a *mockAnswerer, h *mockHealth) http.Handler {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	return NewRouter(NewServer(a, h, nil), nopLogger())
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

// --- Tests ---

func TestAsk_Success(t *testing.T) {
	score := 0.8
	a := &mockAnswerer{resp: pipeline.Response{
		Answer: "Erling Haaland scored the most goals.",
		Context: []entity.Document{
			entity.New(table.Players, "p1", map[string]any{"name": "Erling Haaland"}, nil, &score),
		},
		Strategy: "RANKING",
		Filters:  map[string]string{"league": "Premier League"},
		Route:    table.RoutePlayers,
	}}
	rec := do(newTestRouter(a, nil), http.MethodPost, "/ask", `{"query": "Ai ghi nhiều bàn nhất Premier League?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	body := decode(t, rec)
	if body["answer"] != "Erling Haaland scored the most goals." || body["strategy"] != "RANKING" || body["route"] != "players" {
		t.Errorf("unexpected body: %v", body)
	}
	docs, ok := body["context"].([]any)
	if !ok || len(docs) != 1 {
		t.Fatalf("expected one context document, got %v", body["context"])
	}
	doc := docs[0].(map[string]any)
	if doc["name"] != "Erling Haaland" || doc["source_table"] != "players" || doc["similarity"] != 0.8 {
		t.Errorf("unexpected document: %v", doc)
	}
	if filters := body["filters"].(map[string]any); filters["league"] != "Premier League" {
		t.Errorf("unexpected filters: %v", filters)
	}
	if a.gotQuery != "Ai ghi nhiều bàn nhất Premier League?" || a.gotLimit != 0 {
		t.Errorf("unexpected pipeline call: %q limit %d", a.gotQuery, a.gotLimit)
	}
}

func TestAsk_EmptyContextIsArray(t *testing.T) {
	a := &mockAnswerer{resp: pipeline.Response{Answer: pipeline.FailureMessage, Filters: map[string]string{}}}
	rec := do(newTestRouter(a, nil), http.MethodPost, "/ask", `{"query": "q"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"context":[]`) {
		t.Errorf("expected empty context array, got %s", rec.Body.String())
	}
}

func TestAsk_PassesLimit(t *testing.T) {
	a := &mockAnswerer{}
	rec := do(newTestRouter(a, nil), http.MethodPost, "/ask", `{"query": "q", "limit": 7}`)
	if rec.Code != http.StatusOK || a.gotLimit != 7 {
		t.Errorf("expected limit 7, got %d (status %d)", a.gotLimit, rec.Code)
	}
}

func TestAsk_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"query":`, codeBadRequest},
		{"empty body", ``, codeBadRequest},
		{"empty query", `{"query": "   "}`, codeValidationFailed},
		{"oversized query", `{"query": "` + strings.Repeat("a", pipeline.MaxQueryLength+1) + `"}`, codeValidationFailed},
		{"zero limit", `{"query": "q", "limit": 0}`, codeValidationFailed},
		{"body too large", `{"query": "` + strings.Repeat("a", maxBodyBytes) + `"}`, codeBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &mockAnswerer{}
			rec := do(newTestRouter(a, nil), http.MethodPost, "/ask", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := decode(t, rec)["code"]; got != tc.code {
				t.Errorf("expected code %q, got %v", tc.code, got)
			}
			if a.calls != 0 {
				t.Error("pipeline must not be called")
			}
		})
	}
}

func TestAsk_PanicRecovered(t *testing.T) {
	rec := do(newTestRouter(&mockAnswerer{panicMsg: "boom"}, nil), http.MethodPost, "/ask", `{"query": "q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if decode(t, rec)["code"] != codeInternalError {
		t.Errorf("expected internal_error, got %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			h := &mockHealth{report: healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
			}}
			rec := do(newTestRouter(&mockAnswerer{}, h), http.MethodGet, "/health", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			body := decode(t, rec)
			if body["status"] != string(tc.status) || body["version"] == "" {
				t.Errorf("unexpected body: %v", body)
			}
			if checks := body["checks"].(map[string]any); checks["database"] != "ok" {
				t.Errorf("unexpected checks: %v", checks)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestRouter(&mockAnswerer{}, nil), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected runtime metrics in exposition")
	}
}

func TestRouting_JSONErrors(t *testing.T) {
	h := newTestRouter(&mockAnswerer{}, nil)

	rec := do(h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || decode(t, rec)["code"] != codeNotFound {
		t.Errorf("unexpected 404 response: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(h, http.MethodGet, "/ask", "")
	if rec.Code != http.StatusMethodNotAllowed || decode(t, rec)["code"] != codeMethodNotAllowed {
		t.Errorf("unexpected 405 response: %d %s", rec.Code, rec.Body.String())
	}
}
