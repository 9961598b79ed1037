package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rateio/internal/cache"
	"rateio/internal/core"
	"rateio/internal/log"
	"rateio/internal/memory"
	"rateio/internal/metrics"
	"rateio/internal/ports"
	"rateio/internal/services"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, store ports.Store, opts Options) *Server {
	t.Helper()

	summaries := cache.NewLRUCache[core.Summary](4, time.Minute)
	dash := services.NewDashboardService(store, store, summaries)
	inv := services.WithInvalidator(dash)
	svc := Services{
		Participants: services.NewParticipantService(store, inv),
		Expenses:     services.NewExpenseService(store, nil, inv),
		Shopping:     services.NewShoppingService(store),
		Dashboard:    dash,
	}

	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: io.Discard})
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	if opts.Ready == nil {
		opts.Ready = store
	}

	srv, err := NewServer(opts, svc)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func newEnv(t *testing.T) testEnv {
	store := memory.New()
	return testEnv{srv: newTestEnv(t, store, Options{}), store: store}
}

func (e testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("HX-Trigger %q is not JSON: %v", raw, err)
	}
	return out
}

func notification(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	raw, ok := triggers(t, rec)[EventNotification]
	if !ok {
		t.Fatalf("no %s trigger in %q", EventNotification, rec.Header().Get("HX-Trigger"))
	}
	var n struct{ Type, Message string }
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("notification payload: %v", err)
	}
	if n.Type != "error" {
		t.Errorf("notification type = %q, want error", n.Type)
	}
	return n.Message
}

func TestIndexHealthAndMetrics(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Rateio de Despesas", `hx-get="/ui/overview"`, `id="amount"`, "/static/app.js"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "https://unpkg.com") {
		t.Errorf("CSP = %q", rec.Header().Get("Content-Security-Policy"))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	for _, path := range []string{"/healthz", "/readyz", "/static/app.css"} {
		if rec := env.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), `rateio_http_requests_total{code="200",method="GET",route="GET /{$}"}`) {
		t.Errorf("metrics missing index request counter:\n%s", rec.Body.String())
	}

	if rec := env.do(t, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestParticipantLifecycle(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/participants", url.Values{"name": {"Ana e Bruno"}, "type": {"casal"}, "children": {"2"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := triggers(t, rec)
	for _, name := range []string{EventFormReset, EventParticipantsChanged, EventOverviewRefresh} {
		if _, ok := got[name]; !ok {
			t.Errorf("create missing trigger %s", name)
		}
	}

	rec = env.do(t, http.MethodGet, "/ui/participants", nil)
	for _, want := range []string{"Ana e Bruno", "Casal", `hx-delete="/participants/1"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("participants partial missing %q:\n%s", want, rec.Body.String())
		}
	}

	if rec := env.do(t, http.MethodDelete, "/participants/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/participants/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if msg := notification(t, rec); !strings.HasPrefix(msg, "Erro ao excluir participante: ") {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateParticipantValidation(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/participants", url.Values{"name": {"Zé"}, "type": {"trio"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if msg := notification(t, rec); msg != "Erro ao adicionar participante: invalid participant type" {
		t.Errorf("message = %q", msg)
	}

	rec = env.do(t, http.MethodPost, "/participants", url.Values{"name": {strings.Repeat("a", 101)}, "type": {"individual"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long name status = %d, want 422", rec.Code)
	}
}

func TestOverviewAggregates(t *testing.T) {
	env := newEnv(t)

	env.do(t, http.MethodPost, "/participants", url.Values{"name": {"Ana e Bruno"}, "type": {"casal"}})
	env.do(t, http.MethodPost, "/participants", url.Values{"name": {"Carla"}, "type": {"individual"}, "children": {"1"}})

	rec := env.do(t, http.MethodGet, "/ui/overview", nil)
	if !strings.Contains(rec.Body.String(), "Nenhuma despesa registrada.") {
		t.Errorf("empty overview should show placeholder:\n%s", rec.Body.String())
	}

	for _, e := range []url.Values{
		{"description": {"Carne"}, "amount": {"300,00"}, "category": {"Churrasco"}},
		{"description": {"Cerveja"}, "amount": {"150,00"}, "category": {"Bebidas"}},
	} {
		rec := env.do(t, http.MethodPost, "/expenses", e)
		if rec.Code != http.StatusOK {
			t.Fatalf("create expense status = %d body=%s", rec.Code, rec.Body.String())
		}
		if _, ok := triggers(t, rec)[EventOverviewRefresh]; !ok {
			t.Error("expense create must refresh the overview")
		}
	}

	rec = env.do(t, http.MethodGet, "/ui/overview", nil)
	body := rec.Body.String()
	for _, want := range []string{
		"3 adultos",
		"R$ 450,00",
		"R$ 150,00",
		"R$ 300,00",
		"66.67%",
		"33.33%",
		`src="/charts/expenses.png?v=`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("overview missing %q:\n%s", want, body)
		}
	}
	if strings.Index(body, "Churrasco") > strings.Index(body, "Bebidas") {
		t.Error("categories should keep first-seen order")
	}

	rec = env.do(t, http.MethodGet, "/api/summary", nil)
	var sum struct {
		TotalAdults          int   `json:"total_adults"`
		TotalCouples         int   `json:"total_couples"`
		TotalChildren        int   `json:"total_children"`
		TotalExpenseCents    int64 `json:"total_expense_cents"`
		CostPerPersonCents   int64 `json:"cost_per_person_cents"`
		AmountPerCoupleCents int64 `json:"amount_per_couple_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("summary JSON: %v", err)
	}
	if sum.TotalAdults != 3 || sum.TotalCouples != 1 || sum.TotalChildren != 1 ||
		sum.TotalExpenseCents != 45000 || sum.CostPerPersonCents != 15000 || sum.AmountPerCoupleCents != 30000 {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestExpenseListAndDelete(t *testing.T) {
	env := newEnv(t)

	env.do(t, http.MethodPost, "/expenses", url.Values{"description": {"Antiga"}, "amount": {"10,00"}, "category": {"A"}, "date": {"2024-01-10"}})
	env.do(t, http.MethodPost, "/expenses", url.Values{"description": {"Nova"}, "amount": {"20,00"}, "category": {"B"}, "date": {"2024-03-05"}})

	body := env.do(t, http.MethodGet, "/ui/expenses", nil).Body.String()
	if strings.Index(body, "Nova") > strings.Index(body, "Antiga") {
		t.Errorf("expenses should be listed newest first:\n%s", body)
	}
	if !strings.Contains(body, "05/03/2024") || !strings.Contains(body, "R$ 20,00") {
		t.Errorf("expense row not formatted:\n%s", body)
	}

	rec := env.do(t, http.MethodDelete, "/expenses/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, ok := triggers(t, rec)[EventExpensesChanged]; !ok {
		t.Error("delete must trigger expenses:changed")
	}

	rec = env.do(t, http.MethodDelete, "/expenses/abc", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d, want 404", rec.Code)
	}
}

func TestCreateExpenseInvalidAmount(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/expenses", url.Values{"description": {"x"}, "amount": {"abc"}, "category": {"c"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if msg := notification(t, rec); msg != "Erro ao adicionar despesa: invalid amount" {
		t.Errorf("message = %q", msg)
	}
	if _, ok := triggers(t, rec)[EventFormReset]; ok {
		t.Error("failed create must not reset the form")
	}
}

func TestShoppingFlow(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/shopping", url.Values{"itemName": {"Sabão"}, "itemCategory": {"desconhecida"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}
	got := triggers(t, rec)
	if _, ok := got[EventShoppingChanged]; !ok {
		t.Error("missing shopping:changed")
	}
	if _, ok := got[EventOverviewRefresh]; ok {
		t.Error("shopping changes must not refresh the overview")
	}
	env.do(t, http.MethodPost, "/shopping", url.Values{"itemName": {"Arroz"}, "quantity": {"2"}, "itemCategory": {"alimentos"}})

	if rec := env.do(t, http.MethodPost, "/shopping/2/toggle", url.Values{"completed": {"on"}}); rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}

	body := env.do(t, http.MethodGet, "/ui/shopping", nil).Body.String()
	if strings.Index(body, "Alimentos") > strings.Index(body, "Itens Gerais") {
		t.Errorf("sections out of order:\n%s", body)
	}
	if !strings.Contains(body, `class="purchased"`) || !strings.Contains(body, " checked") {
		t.Errorf("completed item not marked:\n%s", body)
	}

	rec = env.do(t, http.MethodPost, "/shopping/99/toggle", url.Values{"completed": {"on"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("toggle unknown status = %d", rec.Code)
	}
	if msg := notification(t, rec); !strings.HasPrefix(msg, "Erro ao atualizar item: ") {
		t.Errorf("message = %q", msg)
	}

	if rec := env.do(t, http.MethodDelete, "/shopping/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/shopping", url.Values{"itemName": {""}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty item status = %d", rec.Code)
	}
}

func TestAmountMask(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		raw, want string
	}{
		{"123456", `value="1.234,56"`},
		{"1.234,5", `value="123,45"`},
		{"", `value="0,00"`},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/ui/amount-mask?amount="+url.QueryEscape(tt.raw), nil)
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("mask(%q) body = %s, want %s", tt.raw, rec.Body.String(), tt.want)
		}
	}
}

func TestChart(t *testing.T) {
	env := newEnv(t)

	if rec := env.do(t, http.MethodGet, "/charts/expenses.png", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("empty chart status = %d, want 204", rec.Code)
	}

	env.do(t, http.MethodPost, "/expenses", url.Values{"description": {"Carne"}, "amount": {"100,00"}, "category": {"Churrasco"}})
	rec := env.do(t, http.MethodGet, "/charts/expenses.png", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("chart status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("chart body is not a PNG")
	}
}

func TestExports(t *testing.T) {
	env := newEnv(t)
	env.do(t, http.MethodPost, "/expenses", url.Values{"description": {"Carne"}, "amount": {"1.234,56"}, "category": {"Churrasco"}, "date": {"2024-06-01"}})

	rec := env.do(t, http.MethodGet, "/export/expenses.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=despesas.csv" {
		t.Errorf("csv Content-Disposition = %q", cd)
	}
	csv := rec.Body.String()
	if !strings.Contains(csv, "Descrição,Valor,Categoria,Data") || !strings.Contains(csv, `Carne,"R$ 1.234,56",Churrasco,01/06/2024`) {
		t.Errorf("csv body = %q", csv)
	}

	rec = env.do(t, http.MethodGet, "/export/expenses.pdf", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("pdf body does not start with %PDF")
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	store := memory.New()
	env := testEnv{srv: newTestEnv(t, store, Options{RateLimitPerMinute: 1}), store: store}

	form := url.Values{"itemName": {"Arroz"}}
	if rec := env.do(t, http.MethodPost, "/shopping", form); rec.Code != http.StatusOK {
		t.Fatalf("first post status = %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/shopping", form)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second post status = %d, want 429", rec.Code)
	}
	if msg := notification(t, rec); !strings.HasPrefix(msg, "Muitas requisições") {
		t.Errorf("message = %q", msg)
	}
	if rec := env.do(t, http.MethodGet, "/ui/shopping", nil); rec.Code != http.StatusOK {
		t.Errorf("reads must not be limited, status = %d", rec.Code)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	env := newEnv(t)
	if rec := env.do(t, http.MethodGet, "/.env", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) ListParticipants(context.Context) ([]core.Participant, error) {
	return nil, f.err
}

func (f failingStore) Ping(context.Context) error { return f.err }

func TestStoreFailures(t *testing.T) {
	store := failingStore{Store: memory.New(), err: errors.New("connection refused")}
	env := testEnv{srv: newTestEnv(t, store, Options{})}

	rec := env.do(t, http.MethodGet, "/ui/participants", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := notification(t, rec); msg != "Erro ao carregar participantes: list participants: connection refused" {
		t.Errorf("message = %q", msg)
	}

	if rec := env.do(t, http.MethodGet, "/ui/overview", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("overview status = %d, want 500", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rec.Code)
	}
}
