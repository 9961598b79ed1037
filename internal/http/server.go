package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"rateio/internal/log"
	"rateio/internal/metrics"
	"rateio/internal/middleware/ratelimit"
	"rateio/internal/middleware/security"
	"rateio/internal/middleware/trace"
	"rateio/internal/services"
	appweb "rateio/web"
)

// Pinger reports whether the table store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the domain services the handlers call.
type Services struct {
	Participants *services.ParticipantService
	Expenses     *services.ExpenseService
	Shopping     *services.ShoppingService
	Dashboard    *services.DashboardService
}

// Options configures the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	Logger             *log.Logger
	Metrics            *metrics.Metrics
	Ready              Pinger
}

type Server struct {
	http.Server
	templates *template.Template
	svc       Services
	ready     Pinger
	logger    *log.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers routes and wraps the
// mux in the middleware chain.
func NewServer(opts Options, svc Services) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
		},
		templates: t,
		svc:       svc,
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
		metrics:   m,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(m),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	var h http.Handler = mux
	h = m.Middleware(h)
	h = withTimeout(opts.RequestTimeout)(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(h)
	h = log.Middleware(logger)(h)
	s.Handler = h

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /ui/overview", s.handleOverview)
	mux.HandleFunc("GET /ui/amount-mask", s.handleAmountMask)
	mux.HandleFunc("GET /api/summary", s.handleSummaryJSON)
	mux.HandleFunc("GET /charts/expenses.png", s.handleChart)

	mux.HandleFunc("GET /ui/participants", s.handleParticipantList)
	mux.HandleFunc("POST /participants", s.handleCreateParticipant)
	mux.HandleFunc("DELETE /participants/{id}", s.handleDeleteParticipant)

	mux.HandleFunc("GET /ui/expenses", s.handleExpenseList)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /ui/shopping", s.handleShoppingList)
	mux.HandleFunc("POST /shopping", s.handleCreateShoppingItem)
	mux.HandleFunc("POST /shopping/{id}/toggle", s.handleToggleShoppingItem)
	mux.HandleFunc("DELETE /shopping/{id}", s.handleDeleteShoppingItem)

	mux.HandleFunc("GET /export/expenses.csv", s.handleExportCSV)
	mux.HandleFunc("GET /export/expenses.pdf", s.handleExportPDF)
	return nil
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
