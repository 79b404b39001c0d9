package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/metrics"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/session"
	appweb "expenses/web"
)

// Options tunes the page behaviour and the middleware chain.
type Options struct {
	// LoadDelay is how long /ui/app holds the loader before rendering.
	LoadDelay          time.Duration
	CurrencySymbol     string
	RateLimitPerMinute int
	// SessionOpensPerMinute throttles page loads per client.
	SessionOpensPerMinute int
	// EventsEnabled is reported by /readyz.
	EventsEnabled bool
	Logger        *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Registry
	limiter   *ratelimit.Limiter
	opens     *ratelimit.Limiter
	detector  *security.Detector

	loadDelay     time.Duration
	currency      string
	eventsEnabled bool

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, sessions *session.Registry, opts Options) (*Server, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		sessions:      sessions,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		opens:         ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.SessionOpensPerMinute}),
		detector:      security.NewDetector(),
		loadDelay:     opts.LoadDelay,
		currency:      opts.CurrencySymbol,
		eventsEnabled: opts.EventsEnabled,
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.stopLimiters()
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.stopLimiters()
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	openLimit := s.opens.Every(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Too many page loads. Please wait a minute and try again.").Write(w)
	})
	mux.Handle("GET /{$}", openLimit(http.HandlerFunc(s.handleIndex)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /ui/app", s.withSession(s.handleApp))
	mux.HandleFunc("GET /ui/expenses", s.withSession(s.handleExpenseList))
	mux.HandleFunc("GET /ui/report", s.withSession(s.handleReport))
	mux.HandleFunc("GET /api/report", s.withSession(s.handleReportJSON))
	mux.HandleFunc("GET /export/report.xlsx", s.withSession(s.handleExportXLSX))

	mux.HandleFunc("POST /expenses", s.withSession(s.handleCreateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.withSession(s.handleDeleteExpense))
	mux.HandleFunc("POST /expenses/{id}/delete", s.withSession(s.handleDeleteExpense))
	mux.HandleFunc("POST /expenses/{id}/edit", s.withSession(s.handleEditExpense))

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	logged := log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP), trace.GetRequestID)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = logged(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"currency": func() string { return s.currency },
		"money": func(d decimal.Decimal) string {
			return s.currency + core.FormatAmount(d)
		},
		"date": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("Jan 2, 2006")
		},
	}
}

// Shutdown stops the HTTP server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopLimiters()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) stopLimiters() {
	s.limiter.Stop()
	s.opens.Stop()
}

// withSession resolves the page's session or tells the page to reload.
func (s *Server) withSession(next func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(sessionIDFrom(r))
		if !ok {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Unknown or expired session",
				log.FieldSessionID, sessionIDFrom(r))
			SessionGoneError().Write(w)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldSessionID, sess.ID))
		next(w, r.WithContext(ctx), sess)
	}
}

// renderTemplate executes name into a buffer so a failing template never
// leaves a half-written response.
func (s *Server) renderTemplate(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			"template", name,
			log.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// respond renders name and writes it with the builder's status and triggers.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, err := s.renderTemplate(r.Context(), name, data)
	if err != nil {
		InternalServerError("Something went wrong while rendering the page.").Write(w)
		return
	}
	b.BodyHTML(body).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	events := "disabled"
	if s.eventsEnabled {
		events = "enabled"
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": s.sessions.Active(),
		"events":   events,
	})
}

func logRequestError(r *http.Request, msg string, err error, op string) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.NewFields().WithError(err).WithOperation(op).ToSlice()...)
}
