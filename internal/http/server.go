package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"billed/internal/cache"
	"billed/internal/containers/newbill"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/middleware/ratelimit"
	"billed/internal/middleware/security"
	"billed/internal/middleware/trace"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
	appweb "billed/web"
)

// BillService is the bill backend seen by the handlers.
type BillService interface {
	store.BillStore
	store.ReceiptReader
}

// Authenticator checks login form credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string, typ core.UserType) (core.User, error)
}

// Deps are the collaborators of the server. Bills may be nil: the bill
// list is then empty and submissions skip creation.
type Deps struct {
	Bills    BillService
	Auth     Authenticator
	Sessions *session.Manager
	Logger   *log.Logger

	// Optional; defaults are built when nil or zero.
	Views          *views.Renderer
	Metrics        *metrics.Metrics
	Staging        *newbill.CacheStaging
	RateLimit      ratelimit.Config
	UploadMaxBytes int64
	// ImageSrc is an extra CSP img-src origin, for receipts hosted by the
	// remote API.
	ImageSrc string
	// Ready reports backend readiness for /readyz.
	Ready func(ctx context.Context) error
}

// Server is the Billed web server.
type Server struct {
	http.Server

	bills          BillService
	auth           Authenticator
	sessions       *session.Manager
	views          *views.Renderer
	metrics        *metrics.Metrics
	staging        *newbill.CacheStaging
	caches         *cache.Manager
	limiter        *ratelimit.Limiter
	detector       *security.Detector
	tracer         *trace.Middleware
	logger         *log.Logger
	uploadMaxBytes int64
	ready          func(ctx context.Context) error
	started        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if d.Logger == nil {
		d.Logger = log.New(log.DefaultConfig())
	}
	if d.Views == nil {
		v, err := views.New()
		if err != nil {
			return nil, err
		}
		d.Views = v
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Staging == nil {
		d.Staging = newbill.NewCacheStaging(1000, 30*time.Minute)
	}
	if d.UploadMaxBytes <= 0 {
		d.UploadMaxBytes = DefaultUploadMaxBytes
	}
	if d.RateLimit.RequestsPerMinute <= 0 {
		d.RateLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		bills:          d.Bills,
		auth:           d.Auth,
		sessions:       d.Sessions,
		views:          d.Views,
		metrics:        d.Metrics,
		staging:        d.Staging,
		caches:         cache.NewManager(d.Logger.WithComponent(log.ComponentCache).Slog()),
		limiter:        ratelimit.NewLimiter(d.RateLimit),
		detector:       security.NewDetector(),
		logger:         d.Logger.WithComponent(log.ComponentHTTP),
		uploadMaxBytes: d.UploadMaxBytes,
		ready:          d.Ready,
		started:        time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.caches.Register(s.staging.Cleaner())
	s.caches.Register(d.Sessions.Revoked())
	s.caches.StartCleanup(10 * time.Minute)
	s.registerMetrics()

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.DefaultHeadersConfig()
	if d.ImageSrc != "" {
		headers.CSP = strings.Replace(headers.CSP, "img-src 'self' data:", "img-src 'self' data: "+d.ImageSrc, 1)
	}

	// Outermost first. The metrics middleware wraps the mux directly so it
	// sees the matched pattern.
	var h http.Handler = s.metrics.Middleware(mux)
	h = s.sessions.Middleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(d.Logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /employee/bills", s.gate(pathBills, s.handleBills))
	mux.HandleFunc("POST /employee/bills/new", s.gate(pathBills, s.handleClickNewBill))
	mux.HandleFunc("GET /employee/bills/preview", s.gate(pathBills, s.handlePreview))
	mux.HandleFunc("GET /employee/bill/new", s.gate(pathNewBill, s.handleNewBillPage))
	mux.HandleFunc("POST /employee/bill/new/file", s.gate(pathNewBill, s.handleChangeFile))
	mux.HandleFunc("POST /employee/bill/new", s.gate(pathNewBill, s.handleSubmit))
	mux.HandleFunc("GET /receipts/{id}", s.gate(pathBills, s.handleReceipt))

	mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) registerMetrics() {
	s.metrics.RegisterCounterFunc("billed_rate_limited_total", "Requests refused by the rate limiter.",
		func() float64 { return float64(s.limiter.GetMetrics().TotalHits) })
	s.metrics.RegisterCounterFunc("billed_suspicious_requests_total", "Requests flagged as probes.",
		func() float64 { return float64(s.detector.GetMetrics().SuspiciousRequests) })
	s.metrics.RegisterGaugeFunc("billed_staged_receipts", "Sessions holding a staged receipt.",
		func() float64 { return float64(s.staging.Size()) })
	s.metrics.RegisterGaugeFunc("billed_rate_limit_clients", "Clients tracked by the rate limiter.",
		func() float64 { return float64(s.limiter.ActiveClients()) })
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, veuillez réessayer plus tard.").
		TriggerErrorNotification("Trop de requêtes, veuillez réessayer plus tard.").
		Write(w)
}

// render executes a view into a buffer, then writes status and body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, view func(io.Writer) error) {
	var buf bytes.Buffer
	if err := view(&buf); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		http.Error(w, "Erreur 500", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Shutdown stops the background loops and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
