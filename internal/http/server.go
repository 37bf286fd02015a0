package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"recorridos/internal/backend"
	"recorridos/internal/cache"
	"recorridos/internal/calendar"
	"recorridos/internal/log"
	"recorridos/internal/middleware/ratelimit"
	"recorridos/internal/middleware/security"
	"recorridos/internal/middleware/trace"
	"recorridos/internal/session"
	appweb "recorridos/web"
)

// fetchTimeout bounds backend reads done while rendering a page.
const fetchTimeout = 7 * time.Second

type Server struct {
	http.Server
	backend   backend.Backend
	sessions  *session.Store
	templates *template.Template
	clock     calendar.Clock
	logger    *log.Logger
	memo      *calendar.Memo

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	caches   *cache.Manager

	rateLimit      ratelimit.Config
	extraCaches    map[string]cache.Cleaner
	cleanupPeriod  time.Duration
	trustedProxies []string

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithClock sets the clock used for the default month and the today marker.
func WithClock(c calendar.Clock) Option {
	return func(s *Server) { s.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit replaces the default write rate limit.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateLimit = cfg }
}

// WithCaches registers backend owned caches for periodic cleanup and the
// metrics page.
func WithCaches(caches map[string]cache.Cleaner) Option {
	return func(s *Server) {
		for name, c := range caches {
			s.extraCaches[name] = c
		}
	}
}

// WithTrustedProxies adds proxy networks, in CIDR form, whose
// X-Forwarded-For header is believed.
func WithTrustedProxies(cidrs ...string) Option {
	return func(s *Server) { s.trustedProxies = append(s.trustedProxies, cidrs...) }
}

// WithCleanupInterval sets how often expired cache entries are swept.
// Zero disables the background sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Server) { s.cleanupPeriod = d }
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, b backend.Backend, sessions *session.Store, opts ...Option) (*Server, error) {
	if b == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	s := &Server{
		backend:       b,
		sessions:      sessions,
		clock:         calendar.SystemClock{},
		logger:        log.New(log.DefaultConfig()),
		memo:          calendar.NewMemo(32, 10*time.Minute),
		detector:      security.NewDetector(),
		rateLimit:     ratelimit.DefaultConfig(),
		extraCaches:   map[string]cache.Cleaner{},
		cleanupPeriod: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	for _, cidr := range s.trustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	s.limiter = ratelimit.NewLimiter(s.rateLimit)
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	s.caches = cache.NewManager(s.logger.Logger)
	s.caches.Register("sessions", sessions.Cache())
	s.caches.Register("calendar_memo", s.memo.Cache())
	for name, c := range s.extraCaches {
		s.caches.Register(name, c)
	}
	if s.cleanupPeriod > 0 {
		s.caches.StartCleanup(s.cleanupPeriod)
		s.limiter.StartCleanup(s.cleanupPeriod)
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticCache(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("POST /logout", s.requireAuth(http.HandlerFunc(s.handleLogout)))

	auth := func(h http.HandlerFunc) http.Handler { return s.requireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return s.requireAuth(s.requireAdmin(h)) }

	mux.Handle("GET /{$}", auth(s.handleDashboard))
	mux.Handle("GET /ui/calendar", auth(s.handleCalendar))
	mux.Handle("GET /ui/calendar/day", auth(s.handleCalendarDay))

	mux.Handle("GET /ninos", auth(s.handleNinos))
	mux.Handle("POST /ninos", auth(s.handleCreateNino))
	mux.Handle("GET /ninos/{id}/edit", auth(s.handleEditNino))
	mux.Handle("POST /ninos/{id}", auth(s.handleUpdateNino))
	mux.Handle("DELETE /ninos/{id}", auth(s.handleDeleteNino))

	mux.Handle("GET /vehiculos", auth(s.handleVehiculos))
	mux.Handle("POST /vehiculos", auth(s.handleCreateVehiculo))
	mux.Handle("GET /vehiculos/{id}/edit", auth(s.handleEditVehiculo))
	mux.Handle("POST /vehiculos/{id}", auth(s.handleUpdateVehiculo))
	mux.Handle("DELETE /vehiculos/{id}", auth(s.handleDeleteVehiculo))

	mux.Handle("GET /recorridos", auth(s.handleRecorridos))
	mux.Handle("POST /recorridos", auth(s.handleCreateRecorrido))
	mux.Handle("GET /recorridos/export.xlsx", auth(s.handleExport))
	mux.Handle("GET /recorridos/{id}/edit", auth(s.handleEditRecorrido))
	mux.Handle("POST /recorridos/{id}", auth(s.handleUpdateRecorrido))
	mux.Handle("DELETE /recorridos/{id}", auth(s.handleDeleteRecorrido))

	mux.Handle("GET /usuarios", admin(s.handleUsuarios))
	mux.Handle("POST /usuarios", admin(s.handleCreateUsuario))
	mux.Handle("GET /usuarios/{id}/edit", admin(s.handleEditUsuario))
	mux.Handle("POST /usuarios/{id}", admin(s.handleUpdateUsuario))
	mux.Handle("DELETE /usuarios/{id}", admin(s.handleDeleteUsuario))
	return nil
}

// middleware wraps h, outermost first: security headers, suspicious request
// detection, tracing, request logger, write rate limit.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = log.Middleware(s.logger, trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	return h
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes, intente más tarde.").
		Header("HX-Retarget", "#flash").
		Header("HX-Reswap", "innerHTML").
		Write(w)
}

// Shutdown stops the background sweeps and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
