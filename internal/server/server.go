package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claude/planform/internal/controller"
	"github.com/claude/planform/internal/render"
	"github.com/claude/planform/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Options configures a Server.
type Options struct {
	Title      string
	Mode       controller.Mode
	SessionTTL time.Duration
	// History is optional; nil disables plan history.
	History storage.Store
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	src      controller.Source
	opts     Options
	render   *render.Renderer
	sessions *Sessions
	history  storage.Store
	identity func(http.Handler) http.Handler
	log      *slog.Logger
	router   chi.Router

	// pending tracks async history writes so Close can wait for them.
	pending sync.WaitGroup
}

// New creates a new Server with all routes configured.
func New(src controller.Source, opts Options, log *slog.Logger) (*Server, error) {
	r, err := render.New()
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = render.DefaultTitle
	}
	if opts.Mode == "" {
		opts.Mode = controller.ModeDerived
	}

	s := &Server{
		src:      src,
		opts:     opts,
		render:   r,
		history:  opts.History,
		identity: DevIdentity,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.sessions = NewSessions(opts.SessionTTL, func() *controller.Controller {
		return controller.New(src, opts.Mode, log.With("component", "controller"))
	}, log.With("component", "sessions"))
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the session janitor and waits for pending history writes.
func (s *Server) Close() {
	s.sessions.Close()
	s.pending.Wait()
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.identify)

	// Form pages and fragments are bound to a session controller.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Get("/", s.handleIndex)
		r.Get("/fragments/subcategory", s.handleSubcategoryFragment)
		r.Get("/fragments/plan", s.handlePlanFragment)
	})

	// JSON API for scripts; no session state.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(CORS)
		r.Get("/options", s.handleOptions)
		r.Get("/plan", s.handlePlan)
		r.Get("/history", s.handleHistory)
		r.Get("/me", s.handleMe)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
}

// SetStatic mounts the embedded stylesheet and script under /static/.
func (s *Server) SetStatic(staticFS fs.FS) {
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
}

// SetTailscale switches request identity to Tailscale WhoIs lookups.
func (s *Server) SetTailscale(wc WhoIsClient) {
	s.identity = TailscaleIdentity(wc, s.log)
}

func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.identity(next).ServeHTTP(w, r)
	})
}
