// Package stubapi is a local development server for the Lead Watcher API.
// It stores ICP profiles, leads, LinkedIn accounts and competitors in
// SQLite and simulates the asynchronous parts of the real service: account
// connection, TOTP codes, manual-login sessions and competitor inference.
package stubapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Prefix is the path the Lead Watcher routes are mounted under.
const Prefix = "/api/lead-watcher"

// Options configures the simulated behavior of the server.
type Options struct {
	// ConnectAfter is the number of status polls a connecting account
	// needs before it reports connected. Default 2.
	ConnectAfter int

	// ManualSessionTTL bounds a manual-login session. Default 10m.
	ManualSessionTTL time.Duration

	// AllowedOrigins for CORS. Default http://localhost:5173.
	AllowedOrigins []string

	// Token, when set, is required as a bearer token on API routes.
	Token string

	// Now overrides the clock for TOTP codes and warmup progress.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ConnectAfter <= 0 {
		o.ConnectAfter = 2
	}
	if o.ManualSessionTTL <= 0 {
		o.ManualSessionTTL = 10 * time.Minute
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Server serves the stub API.
type Server struct {
	store *Store
	opts  Options
}

// NewServer creates a server over a migrated store.
func NewServer(store *Store, opts Options) *Server {
	return &Server{store: store, opts: opts.withDefaults()}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(Prefix, func(r chi.Router) {
		if s.opts.Token != "" {
			r.Use(s.requireToken)
		}

		r.Route("/icp-profiles", func(r chi.Router) {
			r.Get("/", s.listProfiles)
			r.Post("/", s.createProfile)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getProfile)
				r.Put("/", s.updateProfile)
				r.Delete("/", s.deleteProfile)
				r.Patch("/active", s.setProfileActive)
				r.Post("/duplicate", s.duplicateProfile)
				r.Get("/competitors", s.listCompetitors)
				r.Post("/competitors", s.createCompetitor)
				r.Post("/competitors/approve-all", s.approveAllCompetitors)
				r.Post("/competitors/reject-all", s.rejectAllCompetitors)
				r.Post("/competitors/infer", s.inferCompetitors)
			})
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.listLeads)
			r.Get("/export", s.exportLeads)
			r.Post("/bulk-status", s.bulkLeadStatus)
			r.Get("/{id}", s.getLead)
			r.Patch("/{id}/status", s.updateLeadStatus)
			r.Post("/{id}/enrich-email", s.enrichLeadEmail)
		})

		r.Route("/linkedin-accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.createAccount)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getAccount)
				r.Put("/", s.updateAccount)
				r.Delete("/", s.deleteAccount)
				r.Post("/connect", s.connectAccount)
				r.Post("/disconnect", s.disconnectAccount)
				r.Put("/totp", s.storeTOTPSecret)
				r.Get("/totp/code", s.totpCode)
				r.Post("/manual-connect", s.startManualConnect)
				r.Post("/manual-connect/confirm", s.confirmManualConnect)
				r.Get("/rate-limits", s.rateLimits)
				r.Post("/rate-limits/reset", s.resetRateLimits)
				r.Get("/warmup", s.warmupProgress)
				r.Post("/warmup", s.startWarmup)
			})
		})

		r.Route("/competitors/{id}", func(r chi.Router) {
			r.Put("/", s.updateCompetitor)
			r.Delete("/", s.deleteCompetitor)
			r.Post("/approve", s.approveCompetitor)
			r.Post("/reject", s.rejectCompetitor)
			r.Post("/link", s.linkCompetitor)
		})

		r.Get("/competitor-inference-jobs/{id}", s.getInferenceJob)
	})

	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
			respondError(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request through zap with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("stubapi: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{"data": data})
}

// respondStoreError maps store errors to HTTP statuses.
func respondStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if eris.Is(err, ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found.")
		return
	}
	zap.L().Error("stubapi: store error",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "Something went wrong.")
}

// decode reads a JSON body. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return eris.Wrap(err, "stubapi: decode body")
	}
	return nil
}

// Pagination limits.
const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// listParams reads page, per_page, sort, direction and the named filters
// from the query string.
func listParams(r *http.Request, filters ...string) ListParams {
	q := r.URL.Query()
	p := ListParams{
		Page:      atoiDefault(q.Get("page"), 1),
		PerPage:   atoiDefault(q.Get("per_page"), defaultPerPage),
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
		Filters:   make(map[string]string),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	for _, f := range filters {
		if v := strings.TrimSpace(q.Get(f)); v != "" {
			p.Filters[f] = v
		}
	}
	return p
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// pageMeta is the pagination block of a list response.
type pageMeta struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	From        *int `json:"from"`
	To          *int `json:"to"`
}

func newPageMeta(p ListParams, total, count int) pageMeta {
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	m := pageMeta{CurrentPage: p.Page, LastPage: last, PerPage: p.PerPage, Total: total}
	if count > 0 {
		from := p.offset() + 1
		to := p.offset() + count
		m.From, m.To = &from, &to
	}
	return m
}

func respondPage(w http.ResponseWriter, data any, meta pageMeta) {
	respondJSON(w, http.StatusOK, map[string]any{"data": data, "meta": meta})
}
