// Package web serves the listing form as a server-rendered page and a
// small JSON API over the same listing.Service.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-generator/internal/common/logger"
	"listing-generator/internal/common/metrics"
	"listing-generator/internal/listing"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const DefaultCookieName = "listing_session"

type Options struct {
	CookieName    string
	SecureCookies bool
	// RefreshInterval is how often a pending page reloads itself.
	RefreshInterval time.Duration
	// Ready backs /ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	svc    *listing.Service
	logger logger.Logger
	opts   Options
	tmpl   *template.Template
	policy *bluemonday.Policy
	mux    *http.ServeMux
}

func NewServer(svc *listing.Service, log logger.Logger, opts Options) (*Server, error) {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		svc:    svc,
		logger: log,
		opts:   opts,
		tmpl:   tmpl,
		policy: bluemonday.StrictPolicy(),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /{$}", "index", s.handleIndex)
	s.handle("POST /generate", "generate", s.handleGenerateForm)
	s.handle("POST /api/fields", "api_fields", s.handleFieldChange)
	s.handle("POST /api/generate", "api_generate", s.handleGenerateAPI)
	s.handle("GET /api/state", "api_state", s.handleState)
	s.handle("GET /health", "health", s.handleHealth)
	s.handle("GET /ready", "ready", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(route, h))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("HTTP request served", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

// sessionID returns the caller's session id, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sanitize treats generated copy as untrusted text.
func (s *Server) sanitize(r listing.ListingResult) listing.ListingResult {
	return listing.ListingResult{
		Title:              s.policy.Sanitize(r.Title),
		MainDescription:    s.policy.Sanitize(r.MainDescription),
		PropertyHighlights: s.policy.Sanitize(r.PropertyHighlights),
		AdditionalFeatures: s.policy.Sanitize(r.AdditionalFeatures),
		LocationAdvantages: s.policy.Sanitize(r.LocationAdvantages),
		Conclusion:         s.policy.Sanitize(r.Conclusion),
	}
}
