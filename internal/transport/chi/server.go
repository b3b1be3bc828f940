package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crawlscope/internal/domain"
	domsummary "github.com/kailas-cloud/crawlscope/internal/domain/summary"
	healthuc "github.com/kailas-cloud/crawlscope/internal/usecase/health"
)

// SessionHeader carries the session id on session-scoped routes.
const SessionHeader = "X-Session-ID"

const maxBatchSize = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the exploration session API.
type Server struct {
	sessions      Orchestrator
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sessions Orchestrator, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorCodeSessionNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTag, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNoActiveDataset, http.StatusConflict, ErrorCodeNoActiveDataset),
		sentinelHandler(domain.ErrGatewayFailure, http.StatusBadGateway, ErrorCodeGatewayFailure),
	}
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/datasets", s.ListDatasets)
	r.Post("/sessions", s.OpenSession)

	r.Group(func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/sessions/current", s.GetSession)
		r.Put("/session/dataset", s.SetDataset)
		r.Put("/session/filter", s.SetFilter)
		r.Delete("/session/filter", s.ClearFilter)
		r.Put("/session/page-cap", s.SetPageCap)

		r.Get("/pages", s.ListPages)
		r.Post("/pages/tags", s.TagPages)
		r.Post("/pages/boost", s.BoostPages)

		r.Get("/terms", s.ListTopTerms)
		r.Post("/terms/tags", s.TagTerms)
		r.Get("/terms/{term}/context", s.GetTermContext)

		r.Get("/summary/pages", s.PageSummary)
		r.Get("/summary/crawl", s.CrawlSummary)
	})
}

// OpenSession handles POST /sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Open(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set(SessionHeader, st.ID())
	writeJSON(w, http.StatusCreated, sessionToResponse(st))
}

// GetSession handles GET /sessions/current.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(st))
}

// ListDatasets handles GET /datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, r *http.Request) {
	ds, err := s.sessions.ListDatasets(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]DatasetResponse, len(ds))
	for i, d := range ds {
		items[i] = datasetToResponse(d)
	}
	writeJSON(w, http.StatusOK, DatasetListResponse{Items: items})
}

// SetDataset handles PUT /session/dataset.
func (s *Server) SetDataset(w http.ResponseWriter, r *http.Request) {
	var req SetDatasetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Dataset == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "dataset is required")
		return
	}
	st, err := s.sessions.SwitchActiveDataset(r.Context(), sessionID(r.Context()), req.Dataset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(st))
}

// SetFilter handles PUT /session/filter. An empty filter keeps the current one.
func (s *Server) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req SetFilterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.sessions.ApplyFilter(r.Context(), sessionID(r.Context()), req.Filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(st))
}

// ClearFilter handles DELETE /session/filter.
func (s *Server) ClearFilter(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.ClearFilter(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(st))
}

// SetPageCap handles PUT /session/page-cap.
func (s *Server) SetPageCap(w http.ResponseWriter, r *http.Request) {
	var req SetPageCapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.sessions.SetPageCountCap(r.Context(), sessionID(r.Context()), req.PageCountCap)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(st))
}

// ListPages handles GET /pages.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	listing, err := s.sessions.ListPages(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToResponse(listing))
}

// TagPages handles POST /pages/tags.
func (s *Server) TagPages(w http.ResponseWriter, r *http.Request) {
	var req TagPagesRequest
	if !decodeBody(w, r, &req) || !checkBatch(w, "urls", len(req.URLs)) {
		return
	}
	plan, err := s.sessions.TagPages(r.Context(), sessionID(r.Context()), req.URLs, req.Tag, req.Add)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planToResponse(plan))
}

// BoostPages handles POST /pages/boost.
func (s *Server) BoostPages(w http.ResponseWriter, r *http.Request) {
	var req BoostPagesRequest
	if !decodeBody(w, r, &req) || !checkBatch(w, "urls", len(req.URLs)) {
		return
	}
	n, err := s.sessions.BoostPages(r.Context(), sessionID(r.Context()), req.URLs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoostResponse{Boosted: n})
}

// ListTopTerms handles GET /terms.
func (s *Server) ListTopTerms(w http.ResponseWriter, r *http.Request) {
	var maxTerms *int
	if err := runtime.BindQueryParameter("form", true, false, "max_terms", r.URL.Query(), &maxTerms); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid max_terms: "+err.Error())
		return
	}
	n := 0
	if maxTerms != nil {
		if *maxTerms <= 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "max_terms must be positive")
			return
		}
		n = *maxTerms
	}

	terms, err := s.sessions.ListTopTerms(r.Context(), sessionID(r.Context()), n)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, termsToResponse(terms))
}

// TagTerms handles POST /terms/tags.
func (s *Server) TagTerms(w http.ResponseWriter, r *http.Request) {
	var req TagTermsRequest
	if !decodeBody(w, r, &req) || !checkBatch(w, "terms", len(req.Terms)) {
		return
	}
	plan, err := s.sessions.TagTerms(r.Context(), sessionID(r.Context()), req.Terms, req.Tag, req.Add)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planToResponse(plan))
}

// GetTermContext handles GET /terms/{term}/context.
func (s *Server) GetTermContext(w http.ResponseWriter, r *http.Request) {
	var word string
	err := runtime.BindStyledParameterWithOptions("simple", "term", chi.URLParam(r, "term"), &word,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid term: "+err.Error())
		return
	}

	tc, err := s.sessions.GetTermContext(r.Context(), sessionID(r.Context()), word)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	snippets := tc.Snippets
	if snippets == nil {
		snippets = map[string]string{}
	}
	writeJSON(w, http.StatusOK, TermContextResponse{Term: tc.Term, Tags: labels(tc.Tags), Snippets: snippets})
}

// PageSummary handles GET /summary/pages.
func (s *Server) PageSummary(w http.ResponseWriter, r *http.Request) {
	win, apply, ok := bindSummaryParams(w, r)
	if !ok {
		return
	}
	c, err := s.sessions.PageSummary(r.Context(), sessionID(r.Context()), win, apply)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageSummaryResponse{Relevant: c.Relevant, Irrelevant: c.Irrelevant, Neutral: c.Neutral})
}

// CrawlSummary handles GET /summary/crawl.
func (s *Server) CrawlSummary(w http.ResponseWriter, r *http.Request) {
	win, apply, ok := bindSummaryParams(w, r)
	if !ok {
		return
	}
	c, err := s.sessions.CrawlSummary(r.Context(), sessionID(r.Context()), win, apply)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CrawlSummaryResponse{
		Positive: phaseCountsToResponse(c.Positive),
		Negative: phaseCountsToResponse(c.Negative),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves listings from storage.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindSummaryParams reads from, to (RFC 3339) and apply_filter.
func bindSummaryParams(w http.ResponseWriter, r *http.Request) (domsummary.Window, bool, bool) {
	var (
		from, to *time.Time
		apply    *bool
	)
	q := r.URL.Query()
	for name, dest := range map[string]any{"from": &from, "to": &to, "apply_filter": &apply} {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid %s: %v", name, err))
			return domsummary.Window{}, false, false
		}
	}

	var win domsummary.Window
	if from != nil {
		win.From = *from
	}
	if to != nil {
		win.To = *to
	}
	if !win.From.IsZero() && !win.To.IsZero() && win.To.Before(win.From) {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "to must not be before from")
		return domsummary.Window{}, false, false
	}
	return win, apply != nil && *apply, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func checkBatch(w http.ResponseWriter, field string, n int) bool {
	if n == 0 || n > maxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("%s count must be between 1 and %d", field, maxBatchSize))
		return false
	}
	return true
}

type sessionKey struct{}

// requireSession rejects requests without a session header and stores the id
// in the request context.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "missing "+SessionHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidConfig,
		domain.ErrInvalidFilter,
		domain.ErrInvalidTag,
		domain.ErrNoActiveDataset,
		domain.ErrGatewayFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
