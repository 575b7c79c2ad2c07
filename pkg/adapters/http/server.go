package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/listflow/listflow/internal/compiler"
	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/internal/runtime"
	"github.com/listflow/listflow/pkg/domain"
)

// Engine is the trigger-execution surface the server exposes.
type Engine interface {
	ExecuteTrigger(ctx context.Context, cfg *domain.Config, kind domain.TriggerKind, inv *runtime.Invocation) domain.Result
}

// Server exposes trigger execution and configuration validation over HTTP.
type Server struct {
	engine  Engine
	parser  *compiler.Parser
	logger  *slog.Logger
	metrics *metrics
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server around the given engine.
func NewServer(engine Engine, opts ...ServerOption) *Server {
	s := &Server{
		engine:  engine,
		logger:  logging.NewNop(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = compiler.NewParser(compiler.WithLogger(s.logger))
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Post("/v1/configs/validate", s.handleValidate)
	r.Post("/v1/triggers/{kind}", s.handleTrigger)
	return r
}

type triggerRequest struct {
	Config    string         `json:"config"`
	SourceTag string         `json:"sourceTag"`
	DocPath   string         `json:"docPath"`
	Line      string         `json:"line"`
	Selection string         `json:"selection"`
	Vars      map[string]any `json:"vars"`
}

type triggerResponse struct {
	Success bool   `json:"success"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !domain.KnownTriggerKind(kind) {
		writeError(w, http.StatusBadRequest, "unknown trigger kind "+kind)
		return
	}

	var body triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.parser.ParseConfigText(body.Config, body.SourceTag)
	if err != nil {
		s.logger.Warn("trigger request with bad config", "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	start := time.Now()
	res := s.engine.ExecuteTrigger(r.Context(), cfg, domain.TriggerKind(kind), &runtime.Invocation{
		DocPath:   body.DocPath,
		Line:      body.Line,
		Selection: body.Selection,
		Vars:      body.Vars,
	})
	s.metrics.observe(kind, res.Success, time.Since(start))

	resp := triggerResponse{Success: res.Success, Value: res.Value}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Config    string `json:"config"`
	SourceTag string `json:"sourceTag"`
}

type validateResponse struct {
	Valid    bool     `json:"valid"`
	Triggers []string `json:"triggers,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.parser.ParseConfigText(body.Config, body.SourceTag)
	if err != nil {
		writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: err.Error()})
		return
	}

	kinds := make([]string, 0, len(cfg.Triggers))
	for _, trig := range cfg.Triggers {
		kinds = append(kinds, string(trig.Kind))
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Triggers: kinds})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// metrics owns a private registry so multiple servers (and tests) never
// collide on registration.
type metrics struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listflow",
			Name:      "triggers_total",
			Help:      "Trigger executions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "listflow",
			Name:      "trigger_duration_seconds",
			Help:      "Trigger execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.total, m.duration)
	return m
}

func (m *metrics) observe(kind string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.total.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
