// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package observability serves Prometheus metrics and health checks on a
// listener separate from the API.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// DefaultCheckTimeout bounds a single readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Check reports whether a dependency is usable. A nil error means ready.
type Check func(ctx context.Context) error

// Metrics holds the API request collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the API request collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventra_http_requests_total",
				Help: "Total number of API requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventra_http_request_duration_seconds",
				Help:    "API request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// RecordRequest counts one finished API request.
func (m *Metrics) RecordRequest(route, method string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

type namedCheck struct {
	name  string
	check Check
}

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr         string
	logger       *slog.Logger
	checks       []namedCheck
	checkTimeout time.Duration
	version      string

	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithCheck adds a named readiness check. Readiness fails if any check fails.
func WithCheck(name string, check Check) Option {
	return func(s *Server) {
		if check != nil {
			s.checks = append(s.checks, namedCheck{name: name, check: check})
		}
	}
}

// WithCheckTimeout sets the deadline applied to each readiness check.
func WithCheckTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.checkTimeout = d
		}
	}
}

// WithVersion publishes version as the inventra_build_info gauge.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an observability server for addr ("host:port").
// Collectors go to a dedicated registry, never the global one.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		logger:       slog.Default(),
		checkTimeout: DefaultCheckTimeout,
		registry:     prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if s.version != "" {
		buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "inventra_build_info",
			Help:        "Build information of the running binary",
			ConstLabels: prometheus.Labels{"version": s.version},
		})
		buildInfo.Set(1)
		s.registry.MustRegister(buildInfo)
	}
	s.metrics = NewMetrics(s.registry)
	return s
}

// Metrics returns the API request collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() prometheus.Registerer {
	return s.registry
}

// Handler returns the health and metrics routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})).Methods(http.MethodGet)
	r.HandleFunc("/healthz/liveness", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/healthz/readiness", s.handleReadiness).Methods(http.MethodGet)
	return r
}

// Start begins serving. The returned channel receives a serve error if the
// server fails after starting and is closed when it stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("METRICS_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Debug("observability server listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down, waiting for in-flight scrapes until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown observability server").Wrap(err)
		}
	}
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeHealth(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReadiness runs every check and answers 503 if any fails. Failure
// details are logged, not returned.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK

	for _, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
		err := c.check(ctx)
		cancel()
		if err != nil {
			s.logger.WarnContext(r.Context(), "readiness check failed", "check", c.name, "error", err)
			resp.Checks[c.name] = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	writeHealth(w, status, resp)
}

// CheckNames lists the registered readiness checks in sorted order.
func (s *Server) CheckNames() []string {
	names := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}
