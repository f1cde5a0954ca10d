// Package debug serves process health, readiness, metrics and pprof for
// long-running zapnotify commands.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ready atomic.Bool

	readyCheckMu sync.RWMutex
	readyCheck   func() bool

	// Global registry for zapnotify metrics
	registry = prometheus.NewRegistry()
)

func SetReady() {
	ready.Store(true)
}

func SetNotReady() {
	ready.Store(false)
}

// SetReadyCheck registers an extra readiness condition. IsReady returns true
// only after SetReady and while check returns true. A nil check removes it.
func SetReadyCheck(check func() bool) {
	readyCheckMu.Lock()
	defer readyCheckMu.Unlock()
	readyCheck = check
}

func IsReady() bool {
	if !ready.Load() {
		return false
	}

	readyCheckMu.RLock()
	check := readyCheck
	readyCheckMu.RUnlock()

	return check == nil || check()
}

// Registry returns the Prometheus registry for registering custom metrics.
// Metrics registered here are exported on /metrics alongside the Go runtime
// collectors.
func Registry() prometheus.Registerer {
	return registry
}

// Handler returns a mux with /metrics, /health, /ready and /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()

	gatherers := prometheus.Gatherers{
		prometheus.DefaultGatherer,
		registry,
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	return mux
}

// Server is a running debug HTTP server.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and serves Handler in the background.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug listen %s: %w", addr, err)
	}

	s := &Server{
		srv: &http.Server{
			Handler:           Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln: ln,
	}

	go func() {
		logger.Info().Str("debug_addr", ln.Addr().String()).Msg("Starting debug server")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("debug server failed")
		}
	}()
	return s, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
