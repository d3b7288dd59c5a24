package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports a JSON-encodable status and whether the service is up.
type HealthFunc func(ctx context.Context) (any, bool)

// Server exposes /health and, when metrics are enabled, /metrics.
type Server struct {
	addr    string
	health  HealthFunc
	metrics bool
	server  *http.Server
}

func NewServer(addr string, health HealthFunc, metrics bool) *Server {
	return &Server{addr: addr, health: health, metrics: metrics}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.health == nil {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "up"})
			return
		}
		status, up := s.health(r.Context())
		if !up {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
