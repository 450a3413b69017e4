// Package adminhttp exposes the operator-facing HTTP surface — /healthz
// and /metrics — on a separate listener from the RESP port, so monitoring
// traffic never shares a socket with client commands (§6 enrichment).
package adminhttp

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cc-kvstore/kvstored/internal/keyspace"
)

// Server is the admin HTTP listener. It is entirely optional: the caller
// simply does not construct one when the admin address is empty.
type Server struct {
	httpServer *http.Server
}

// New builds a Server bound to addr. store is read (never written) to
// report dbsize as a gauge on /metrics.
func New(addr string, store *keyspace.Store, startedAt time.Time) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "kvstored",
			Name:      "keyspace_keys",
			Help:      "Number of entries currently in the keyspace, including not-yet-reaped expired keys.",
		},
		func() float64 { return float64(store.DBSize()) },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "kvstored",
			Name:      "uptime_seconds",
			Help:      "Seconds since the server started.",
		},
		func() float64 { return time.Since(startedAt).Seconds() },
	))

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	logged := handlers.CombinedLoggingHandler(os.Stderr, router)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           logged,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// ListenAndServe blocks serving the admin surface until Shutdown is called
// or a fatal listener error occurs. http.ErrServerClosed is not an error.
func (s *Server) ListenAndServe() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the admin listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
