package metrics

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var indexPage = template.Must(template.New("index").Parse(
	`<html><body><h1>{{.}} metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`))

// Server exposes a Prometheus gatherer on a port of its own so scrapes never
// pass through the API middleware chain.
type Server struct {
	service string
	http    *http.Server
}

// NewServer builds a metrics listener for service on port. A nil gatherer
// means the default registry, which is where New registers.
func NewServer(service string, port int, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{service: service}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	}))
	mux.HandleFunc("GET /{$}", s.index)
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler is the scrape mux, exposed for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start listens in the background. Listener failures are logged; the
// service keeps running without metrics.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "service", s.service, "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "service", s.service, "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(w, s.service)
}
