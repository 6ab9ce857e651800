package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carpark-gate/internal/gate"
	"carpark-gate/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(port, serviceName string, processor *gate.InstrumentedProcessor) *Server {
	handler := NewHandler(processor, serviceName)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(newRegistry(processor), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/gate", func(r chi.Router) {
		r.Post("/arrivals", handler.Arrival)
		r.Post("/departures", handler.Departure)
		r.Post("/requests", handler.RequestEntry)
		r.Get("/status", handler.GetStatus)
		r.Get("/transitions", handler.GetTransitions)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

// newRegistry exposes the gate state to Prometheus scrapes next to the
// Go runtime collectors. Transitions are counted from the processor's
// journal feed.
func newRegistry(processor *gate.InstrumentedProcessor) *prometheus.Registry {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpark",
		Name:      "transitions_total",
		Help:      "Gate transitions emitted, by kind.",
	}, []string{"kind"})
	processor.Subscribe(func(rec gate.Record) {
		transitions.WithLabelValues(rec.Transition.Kind.String()).Inc()
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "carpark",
			Name:      "spaces_used",
			Help:      "Current number of occupied spaces.",
		}, func() float64 { return float64(processor.Snapshot().SpacesUsed) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "carpark",
			Name:      "capacity",
			Help:      "Configured car park capacity.",
		}, func() float64 { return float64(processor.Capacity()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "carpark",
			Name:      "queue_depth",
			Help:      "Number of cars waiting at the gates.",
		}, func() float64 { return float64(len(processor.Snapshot().Waiting)) }),
	)
	return reg
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Logger().Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logger().Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
