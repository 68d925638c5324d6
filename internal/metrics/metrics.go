// Package metrics exposes Prometheus counters for the todo store.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

const namespace = "tada"

// Metrics holds the collectors registered for one store.
type Metrics struct {
	registry *prometheus.Registry

	actions       *prometheus.CounterVec
	persistWrites *prometheus.CounterVec
	todos         *prometheus.GaugeVec
	loading       prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions dispatched to the store, by kind.",
		}, []string{"action"}),
		persistWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Persistence writes, by result.",
		}, []string{"result"}),
		todos: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "todos",
			Help:      "Todos in the store, by status.",
		}, []string{"status"}),
		loading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loading",
			Help:      "1 while a load is in flight.",
		}),
	}
	reg.MustRegister(m.actions, m.persistWrites, m.todos, m.loading)
	return m
}

// Registry is the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware counts actions and updates the state gauges after each one.
func (m *Metrics) Middleware() state.Middleware {
	return func(getState func() model.AppState, next state.Dispatch) state.Dispatch {
		return func(a state.Action) {
			next(a)
			m.actions.WithLabelValues(state.Kind(a)).Inc()

			st := getState()
			done, pending := state.CountTodos(st)
			m.todos.WithLabelValues("completed").Set(float64(done))
			m.todos.WithLabelValues("incomplete").Set(float64(pending))
			if state.GetTodosLoading(st) {
				m.loading.Set(1)
			} else {
				m.loading.Set(0)
			}
		}
	}
}

// ObservePersist records one persistence write. It fits state.Options.OnPersist.
func (m *Metrics) ObservePersist(err error) {
	if err != nil {
		m.persistWrites.WithLabelValues("error").Inc()
		return
	}
	m.persistWrites.WithLabelValues("ok").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("metrics listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
