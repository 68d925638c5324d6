package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logger"
	"github.com/idilsaglam/tada/internal/metrics"
	"github.com/idilsaglam/tada/internal/state"
	"github.com/idilsaglam/tada/internal/storage"
	"github.com/idilsaglam/tada/internal/ui"
)

const closeTimeout = 5 * time.Second

// session is everything one command needs, already rehydrated.
type session struct {
	cfg       config.Config
	logger    *slog.Logger
	adapter   storage.Adapter
	metrics   *metrics.Metrics
	store     *state.Store
	persistor *state.Persistor

	stopMetrics context.CancelFunc
	metricsDone chan error
}

// openSession loads config and builds the persisted store. Config errors are
// usage errors; storage errors are runtime errors.
func openSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, usageError(c, err.Error())
	}
	if theme := c.String("theme"); theme != "" {
		if !slices.Contains(ui.Themes, theme) {
			return nil, usageError(c, fmt.Sprintf("unknown theme %q", theme), "themes: classic, neon, mono")
		}
		cfg.UI.Theme = theme
	}
	ui.SetTheme(cfg.UI.Theme)

	lc := cfg.LoggerConfig()
	lc.Output = c.App.ErrWriter
	log, err := logger.New(lc)
	if err != nil {
		return nil, usageError(c, err.Error())
	}

	adapter, err := storage.Open(cfg.StorageAdapterConfig(), log)
	if err != nil {
		return nil, runtimeError(c, "open storage: "+err.Error())
	}

	m := metrics.New()
	store, persistor := state.Configure(state.Options{
		Adapter:   adapter,
		Namespace: cfg.Storage.Namespace,
		Throttle:  cfg.Persist.Throttle,
		Logger:    log,
		Middleware: []state.Middleware{
			state.LoggingMiddleware(log),
			m.Middleware(),
		},
		OnPersist: m.ObservePersist,
	})

	s := &session{
		cfg:       cfg,
		logger:    log,
		adapter:   adapter,
		metrics:   m,
		store:     store,
		persistor: persistor,
	}
	if cfg.Metrics.Addr != "" {
		ctx, cancel := context.WithCancel(c.Context)
		s.stopMetrics = cancel
		s.metricsDone = make(chan error, 1)
		go func() { s.metricsDone <- m.Serve(ctx, cfg.Metrics.Addr, log) }()
	}

	persistor.Rehydrate(c.Context)
	return s, nil
}

// load re-reads the stored list into the store.
func (s *session) load() state.Thunk {
	return state.LoadTodos(s.adapter, s.cfg.Storage.Namespace, s.logger)
}

// close flushes pending writes and releases storage.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := s.persistor.Close(ctx)
	if s.stopMetrics != nil {
		s.stopMetrics()
		if merr := <-s.metricsDone; merr != nil {
			s.logger.Warn("metrics server stopped", "error", merr)
		}
	}
	return errors.Join(err, s.adapter.Close())
}

// withSession runs fn inside an open session and reports close failures.
func withSession(c *cli.Context, fn func(*session) error) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.close(); err != nil && runErr == nil {
		return runtimeError(c, "save: "+err.Error())
	}
	return runErr
}
