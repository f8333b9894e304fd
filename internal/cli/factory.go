package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	optpath "github.com/delmic/odemis-sub008"
	"github.com/delmic/odemis-sub008/internal/adapters/file"
	"github.com/delmic/odemis-sub008/internal/adapters/sim"
	"github.com/delmic/odemis-sub008/internal/adapters/sqlite"
	"github.com/delmic/odemis-sub008/internal/config"
	httpadapter "github.com/delmic/odemis-sub008/pkg/adapters/http"
	"github.com/delmic/odemis-sub008/pkg/adapters/memory"
	"github.com/delmic/odemis-sub008/pkg/adapters/modefile"
	"github.com/delmic/odemis-sub008/pkg/adapters/redis"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/observability"
	"github.com/delmic/odemis-sub008/pkg/persistence/middleware"
	"github.com/delmic/odemis-sub008/pkg/ports"
)

// App is a path manager wired with the stores and observers named by a config.
type App struct {
	Config     config.Config
	Instrument *sim.Instrument
	Manager    *optpath.Manager
	Metrics    *observability.Metrics
	Streams    *httpadapter.StreamManager
	Logger     *slog.Logger

	closers []io.Closer
}

// NewApp builds the manager described by cfg. The manager is not started.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool) (*App, error) {
	inst, err := sim.LoadInstrument(cfg.Instrument)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		Instrument: inst,
		Metrics:    observability.NewMetrics(),
		Streams:    httpadapter.NewStreamManager(logger),
		Logger:     logger,
	}

	store, locker, err := app.createStore(ctx)
	if err != nil {
		return nil, err
	}
	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if cfg.Store.Backend == config.BackendRedis {
		mws = append(mws, middleware.NewRetryMiddleware(middleware.RetryConfig{Attempts: 3, Backoff: 100 * time.Millisecond}))
	}
	store = middleware.Chain(store, mws...)

	overrides := make([]*ports.ModeOverrides, 0, len(cfg.ModeFiles))
	for _, path := range cfg.ModeFiles {
		o, err := modefile.New(path).Load(ctx)
		if err != nil {
			app.Close()
			return nil, err
		}
		overrides = append(overrides, o)
	}

	hooks := []domain.LifecycleHooks{app.Metrics.Hooks(), app.Streams.Hooks()}
	if debug {
		hooks = append(hooks, createDebugHooks(logger))
	}

	opts := []optpath.Option{
		optpath.WithLogger(logger),
		optpath.WithLifecycleHooks(observability.Chain(hooks...)),
		optpath.WithModeOverrides(overrides...),
		optpath.WithMoveTimeout(cfg.Path.MoveTimeout.Duration),
		optpath.WithQuality(domain.Quality(cfg.Path.Quality)),
		optpath.WithFanPolicy(optpath.FanPolicy{
			Poll:    cfg.Fan.Poll.Duration,
			Timeout: cfg.Fan.Timeout.Duration,
			Epsilon: cfg.Fan.Epsilon,
			Ambient: cfg.Fan.Ambient,
			Speed:   cfg.Fan.Speed,
		}),
		optpath.WithStore(store),
	}
	if locker != nil {
		opts = append(opts, optpath.WithLocker(locker))
	}
	if cfg.Name != "" {
		opts = append(opts, optpath.WithInstrumentName(cfg.Name))
	}

	mgr, err := optpath.New(inst.Components, opts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error initializing path manager: %w", err)
	}
	app.Manager = mgr
	return app, nil
}

func (a *App) createStore(ctx context.Context) (ports.StateStore, ports.DistributedLocker, error) {
	sc := a.Config.Store
	switch sc.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil
	case config.BackendFile:
		return file.New(sc.Path), nil, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, sc.Path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil, nil
	case config.BackendRedis:
		var opts []redis.Option
		if sc.TTL.Duration > 0 {
			opts = append(opts, redis.WithTTL(sc.TTL.Duration))
		}
		prefix := redis.DefaultPrefix
		if sc.Prefix != "" {
			prefix = sc.Prefix
			opts = append(opts, redis.WithPrefix(prefix))
		}
		s := redis.New(sc.RedisAddr, sc.RedisPassword, sc.RedisDB, opts...)
		a.closers = append(a.closers, s)
		if sc.Lock {
			return s, redis.NewLocker(s.Client(), prefix), nil
		}
		return s, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}

// Start restores the persisted path state and starts the path worker.
func (a *App) Start(ctx context.Context) error {
	return a.Manager.Start(ctx)
}

// Detector resolves an optional detector name of the instrument.
func (a *App) Detector(name string) (domain.Component, error) {
	if name == "" {
		return nil, nil
	}
	return a.Instrument.Lookup(name)
}

// Close stops the manager and releases the store connections.
func (a *App) Close() error {
	var errs []error
	if a.Manager != nil {
		errs = append(errs, a.Manager.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// CurrentTarget returns the name of the detector of the last applied mode, or "".
func (a *App) CurrentTarget() string {
	mode, ok := a.Manager.Table().Lookup(a.Manager.State().LastMode)
	if !ok {
		return ""
	}
	for _, c := range a.Manager.Components() {
		if domain.MatchRole(mode.DetectorPattern, c.Role()) {
			return c.Name()
		}
	}
	return ""
}
