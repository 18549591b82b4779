package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/dshills/sowaudit/internal/catalog"
	"github.com/dshills/sowaudit/internal/config"
	"github.com/dshills/sowaudit/internal/logging"
	"github.com/dshills/sowaudit/internal/metrics"
	"github.com/dshills/sowaudit/internal/store"
)

// env is what every command needs after flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *log.Logger
	metrics *metrics.Metrics
	closers []func() error
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("shutdown", "err", err)
		}
	}
}

// setup loads configuration, configures logging and starts the metrics
// endpoint when requested.
func setup(ctx context.Context, g *globalFlags) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, withCode(exitCodeBadInput, err)
	}
	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger := logging.New(level)
	logging.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger}
	addr := g.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr == "" {
		return e, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	e.metrics = metrics.New(reg)
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	e.closers = append(e.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return e, nil
}

// openSlot connects the configured override store. The none store yields a
// nil slot.
func (e *env) openSlot(ctx context.Context) (store.Slot, error) {
	c := e.cfg.Catalog
	switch c.Store {
	case config.StoreNone:
		return nil, nil
	case config.StoreFile:
		return store.NewFile(c.Path), nil
	case config.StoreRedis:
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("catalog: redis url: %w", err)
		}
		client := redis.NewClient(opts)
		e.closers = append(e.closers, client.Close)
		return store.NewRedis(client, c.RedisKey), nil
	case config.StorePostgres:
		pg, err := store.OpenPostgres(ctx, c.DatabaseURL, c.Slot)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, pg.Close)
		return pg, nil
	default:
		return nil, fmt.Errorf("catalog: unknown store %q", c.Store)
	}
}

// catalog returns the catalog over the configured store. When strict is
// false an unreachable store degrades to the defaults; when true editing
// requires a real store.
func (e *env) catalog(ctx context.Context, strict bool) (*catalog.Catalog, error) {
	if strict && e.cfg.Catalog.Store == config.StoreNone {
		return nil, withCode(exitCodeBadInput, errors.New(`catalog store is "none"; configure file, redis or postgres to edit checks`))
	}
	slot, err := e.openSlot(ctx)
	if err != nil {
		if strict {
			return nil, err
		}
		e.logger.Warn("check override store unavailable, using defaults", "store", e.cfg.Catalog.Store, "err", err)
		slot = nil
	}
	return catalog.New(slot, catalog.Defaults(), e.logger), nil
}
