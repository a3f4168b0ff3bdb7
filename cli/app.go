// Application wiring for CLI commands.
//
// Information Hiding:
// - Provider, fetch, discovery and tool catalog construction hidden
// - Storage backend selection hidden
// - Metrics endpoint lifecycle hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/richinex/drwin/agent"
	"github.com/richinex/drwin/config"
	"github.com/richinex/drwin/fetch"
	"github.com/richinex/drwin/funding"
	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/metrics"
	"github.com/richinex/drwin/storage"
	"github.com/richinex/drwin/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider    string
	DBPath      string // overrides DRWIN_DB when set
	MetricsAddr string
	Language    string
	Verbose     bool
}

// App bundles the collaborators a command needs.
type App struct {
	Settings config.Settings
	Agent    *agent.Agent
	Registry *tools.Registry
	Store    storage.ConversationStorage
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	// MetricsAddr is the bound metrics address, empty when not serving.
	MetricsAddr string

	closers []func() error
}

// NewApp builds the application from settings.
func NewApp(settings config.Settings, gateway llm.Gateway, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Language != "" {
		settings.Agent.Language = opts.Language
	}
	if opts.DBPath != "" {
		settings.Store.Path = opts.DBPath
	}

	app := &App{Settings: settings, Logger: logger, Metrics: metrics.NewRecorder()}

	if client, ok := gateway.(*llm.Client); ok && client != nil {
		client.WithLogger(logger).WithObserver(app.Metrics)
	}

	cache := fetch.NewCache(fetch.CacheOptions{
		MaxEntries: settings.Cache.MaxEntries,
		TTL:        settings.Cache.TTL,
	}, fetch.CacheHooks{
		OnHit:  func() { app.Metrics.ObserveCacheLookup(true) },
		OnMiss: func() { app.Metrics.ObserveCacheLookup(false) },
	})
	fetcher := fetch.NewClient(fetch.Options{
		MaxRetries: settings.Fetch.MaxRetries,
		BaseDelay:  settings.Fetch.BaseDelay,
		MaxDelay:   settings.Fetch.MaxDelay,
		Timeout:    settings.Fetch.Timeout,
	}, cache).WithLogger(logger)

	d := settings.Discovery
	searcher := funding.NewSearcher(
		funding.NewBDNSSource(fetcher, d.NationalSubsidiesURL),
		funding.NewTenderFeedSource(fetcher, d.NationalTendersURL),
		funding.NewSEDIASource(fetcher, d.InternationalSubsidiesURL),
		funding.NewTEDSource(fetcher, d.InternationalTendersURL),
	).WithMaxResults(d.MaxResults).WithLogger(logger)

	registry, err := tools.NewDefaultRegistry(tools.Deps{
		Gateway:  gateway,
		Articles: fetcher,
		Searcher: searcher,
		Language: settings.Agent.Language,
		Logger:   logger,
	}, app.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool catalog: %w", err)
	}
	app.Registry = registry

	executor := tools.NewExecutor(registry, settings.Agent.ToolTimeout).
		WithLogger(logger).
		WithObserver(app.Metrics)
	app.Agent = agent.New(agent.ConfigFromSettings(settings.Agent), gateway, executor).
		WithLogger(logger).
		WithObserver(app.Metrics)

	if settings.Store.Path != "" {
		store, err := storage.OpenSqlite(settings.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		app.Store = store
		app.closers = append(app.closers, store.Close)
	} else {
		app.Store = storage.NewInMemoryStorage()
	}

	if opts.MetricsAddr != "" {
		if err := app.serveMetrics(opts.MetricsAddr); err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	return app, nil
}

// NewGateway creates the model gateway for the configured provider.
func NewGateway(settings config.Settings) (*llm.Client, error) {
	provider, err := llm.NewProviderByName(settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.MaxTokens, float32(settings.LLM.Temperature))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return llm.NewClient(provider), nil
}

// serveMetrics exposes /metrics until Close.
func (a *App) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.MetricsAddr = ln.Addr().String()
	a.Logger.Info("serving metrics", "addr", a.MetricsAddr)
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return nil
}

// Close releases the store and stops the metrics server.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
