// Package app wires configuration into the crawler, its extractors and the record store.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/config"
	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/internal/engine/browser"
	"github.com/law-makers/bizcrawl/internal/engine/explicit"
	"github.com/law-makers/bizcrawl/internal/engine/model"
	"github.com/law-makers/bizcrawl/internal/llm"
	"github.com/law-makers/bizcrawl/internal/proxy"
	"github.com/law-makers/bizcrawl/internal/ratelimit"
	"github.com/law-makers/bizcrawl/internal/retry"
	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release the store.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Store      sink.Store
	Sink       *sink.Adapter
	Limiter    *ratelimit.HostLimiter
	Proxies    *proxy.Pool
	Extractors map[models.ExtractionMode]engine.Extractor
	Crawler    *engine.Crawler
	startTime  time.Time
}

// New creates and initializes an Application from cfg.
//
// The store is connected (and migrated, for postgres) before New returns.
// Model-driven extraction is only registered when an API key is available.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := log.With().Str("component", "app").Logger()

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("sink", cfg.Sink).Msg("Record store initialized")

	limiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	for host, rps := range cfg.RateLimitHosts {
		limiter.SetLimit(host, rps, cfg.RateLimitBurst)
	}
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Int("host_overrides", len(cfg.RateLimitHosts)).
		Msg("Rate limiter initialized")

	extractors := map[models.ExtractionMode]engine.Extractor{
		models.ModeExplicit: explicit.New(cfg.ProfileSelector, cfg.WaitTimeout),
	}
	client, err := llm.New(llm.Config{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.ModelTimeout,
	})
	switch {
	case err == nil:
		extractors[models.ModeModel] = model.New(client, cfg.ProfileSelector, cfg.WaitTimeout)
		logger.Debug().Str("model", cfg.Model).Msg("Model extraction enabled")
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Debug().Msg("No API key configured, model extraction disabled")
	default:
		logger.Warn().Err(err).Msg("Model extraction disabled")
	}

	proxies := proxy.NewPool(proxy.ParseList(cfg.Proxy), proxy.DefaultCooldown)
	if proxies.Len() > 0 {
		logger.Debug().Int("proxies", proxies.Len()).Msg("Proxy rotation enabled")
	}

	adapter := sink.NewAdapter(store)
	crawler := engine.NewCrawler(Launcher(cfg, proxies), extractors, adapter, limiter, engine.Options{
		MaxPages: cfg.MaxPages,
		Collector: engine.LinkCollector{
			ContainerSelector: cfg.ResultsSelector,
			LinkSelector:      cfg.LinkSelector,
			WaitTimeout:       cfg.WaitTimeout,
		},
	})

	a := &Application{
		Config:     cfg,
		Logger:     &logger,
		Store:      store,
		Sink:       adapter,
		Limiter:    limiter,
		Proxies:    proxies,
		Extractors: extractors,
		Crawler:    crawler,
		startTime:  time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return a, nil
}

// NewStore connects the store selected by cfg.Sink
func NewStore(ctx context.Context, cfg *config.Config) (sink.Store, error) {
	switch cfg.Sink {
	case sink.KindNone:
		return sink.NewDiscardStore(), nil
	case sink.KindMemory, "":
		return sink.NewMemoryStore(), nil
	case sink.KindPostgres:
		return sink.ConnectPostgres(ctx, cfg.DatabaseURL, cfg.PhoneRegion)
	case sink.KindRedis:
		return sink.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case sink.KindHTTP:
		rc := retry.DefaultConfig()
		return sink.NewHTTPStore(&http.Client{Timeout: cfg.NavTimeout}, cfg.SubmitURL, cfg.DeleteURL, rc), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// Launcher returns an engine.Launcher that starts a browser configured from cfg.
// Each session takes the next proxy from proxies; a proxy whose session fails
// to start is put on cooldown.
func Launcher(cfg *config.Config, proxies *proxy.Pool) engine.Launcher {
	base := browser.Options{
		Headless:   cfg.Headless,
		UserAgent:  cfg.UserAgent,
		ChromePath: cfg.ChromePath,
		RemoteURL:  cfg.BrowserURL,
		NavTimeout: cfg.NavTimeout,
		Headers:    cfg.Headers,
	}
	return func(ctx context.Context) (engine.Session, error) {
		opts := base
		if proxies != nil {
			opts.Proxy = proxies.Next()
		}

		session, err := browser.Launch(ctx, opts)
		if err != nil {
			if proxies != nil {
				proxies.MarkFailed(opts.Proxy)
			}
			return nil, err
		}
		if proxies != nil && opts.Proxy != "" {
			proxies.MarkHealthy(opts.Proxy)
		}
		return session, nil
	}
}

// Mode resolves the configured extraction mode, or the model mode when useModel is set
func (a *Application) Mode(useModel bool) (models.ExtractionMode, error) {
	if useModel {
		return models.ModeModel, nil
	}
	mode, ok := models.ParseExtractionMode(a.Config.Mode)
	if !ok {
		return "", fmt.Errorf("unknown extraction mode %q", a.Config.Mode)
	}
	return mode, nil
}

// Close gracefully shuts down the application and its store.
// A context with a timeout should be provided to prevent indefinite blocking.
func (a *Application) Close(ctx context.Context) error {
	var err error
	if a.Store != nil {
		if err = a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing record store")
		}
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
