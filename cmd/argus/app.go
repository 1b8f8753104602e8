package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/adapters/espn"
	"github.com/XavierBriggs/Argus/adapters/sportsbet"
	"github.com/XavierBriggs/Argus/adapters/theoddsapi"
	"github.com/XavierBriggs/Argus/internal/api"
	"github.com/XavierBriggs/Argus/internal/config"
	"github.com/XavierBriggs/Argus/internal/health"
	"github.com/XavierBriggs/Argus/internal/quality"
	"github.com/XavierBriggs/Argus/internal/registry"
	"github.com/XavierBriggs/Argus/internal/retrieval"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
	"github.com/XavierBriggs/Argus/sports/americanfootball_nfl"
	"github.com/XavierBriggs/Argus/sports/basketball_nba"
)

// app holds the retrieval core shared by every command
type app struct {
	registry     *registry.SportRegistry
	orchestrator *retrieval.Orchestrator
	tracker      *health.Tracker
	discoverers  []contracts.EventDiscoverer
	rateLimits   map[models.SourceID]api.RateLimitReporter
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	// Initialize sport registry and register active sports
	sportRegistry := registry.NewSportRegistry()
	for _, sport := range []contracts.SportModule{
		basketball_nba.NewModule(),
		americanfootball_nfl.NewModule(),
	} {
		if err := sportRegistry.Register(sport); err != nil {
			return nil, fmt.Errorf("register %s: %w", sport.GetSportKey(), err)
		}
	}

	a := &app{
		registry:   sportRegistry,
		rateLimits: make(map[models.SourceID]api.RateLimitReporter),
	}

	// Adapters in priority order; each also discovers events
	order := make([]models.SourceID, 0, len(cfg.Sources.Order))
	adapters := make([]contracts.SourceAdapter, 0, len(cfg.Sources.Order))
	for _, name := range cfg.Sources.Order {
		switch models.SourceID(name) {
		case theoddsapi.SourceID:
			client := theoddsapi.NewClient(cfg.OddsAPI.APIKey, sportRegistry,
				theoddsapi.WithBaseURL(cfg.OddsAPI.BaseURL),
				theoddsapi.WithRegions(cfg.OddsAPI.Regions...),
			)
			adapters = append(adapters, client)
			a.discoverers = append(a.discoverers, client)
			a.rateLimits[client.ID()] = client
		case espn.SourceID:
			client := espn.New(sportRegistry, espn.WithBaseURL(cfg.ESPN.BaseURL))
			adapters = append(adapters, client)
			a.discoverers = append(a.discoverers, client)
		case sportsbet.SourceID:
			scraper := sportsbet.New(sportRegistry, sportsbet.WithBaseURL(cfg.Sportsbet.BaseURL))
			adapters = append(adapters, scraper)
			a.discoverers = append(a.discoverers, scraper)
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
		order = append(order, models.SourceID(name))
	}

	a.tracker = health.NewTracker(health.Cooldowns{
		QuotaExhausted: cfg.Sources.Cooldown.QuotaExhausted,
		RateLimited:    cfg.Sources.Cooldown.RateLimited,
		ServerError:    cfg.Sources.Cooldown.ServerError,
	}, health.WithLogger(logger.Named("health")))

	orch, err := retrieval.New(retrieval.Config{
		Order:           order,
		FallbackEnabled: cfg.Sources.FallbackEnabled,
		Timeout:         cfg.Sources.Timeout,
	}, adapters, a.tracker, quality.NewValidator(logger.Named("quality")), logger.Named("retrieval"))
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	a.orchestrator = orch

	return a, nil
}

// openRedis connects to Redis. The URL may be a redis:// URL or host:port.
func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		if cfg.Password != "" {
			parsed.Password = cfg.Password
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// openPostgres opens and pings the snapshot database
func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
