package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/config"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/database"
	dbpostgres "github.com/cybershaman666/jobshaman.cz-sub002/internal/database/postgres"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/diagnostics"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/geocode"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/hybrid"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/infrastructure/cache"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/normalize"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/repository"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/usecase"
)

// Container owns every long-lived dependency and the wiring between them.
type Container struct {
	Config config.Config
	Logger *logging.Logger
	DB     database.DB
	Cache  *cache.Redis
	Search usecase.SearchUsecase
}

func NewContainer(cfg config.Config, logger *logging.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	norm := normalize.New(logger)
	searchRepo := repository.NewPostgresJobSearchRepository(db)
	windowRepo := repository.NewPostgresRecentWindowRepository(db)

	deps := usecase.SearchDeps{
		Repo:       searchRepo,
		Normalizer: norm,
		Strict:     usecase.NewStrictFallback(windowRepo, norm, logger, cfg.Search.WindowCeiling),
		Text:       usecase.NewTextFallback(windowRepo, norm, logger),
		Cache:      redisCache,
		Diags:      diagnostics.NewRecorder(redisCache, logger, cfg.Search.DiagnosticsGap),
		Logger:     logger,
	}

	if hosts := hybridHosts(cfg.Hybrid); len(hosts) > 0 {
		deps.Hybrid = hybrid.NewClient(hybrid.Config{
			Hosts:      hosts,
			Cooldown:   cfg.Hybrid.Cooldown,
			HTTPClient: &http.Client{Timeout: cfg.Hybrid.Timeout},
		}, hybrid.NewCooldownTracker(), norm, logger)
	}

	if cfg.Geocoder.BaseURL != "" {
		geo, err := geocode.NewClient(geocode.Config{
			BaseURL: cfg.Geocoder.BaseURL,
			Timeout: cfg.Geocoder.Timeout,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		deps.Geocoder = geo
	}

	search := usecase.NewSearchUsecase(deps, usecase.SearchConfig{
		HybridForced:    cfg.Hybrid.Force,
		MaxPageSize:     cfg.Search.MaxPageSize,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		CacheTTL:        cfg.Search.CacheTTL,
	})

	return &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Cache:  redisCache,
		Search: search,
	}, nil
}

func hybridHosts(cfg config.HybridConfig) []string {
	hosts := make([]string, 0, 2)
	if cfg.PrimaryURL != "" {
		hosts = append(hosts, cfg.PrimaryURL)
	}
	if cfg.SecondaryURL != "" {
		hosts = append(hosts, cfg.SecondaryURL)
	}
	return hosts
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
