package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/prediction-pool/internal/config"
	"github.com/riskibarqy/prediction-pool/internal/domain/kv"
	"github.com/riskibarqy/prediction-pool/internal/domain/standings"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/fixturecsv"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/repository/kvstore"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prediction-pool/internal/interfaces/httpapi"
	"github.com/riskibarqy/prediction-pool/internal/platform/cache"
	"github.com/riskibarqy/prediction-pool/internal/platform/logging"
	"github.com/riskibarqy/prediction-pool/internal/platform/resilience"
	"github.com/riskibarqy/prediction-pool/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const dbPingTimeout = 5 * time.Second

// App is the wired prediction pool: its HTTP server and the resources the
// server depends on.
type App struct {
	Server *http.Server
	Pool   *usecase.PoolService

	db *sqlx.DB
}

// New loads the fixture catalog, opens storage, rebuilds scores from
// persisted results and wires the HTTP API.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	catalog, err := usecase.LoadCatalog(ctx, fixturecsv.NewLoader(cfg.FixturesCSV, cfg.FixturesTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("load fixture catalog from %s: %w", cfg.FixturesCSV, err)
	}
	logger.Info("fixture catalog loaded", "path", cfg.FixturesCSV, "fixtures", catalog.Len(), "rounds", len(catalog.Rounds()))

	clk := clock.New()
	store, db, err := openStore(ctx, cfg, clk, logger)
	if err != nil {
		return nil, err
	}
	app := &App{db: db}

	picks := kvstore.NewPickRepository(store)
	results := kvstore.NewResultRepository(store)

	pool, err := usecase.NewPoolService(
		usecase.PoolConfig{Rules: cfg.Scoring, RebuildWorkers: cfg.RebuildWorkers},
		catalog,
		usecase.NewPickStore(catalog, picks, results),
		usecase.NewResultStore(catalog, results),
		usecase.NewAdminAuthorizer(cfg.AdminPassword, cfg.AdminPasswordHash),
		clk,
		cache.NewStore[[]standings.Row](cfg.CacheTTL, clk),
		logger,
	)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("build pool service: %w", err)
	}
	if err := pool.Rebuild(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("rebuild scores: %w", err)
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		logger.Warn("admin secret not configured, using the documented default", "env", "POOL_ADMIN_PASSWORD")
	}

	handler := httpapi.NewHandler(pool, cfg.DisplayTimezone, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	app.Pool = pool
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openStore(ctx context.Context, cfg config.Config, clk clock.Clock, logger *logging.Logger) (kv.Store, *sqlx.DB, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := otelsqlx.Open("postgres", cfg.DBURL,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}

		logger.Info("storage ready", "backend", config.StoragePostgres, "db_name", dbNameFromURL(cfg.DBURL))
		breaker := resilience.NewCircuitBreakerFromConfig(cfg.DBCircuit, clk)
		breaker.OnStateChange(func(from, to resilience.CircuitState) {
			logger.Warn("db circuit breaker state changed", "from", string(from), "to", string(to))
		})
		return postgres.NewKVStore(db, breaker), db, nil
	default:
		logger.Warn("storage ready", "backend", config.StorageMemory, "note", "picks and results are lost on restart")
		return memory.NewKVStore(), nil, nil
	}
}
