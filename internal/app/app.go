// Package app assembles the shared dependency graph for the API and
// worker binaries.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/retail-pos/internal/auth"
	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/cache"
	"github.com/noah-isme/retail-pos/internal/cart"
	"github.com/noah-isme/retail-pos/internal/config"
	"github.com/noah-isme/retail-pos/internal/export"
	"github.com/noah-isme/retail-pos/internal/inventory"
	"github.com/noah-isme/retail-pos/internal/lock"
	"github.com/noah-isme/retail-pos/internal/obs"
	"github.com/noah-isme/retail-pos/internal/ratelimit"
	"github.com/noah-isme/retail-pos/internal/resilience"
	"github.com/noah-isme/retail-pos/internal/translit"
)

// App bundles everything the binaries need. The worker build leaves the
// DB-backed fields nil.
type App struct {
	Cfg      *config.Config
	Log      zerolog.Logger
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Tasks    *asynq.Client
	Registry *prometheus.Registry

	Inventory *inventory.Service
	Sessions  cart.Store
	Exports   *export.Service
	Auth      *auth.Service
	Translit  *translit.Client
	Suggest   *translit.Suggester
	Layout    bill.Layout

	searchLimiter   ratelimit.Limiter
	translitLimiter func(http.Handler) http.Handler

	shutdowns []func(context.Context) error
}

// New builds the full API dependency graph: database, migrations, Redis,
// the task client, and every domain service.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log, Registry: prometheus.NewRegistry()}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs.MustRegisterDomainMetrics("pos", a.Registry)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "retail-pos",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TraceSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		a.shutdowns = append(a.shutdowns, shutdown)
	}

	if err := a.connectDB(ctx); err != nil {
		return nil, err
	}
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := a.connectRedis(); err != nil {
		return nil, err
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	a.Tasks = asynq.NewClient(redisOpt)
	a.shutdowns = append(a.shutdowns, func(context.Context) error { return a.Tasks.Close() })

	if err := a.buildServices(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWorker builds the reduced graph the export worker needs: Redis-backed
// session, status, and lock state plus the renderers. No database.
func NewWorker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log, Registry: prometheus.NewRegistry()}
	obs.MustRegisterDomainMetrics("pos", a.Registry)

	if err := a.connectRedis(); err != nil {
		return nil, err
	}

	a.Layout = bill.Layout{Rows: cfg.BillPageRows, Order: bill.ParseOrder(cfg.BillOrder)}
	a.Sessions = cart.Store{R: a.Redis, TTL: cfg.SessionTTL}

	exports, err := export.NewService(export.ServiceConfig{
		Sessions: a.Sessions,
		Locker:   lock.Locker{R: a.Redis},
		Status:   export.StatusStore{Cache: cache.JSON{Client: a.Redis, TTL: cfg.ExportStatusTTL}},
		Layout:   a.Layout,
		Dir:      cfg.ExportDir,
		LockTTL:  cfg.ExportLockTTL,
		PDF:      export.PDFRenderer{FontPath: cfg.ExportFontPath},
	})
	if err != nil {
		return nil, err
	}
	a.Exports = exports
	return a, nil
}

// Close tears the graph down in reverse construction order.
func (a *App) Close(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			a.Log.Warn().Err(err).Msg("shutdown step failed")
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *App) connectDB(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(a.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	a.DB = pool
	return nil
}

func (a *App) connectRedis() error {
	opts, err := redis.ParseURL(a.Cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		a.Log.Warn().Err(err).Msg("redis tracing instrumentation failed")
	}
	a.Redis = client
	return nil
}

func (a *App) buildServices() error {
	cfg := a.Cfg
	a.Layout = bill.Layout{Rows: cfg.BillPageRows, Order: bill.ParseOrder(cfg.BillOrder)}
	a.Sessions = cart.Store{R: a.Redis, TTL: cfg.SessionTTL}

	invSvc, err := inventory.NewService(inventory.ServiceConfig{
		Repo:        inventory.NewRepo(a.DB),
		Cache:       cache.JSON{Client: a.Redis, TTL: cfg.InventoryTTL},
		SearchLimit: cfg.SearchLimit,
	})
	if err != nil {
		return err
	}
	a.Inventory = invSvc

	authSvc, err := auth.NewService(auth.ServiceConfig{
		Username:     cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.JWTSecret,
		AccessTTL:    cfg.AccessTokenTTL,
	})
	if err != nil {
		return err
	}
	a.Auth = authSvc

	exports, err := export.NewService(export.ServiceConfig{
		Sessions: a.Sessions,
		Locker:   lock.Locker{R: a.Redis},
		Status:   export.StatusStore{Cache: cache.JSON{Client: a.Redis, TTL: cfg.ExportStatusTTL}},
		Tasks:    a.Tasks,
		Layout:   a.Layout,
		Dir:      cfg.ExportDir,
		LockTTL:  cfg.ExportLockTTL,
		PDF:      export.PDFRenderer{FontPath: cfg.ExportFontPath},
	})
	if err != nil {
		return err
	}
	a.Exports = exports

	a.Translit = &translit.Client{
		BaseURL: cfg.TranslitBaseURL,
		HTTP: resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   cfg.TranslitTimeout,
			},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("inputtools").WithLogger(a.Log),
			MaxAttempts: 2,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
			Timeout:     cfg.TranslitTimeout,
		},
		Cache: cache.JSON{Client: a.Redis, TTL: cfg.TranslitTTL},
	}

	a.Suggest = translit.NewSuggester(a.Translit, 0, cfg.SearchLimit)
	a.shutdowns = append(a.shutdowns, func(context.Context) error {
		a.Suggest.Stop()
		return nil
	})

	a.searchLimiter = ratelimit.Limiter{Client: a.Redis, Prefix: "pos:rl:"}

	rate, err := limiter.NewRateFromFormatted(cfg.TranslitRate)
	if err != nil {
		return fmt.Errorf("parse translit rate: %w", err)
	}
	store, err := limiterredis.NewStoreWithOptions(a.Redis, limiter.StoreOptions{Prefix: "pos:limiter"})
	if err != nil {
		return fmt.Errorf("build limiter store: %w", err)
	}
	mw := limiterstdlib.NewMiddleware(limiter.New(store, rate))
	a.translitLimiter = func(next http.Handler) http.Handler { return mw.Handler(next) }

	return nil
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", migrateURL(databaseURL))
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// migrateURL rewrites the connection scheme to the migrate pgx/v5 driver.
func migrateURL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return databaseURL
}
