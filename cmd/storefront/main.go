package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Gragolf/internal/config"
	"Gragolf/internal/gateway"
	"Gragolf/internal/kv"
	"Gragolf/internal/origin"
	"Gragolf/internal/web"
	"Gragolf/pkg/kit"
)

const (
	service        = "storefront"
	connectTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load("config.yaml", ".env")
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	backend, closeBackend, err := openBackend(cfg.Store, log)
	if err != nil {
		log.Fatal("open store failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeBackend()

	reg := prometheus.NewRegistry()
	h := gateway.NewHandler(
		gateway.Deps{
			Store:  kv.NewStore(backend, log),
			Tokens: origin.NewTokenMaker(cfg.Origin.Secret, cfg.Origin.TTL),
			Site:   web.NewSite(cfg.Site.Dir, log),
			Limits: gateway.Limits{
				Window:   cfg.RateLimit.Window,
				Origins:  cfg.RateLimit.Origins,
				Login:    cfg.RateLimit.Login,
				Register: cfg.RateLimit.Register,
			},
			Now: time.Now,
		},
		gateway.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)

	opts := kit.ServerOptions{
		Addr:              cfg.Server.Addr(),
		ReadHeaderTimeout: cfg.Server.HeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}
	if err := kit.RunHTTPServer(opts, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openBackend(cfg config.StoreConfig, log *zap.Logger) (kv.Backend, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st := kv.NewRedisStore(client, cfg.Redis.Prefix)
		if err := st.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("store ready", zap.String("driver", cfg.Driver), zap.String("addr", cfg.Redis.Addr))
		return st, func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := kv.Migrate(cfg.Postgres.URL, log); err != nil {
				return nil, nil, err
			}
		}

		pcfg, err := pgxpool.ParseConfig(cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres url: %w", err)
		}
		if cfg.Postgres.MaxConns > 0 {
			pcfg.MaxConns = cfg.Postgres.MaxConns
		}

		pool, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		st := kv.NewPostgresStore(pool)
		if err := st.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("store ready", zap.String("driver", cfg.Driver))
		return st, pool.Close, nil
	}

	log.Warn("using in-memory store, state is lost on restart")
	return kv.NewMemStore(), func() {}, nil
}
