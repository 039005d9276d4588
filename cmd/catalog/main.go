package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"SpareParts/internal/catalog"
	"SpareParts/internal/config"
	"SpareParts/pkg/kit"
)

const connectTimeout = 10 * time.Second

func main() {
	service := "catalog"

	cfg, err := config.Load(".env")
	if err != nil {
		kit.NewLogger(service, false).Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Debug)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal("open store failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	s := &catalog.Server{
		Store:    store,
		Resolver: &catalog.Resolver{Store: store, BaseURL: cfg.ProductBaseURL},
		Log:      log,
	}

	if cfg.MetricsEnabled && cfg.MetricsToken == "" {
		log.Warn("METRICS_TOKEN is empty, /metrics will reject every scrape")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, closeStore); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(cfg config.Config) (catalog.Store, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := catalog.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.MongoDB).Collection(cfg.MongoCollection)
		return catalog.NewMongoStore(coll, cfg.SearchIndex), client.Disconnect, nil

	case config.DriverPostgres:
		db, err := catalog.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := catalog.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return store, func(context.Context) error { return db.Close() }, nil

	default:
		return catalog.NewMemStore(), nil, nil
	}
}
