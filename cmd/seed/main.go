package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

// seed loads the sample catalog into the configured catalog backend. Products
// have fixed ids, so running it again overwrites them in place.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var repo repository.ProductRepository
	switch cfg.CatalogBackend {
	case config.BackendSQLite:
		sqliteRepo, err := repository.NewSQLiteProductRepository(cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite catalog", zap.Error(err))
		}
		defer sqliteRepo.Close()
		if err := sqliteRepo.RunMigrations(cfg.SQLiteMigrationsPath); err != nil {
			log.Fatal("failed to run SQLite migrations", zap.Error(err))
		}
		repo = sqliteRepo
	default:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer func() { _ = db.Client().Disconnect(context.Background()) }()
		if err := repository.CreateMongoIndexes(ctx, db); err != nil {
			log.Fatal("failed to create MongoDB indexes", zap.Error(err))
		}
		repo = repository.NewMongoProductRepository(db)
	}

	n, err := catalog.NewService(repo, nil, log).Seed(ctx, catalog.SampleProducts())
	if err != nil {
		log.Fatal("seeding failed", zap.Int("seeded", n), zap.Error(err))
	}
	log.Info("catalog seeded", zap.Int("products", n), zap.String("backend", cfg.CatalogBackend))
}
