package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

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
	zap.ReplaceGlobals(log)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	var wg sync.WaitGroup
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// MongoDB, when any backend needs it
	var mongoDB *mongo.Database
	if cfg.NeedsMongo() {
		mongoDB, err = repository.ConnectMongoDB(startCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Client().Disconnect(ctx); err != nil {
				log.Error("failed to disconnect MongoDB", zap.Error(err))
			}
		})
		if err := repository.CreateMongoIndexes(startCtx, mongoDB); err != nil {
			log.Fatal("failed to create MongoDB indexes", zap.Error(err))
		}
		log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))
	}

	products, closeProducts := openProductRepository(cfg, mongoDB, log)
	closers = append(closers, closeProducts)
	orders, closeOrders := openOrderRepository(cfg, mongoDB, log)
	closers = append(closers, closeOrders)

	// Session storage and catalog cache
	var kv storage.KeyValueStore = storage.NewMemoryStore()
	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(startCtx).Err(); err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		kv = storage.NewRedisStore(rdb, cfg.SessionTTL)
		cache = catalog.NewRedisCache(rdb, cfg.CatalogCacheTTL)
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}
	catalogService := catalog.NewService(products, cache, log)

	processor := newPaymentProcessor(cfg, log)
	intents := checkout.NewPaymentIntentService(orders, processor, cfg.Currency, cfg.PaymentTimeout, log)

	// Order paid notifications: through Kafka when brokers are configured
	paidHandler := events.NewOrderPaidHandler(orders, log)
	var notifier checkout.OrderNotifier = events.NewDirectNotifier(paidHandler)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				log.Error("failed to close kafka writer", zap.Error(err))
			}
		})
		notifier = publisher

		consumer := events.NewConsumer(paidHandler, cfg.OrderEventsTopic, cfg.ConsumerGroupID, log, cfg.KafkaBrokers...)
		closers = append(closers, consumer.Close)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(consumerCtx)
		}()
		log.Info("order events via kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	}

	attempts := checkout.NewAttempts(cfg.CheckoutAttemptTTL)
	attempts.OnAbandon(intents.CancelAbandoned)
	orchestrator := checkout.NewOrchestrator(attempts, intents, intents, notifier, log)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pruneAttempts(consumerCtx, attempts, cfg.CheckoutAttemptTTL, log)
	}()

	router := h.NewRouter(h.Handlers{
		Products:       h.NewProductHandler(catalogService, cfg.RequestTimeout, log),
		Cart:           h.NewCartHandler(kv, catalogService, cfg.RequestTimeout, log),
		Checkout:       h.NewCheckoutHandler(orchestrator, kv, cfg.RequestTimeout, log),
		Orders:         h.NewOrdersHandler(orders, kv, cfg.RequestTimeout, log),
		PaymentIntents: h.NewPaymentIntentHandler(intents, cfg.RequestTimeout, log),
	}, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	consumerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("background workers stopped cleanly")
	case <-ctx.Done():
		log.Warn("background workers didn't stop in time")
	}

	log.Info("server exited")
}

func openProductRepository(cfg *config.Config, db *mongo.Database, log *zap.Logger) (repository.ProductRepository, func()) {
	if cfg.CatalogBackend == config.BackendMongo {
		return repository.NewMongoProductRepository(db), func() {}
	}

	repo, err := repository.NewSQLiteProductRepository(cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open SQLite catalog", zap.Error(err))
	}
	if err := repo.RunMigrations(cfg.SQLiteMigrationsPath); err != nil {
		log.Fatal("failed to run SQLite migrations", zap.Error(err))
	}
	log.Info("catalog backed by SQLite", zap.String("path", cfg.SQLitePath))
	return repo, func() { _ = repo.Close() }
}

func openOrderRepository(cfg *config.Config, db *mongo.Database, log *zap.Logger) (repository.OrderRepository, func()) {
	if cfg.OrderBackend == config.BackendMongo {
		return repository.NewMongoOrderRepository(db), func() {}
	}

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.PostgresMigrationsPath,
	}
	repo, err := repository.NewPostgresOrderRepository(creds)
	if err != nil {
		log.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal("failed to run Postgres migrations", zap.Error(err))
	}
	log.Info("orders backed by Postgres", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))
	return repo, func() { _ = repo.Close() }
}

func newPaymentProcessor(cfg *config.Config, log *zap.Logger) payment.Processor {
	var processor payment.Processor
	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		processor = payment.NewStripeProcessor(cfg.StripeSecretKey)
	default:
		log.Warn("using the fake payment processor")
		processor = payment.NewFakeProcessor(payment.RandomStatus{})
	}
	return payment.NewBreakerProcessor(processor, payment.DefaultBreakerSettings(), log)
}

// pruneAttempts drops finished checkout attempts older than ttl until ctx is done.
func pruneAttempts(ctx context.Context, attempts *checkout.Attempts, ttl time.Duration, log *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := attempts.Prune(now.Add(-ttl)); n > 0 {
				log.Debug("pruned checkout attempts", zap.Int("count", n))
			}
		}
	}
}
