package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/example/wholesale-clothing/internal/api"
	"github.com/example/wholesale-clothing/internal/auth"
	"github.com/example/wholesale-clothing/internal/command"
	"github.com/example/wholesale-clothing/internal/config"
	"github.com/example/wholesale-clothing/internal/domain/inventory"
	"github.com/example/wholesale-clothing/internal/domain/order"
	"github.com/example/wholesale-clothing/internal/domain/product"
	"github.com/example/wholesale-clothing/internal/fulfillment"
	"github.com/example/wholesale-clothing/internal/infrastructure/kafka"
	"github.com/example/wholesale-clothing/internal/infrastructure/store"
	"github.com/example/wholesale-clothing/internal/projection"
	"github.com/example/wholesale-clothing/internal/query"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	hashPassword := pflag.String("hash-password", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	pflag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, ledger, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	stock := inventory.NewStore()
	catalog := projection.NewCatalog()
	projector := projection.NewProjector(catalog, stock, logger.Named("projection"))

	// Rebuild from the raw journal before listeners are attached.
	if err := projector.Rebuild(ctx, journal, ledger); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	eventStore := store.NewObservedEventStore(journal, projector.Listener())

	var coordOpts []fulfillment.Option
	coordOpts = append(coordOpts,
		fulfillment.WithLedgerTimeout(cfg.LedgerTimeout),
		fulfillment.WithLogger(logger.Named("fulfillment")))

	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		kafkaLogger := logger.Named("kafka")

		eventStore.Subscribe(store.PublishListener(producer, func(e store.Event, err error) {
			kafkaLogger.Warn("publish event failed",
				zap.String("event_type", e.EventType),
				zap.String("aggregate_id", e.AggregateID),
				zap.Error(err))
		}))
		coordOpts = append(coordOpts, fulfillment.WithPublisher(producer))
		logger.Info("kafka publishing enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	coordinator := fulfillment.NewCoordinator(stock, ledger, catalog, coordOpts...)
	cmdHandler := command.NewHandler(
		product.NewService(eventStore),
		inventory.NewService(eventStore, stock),
		coordinator,
		ledger,
		catalog,
		logger.Named("command"),
	)
	queryHandler := query.NewHandler(catalog, stock, ledger)

	if cfg.SeedSample {
		n, err := cmdHandler.SeedSampleProducts(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if n > 0 {
			logger.Info("seeded sample products", zap.Int("count", n))
		}
	}

	var (
		jwtService   *auth.JWTService
		authHandlers *api.AuthHandlers
	)
	if cfg.AuthEnabled() {
		jwtService = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
		authHandlers = api.NewAuthHandlers(auth.AdminCredentials{
			Username:     cfg.Auth.AdminUser,
			PasswordHash: cfg.Auth.AdminPasswordHash,
		}, jwtService, logger.Named("auth"))
	} else {
		logger.Warn("JWT_SECRET not set, catalog writes are unauthenticated")
	}

	router := api.NewRouter(api.NewHandlers(cmdHandler, queryHandler, logger.Named("api")), authHandlers, jwtService, cfg.WebDir, logger.Named("http"))
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores returns the event journal and order ledger. DATABASE_URL selects
// Postgres; otherwise both live in memory.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.EventStoreInterface, order.Ledger, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory stores")
		return store.NewEventStore(), store.NewMemoryLedger(), func() {}, nil
	}

	db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect event store: %w", err)
	}
	journal := store.NewPostgresEventStore(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("event store schema: %w", err)
	}

	pool, err := store.ConnectLedgerPool(ctx, cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("connect ledger: %w", err)
	}
	if err := store.EnsureLedgerSchema(ctx, pool); err != nil {
		pool.Close()
		db.Close()
		return nil, nil, nil, fmt.Errorf("ledger schema: %w", err)
	}

	logger.Info("using postgres stores")
	return journal, store.NewPostgresLedger(pool), func() {
		pool.Close()
		db.Close()
	}, nil
}
