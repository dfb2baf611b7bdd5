package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/config"
	"storefront/storefront-service/internal/app/storefront/handler"
	"storefront/storefront-service/internal/app/storefront/migration"
	"storefront/storefront-service/internal/app/storefront/processor"
	"storefront/storefront-service/internal/app/storefront/repository"
	"storefront/storefront-service/internal/app/storefront/service"
	"storefront/storefront-service/internal/app/storefront/util"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// === МИГРАЦИИ ===
	if cfg.Database.MigrateOnStart {
		if err := runMigrations(cfg.Database); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// Дерево категорий читается через pgx pool, товары через GORM
	pool, err := connectPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	db, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open GORM connection")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	// === KAFKA PRODUCER ===
	// Предупреждения о целостности уходят в топик catalog_integrity
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.IntegrityTopic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.IntegrityTopic).
		Msg("Initialized Kafka producer")

	reporter := service.NewIntegrityReporter(kafkaProducer)

	// === РЕПОЗИТОРИИ ===
	categoryRepo := repository.NewCategoryRepository(pool)
	itemRepo := repository.NewItemRepository(db)

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get database handle")
	}
	healthHandler := handler.NewHealthHandler().
		Require("categories_db", pool.Ping).
		Require("items_db", sqlDB.PingContext)

	// Без Redis сервис работает напрямую с PostgreSQL
	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, category cache disabled")
	} else {
		defer redisClient.Close()

		cached := repository.NewCachedCategoryRepository(categoryRepo, redisClient, cfg.Redis.CacheTTL)
		categoryRepo = cached
		logger.Info().
			Str("address", cfg.Redis.Address()).
			Dur("ttl", cfg.Redis.CacheTTL).
			Msg("Category cache enabled")

		// Изменения дерева от сервиса управления каталогом сбрасывают кеш раньше TTL
		consumer := processor.NewCatalogEventsConsumer(cfg.Kafka.Brokers, cfg.Kafka.CatalogTopic, cfg.Kafka.GroupID, cached)
		consumer.Start(ctx)
		defer consumer.Stop()

		healthHandler.Optional("redis", redisClient.Ping)
	}

	// === СЕРВИСЫ ===
	catalogService := service.NewCatalogService(categoryRepo, itemRepo, reporter, cfg.Catalog.StoreTimeout)
	auditor := service.NewIntegrityAuditor(categoryRepo, reporter, cfg.Catalog.StoreTimeout)

	auditScheduler := processor.NewAuditScheduler(auditor)
	if err := auditScheduler.Start(ctx, cfg.Catalog.IntegrityAuditSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start integrity audit scheduler")
	}
	defer auditScheduler.Stop()

	// === HTTP ===
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	catalogHandler := handler.NewCatalogHandler(catalogService, auditor)
	router := handler.SetupRoutes(catalogHandler, healthHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Storefront Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Storefront Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Storefront Service stopped gracefully")
}

func runMigrations(cfg config.DatabaseConfig) error {
	sqlDB, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	migrator, err := migration.New(sqlDB)
	if err != nil {
		sqlDB.Close()
		return err
	}
	defer migrator.Close()

	return migrator.Up()
}

// connectPool подключается к PostgreSQL через pgx pool
// 10 попыток, PostgreSQL в Docker может подниматься дольше сервиса
func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db, sqlDB.Ping()
}
