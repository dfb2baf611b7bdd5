package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/config"
	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/migration"
	"storefront/storefront-service/internal/app/storefront/repository"
)

// Использование: seed <catalog.json>
// Полностью заменяет категории и товары содержимым файла
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: seed <catalog.json>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("storefront-seed", cfg.Log.Level)

	content, err := readSeedFile(os.Args[1])
	if err != nil {
		logger.Fatal().Err(err).Str("file", os.Args[1]).Msg("Failed to read seed file")
	}

	if err := runMigrations(cfg.Database); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := repository.NewSeedImporter(db).Import(ctx, *content)
	if err != nil {
		logger.Fatal().Err(err).Msg("Seed import failed")
	}

	// Кеш дерева категорий в Redis догонит новые данные через CACHE_TTL
	logger.Info().
		Int("categories", result.CategoriesCreated).
		Int("items", result.ItemsCreated).
		Strs("skipped", result.ItemsSkipped).
		Msg("Seed import finished")
}

func readSeedFile(path string) (*entity.SeedContent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content entity.SeedContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("invalid seed document: %w", err)
	}
	return &content, nil
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
