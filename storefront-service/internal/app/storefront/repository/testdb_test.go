package repository

import (
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Схема повторяет миграцию postgres в типах SQLite:
// uuid хранится как TEXT, цены как REAL, чтобы COALESCE сравнивал числа
var sqliteSchema = []string{
	`CREATE TABLE categories (
		id          TEXT PRIMARY KEY,
		slug        TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT,
		image       TEXT,
		type        TEXT NOT NULL DEFAULT 'PRODUCT',
		parent_id   TEXT,
		created_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE items (
		id           TEXT PRIMARY KEY,
		slug         TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL,
		price        REAL NOT NULL,
		sale_price   REAL,
		availability TEXT NOT NULL DEFAULT 'in-stock',
		vendor       TEXT,
		sku          TEXT,
		created_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE item_categories (
		item_id     TEXT NOT NULL,
		category_id TEXT NOT NULL,
		position    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (item_id, category_id)
	)`,
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// setupCatalogDB создает изолированную SQLite базу в памяти
func setupCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// Каждое соединение к :memory: - отдельная база
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, ddl := range sqliteSchema {
		require.NoError(t, db.Exec(ddl).Error)
	}

	return db
}

func insertCategory(t *testing.T, db *gorm.DB, slug string, parentID *uuid.UUID) entity.Category {
	t.Helper()

	category := entity.Category{
		ID:        uuid.New(),
		Slug:      slug,
		Name:      slug,
		Type:      entity.CategoryTypeProduct,
		ParentID:  parentID,
		CreatedAt: baseTime,
	}
	require.NoError(t, db.Create(&category).Error)
	return category
}

type itemFixture struct {
	slug         string
	itemType     entity.ItemType
	price        int64
	salePrice    *int64
	availability string
	age          time.Duration
	categories   []uuid.UUID
}

func insertItem(t *testing.T, db *gorm.DB, f itemFixture) entity.Item {
	t.Helper()

	if f.itemType == "" {
		f.itemType = entity.ItemTypeProduct
	}
	if f.availability == "" {
		f.availability = entity.AvailabilityInStock
	}

	item := entity.Item{
		ID:           uuid.New(),
		Slug:         f.slug,
		Name:         f.slug,
		Type:         f.itemType,
		Price:        decimal.NewFromInt(f.price),
		Availability: f.availability,
		CreatedAt:    baseTime.Add(-f.age),
	}
	if f.salePrice != nil {
		item.SalePrice = decimal.NewNullDecimal(decimal.NewFromInt(*f.salePrice))
	}
	require.NoError(t, db.Create(&item).Error)

	for i, categoryID := range f.categories {
		link := entity.ItemCategory{ItemID: item.ID, CategoryID: categoryID, Position: i}
		require.NoError(t, db.Create(&link).Error)
	}

	return item
}

func slugsOf(items []entity.Item) []string {
	slugs := make([]string, len(items))
	for i, item := range items {
		slugs[i] = item.Slug
	}
	return slugs
}

func int64Ptr(v int64) *int64 {
	return &v
}
