//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"
	"storefront/storefront-service/internal/app/storefront/migration"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres поднимает PostgreSQL в контейнере и применяет миграции
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	migrator, err := migration.New(sqlDB)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func insertPgCategory(t *testing.T, pool *pgxpool.Pool, slug, name string, parentID *uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO categories (id, slug, name, type, parent_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, slug, name, entity.CategoryTypeProduct, parentID, createdAt)
	require.NoError(t, err)
	return id
}

func TestCategoryRepository_Postgres(t *testing.T) {
	pool := setupPostgres(t)
	repo := NewCategoryRepository(pool)
	ctx := context.Background()

	womens := insertPgCategory(t, pool, "womens", "Womens", nil, baseTime)
	shoes := insertPgCategory(t, pool, "shoes", "Shoes", &womens, baseTime.Add(time.Minute))
	boots := insertPgCategory(t, pool, "boots", "Boots", &shoes, baseTime.Add(2*time.Minute))
	sandals := insertPgCategory(t, pool, "sandals", "Sandals", &shoes, baseTime.Add(3*time.Minute))
	rootShoes := insertPgCategory(t, pool, "shoes", "Shoes outlet", nil, baseTime.Add(4*time.Minute))

	t.Run("find by id", func(t *testing.T) {
		category, err := repo.FindByID(ctx, boots)

		require.NoError(t, err)
		assert.Equal(t, "boots", category.Slug)
		require.NotNil(t, category.ParentID)
		assert.Equal(t, shoes, *category.ParentID)
	})

	t.Run("find by id missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())

		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("bare slug prefers root", func(t *testing.T) {
		category, err := repo.FindBySlugAndParentSlug(ctx, "shoes", nil)

		require.NoError(t, err)
		assert.Equal(t, rootShoes, category.ID)
	})

	t.Run("slug with parent", func(t *testing.T) {
		parent := "womens"

		category, err := repo.FindBySlugAndParentSlug(ctx, "shoes", &parent)

		require.NoError(t, err)
		assert.Equal(t, shoes, category.ID)
	})

	t.Run("slug with wrong parent", func(t *testing.T) {
		parent := "mens"

		_, err := repo.FindBySlugAndParentSlug(ctx, "shoes", &parent)

		assert.ErrorIs(t, err, ErrCategoryNotFound)
	})

	t.Run("children ordered by name", func(t *testing.T) {
		children, err := repo.FindChildrenOf(ctx, shoes)

		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, boots, children[0].ID)
		assert.Equal(t, sandals, children[1].ID)
	})

	t.Run("children of many", func(t *testing.T) {
		children, err := repo.FindChildrenOfAny(ctx, []uuid.UUID{womens, shoes})

		require.NoError(t, err)
		assert.Len(t, children, 3)
	})

	t.Run("roots", func(t *testing.T) {
		roots, err := repo.FindRootCategories(ctx)

		require.NoError(t, err)
		require.Len(t, roots, 2)
		assert.Equal(t, rootShoes, roots[0].ID)
		assert.Equal(t, womens, roots[1].ID)
	})

	t.Run("all", func(t *testing.T) {
		all, err := repo.FindAll(ctx)

		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}
