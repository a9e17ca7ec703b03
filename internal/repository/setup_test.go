package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"qr-kitchen/internal/database"
	"qr-kitchen/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container with the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedRestaurant(t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO restaurants (name, email, password_hash) VALUES ($1, $2, 'x') RETURNING id`,
		name, fmt.Sprintf("%s@example.com", name),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, restaurantID int64, name string, price float64, station *string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (restaurant_id, name, price, station) VALUES ($1, $2, $3, $4) RETURNING id`,
		restaurantID, name, price, station,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// insertOrder stores an order with the given items through the repository.
func insertOrder(t *testing.T, repo OrderRepository, order *model.Order, items ...model.OrderItem) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	for i := range items {
		items[i].OrderID = order.ID
	}
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))
}

func newOrder(id string, restaurantID int64, status model.OrderStatus, createdAt time.Time) *model.Order {
	table := "T4"
	return &model.Order{
		ID:           id,
		RestaurantID: restaurantID,
		TableNumber:  &table,
		Total:        15,
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func strPtr(s string) *string { return &s }
