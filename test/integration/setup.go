package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"qr-kitchen/internal/database"
	"qr-kitchen/internal/feed"
	"qr-kitchen/internal/fieldcipher"
	"qr-kitchen/internal/handler"
	"qr-kitchen/internal/livesync"
	"qr-kitchen/internal/repository"
	"qr-kitchen/internal/router"
	"qr-kitchen/internal/service"
	"qr-kitchen/internal/tenant"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts PostgreSQL and applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Stack is a running API backed by a test database.
type Stack struct {
	Server   *httptest.Server
	Resolver *tenant.Resolver
	Hub      *feed.Hub
	DB       *TestDB
}

// StartStack wires the full API the way the server binary does, minus the
// cross-instance relay.
func StartStack(t *testing.T, testDB *TestDB, encryptionKey string) *Stack {
	t.Helper()

	logger := zerolog.Nop()

	cipher, err := fieldcipher.New(encryptionKey)
	require.NoError(t, err)

	hub := feed.NewHub(logger)
	broadcaster := feed.NewBroadcaster(hub, nil, logger)
	resolver := tenant.NewResolver(0, tenant.DefaultFallbackID)

	orderService := service.NewOrderService(repository.NewOrderRepository(testDB.Pool, logger), cipher, broadcaster, logger)
	productService := service.NewProductService(repository.NewProductRepository(testDB.Pool, logger), logger)
	stationService := service.NewStationService(repository.NewStationRepository(testDB.Pool, logger), logger)
	restaurantRepo := repository.NewRestaurantRepository(testDB.Pool, logger)
	restaurantService := service.NewRestaurantService(restaurantRepo, logger)
	authService := service.NewAuthService(restaurantRepo, resolver, logger)

	gateway := livesync.NewGateway(feed.NewPublisher(orderService, logger), hub, livesync.Config{
		PollInterval:      200 * time.Millisecond,
		HeartbeatInterval: 100 * time.Millisecond,
	}, logger)

	mux := router.New(router.Handlers{
		Order:      handler.NewOrderHandler(orderService, logger),
		Stream:     handler.NewStreamHandler(gateway, logger),
		Product:    handler.NewProductHandler(productService, logger),
		Station:    handler.NewStationHandler(stationService, logger),
		Restaurant: handler.NewRestaurantHandler(restaurantService, logger),
		Auth:       handler.NewAuthHandler(authService, logger),
	}, resolver, logger)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Stack{Server: srv, Resolver: resolver, Hub: hub, DB: testDB}
}

// SeedProducts inserts a small menu for the restaurant and returns the ids.
func SeedProducts(t *testing.T, pool *pgxpool.Pool, restaurantID int64) []int64 {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		name    string
		price   float64
		station *string
	}{
		{"Margherita", 9.50, strPtr("oven")},
		{"Caesar Salad", 7.25, strPtr("cold")},
		{"Lemonade", 3.00, nil},
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		var id int64
		err := pool.QueryRow(ctx,
			"INSERT INTO products (restaurant_id, name, price, station) VALUES ($1, $2, $3, $4) RETURNING id",
			restaurantID, p.name, p.price, p.station,
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.name, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// CleanupDB removes everything but the default restaurant.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_status_log", "order_items", "orders", "products", "stations"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
	if _, err := pool.Exec(ctx, "DELETE FROM restaurants WHERE id <> 1"); err != nil {
		t.Logf("failed to clean restaurants: %v", err)
	}
}

func strPtr(s string) *string { return &s }
