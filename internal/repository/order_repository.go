package repository

import (
	"context"
	"errors"
	"fmt"

	"qr-kitchen/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, restaurant_id, name, email, phone, table_number, total, status, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.RestaurantID,
		order.Name,
		order.Email,
		order.Phone,
		order.TableNumber,
		order.Total,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.NewValidationError("unknown restaurant %d", order.RestaurantID)
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Int64("restaurant_id", order.RestaurantID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID).
		Int64("restaurant_id", order.RestaurantID).
		Msg("order created")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if _, err := results.Exec(); err != nil {
			if pgErrorCode(err) == pgCheckViolation {
				return model.NewValidationError("item %d: quantity must be positive", i)
			}
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, restaurantID int64, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND restaurant_id = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, restaurantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id).Int64("restaurant_id", restaurantID).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachItems(ctx, restaurantID, orders); err != nil {
		return nil, err
	}
	if err := r.attachRestaurant(ctx, restaurantID, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// List returns a restaurant's orders, newest first.
func (r *orderRepository) List(ctx context.Context, restaurantID int64, statuses []model.OrderStatus) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE restaurant_id = $1
		  AND ($2::text[] IS NULL OR status = ANY($2))
		ORDER BY created_at DESC, id
	`

	orders, err := r.queryOrders(ctx, restaurantID, query, restaurantID, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	if err := r.attachRestaurant(ctx, restaurantID, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListActive returns the orders a kitchen display shows, oldest first.
func (r *orderRepository) ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE restaurant_id = $1
		  AND status = ANY($2)
		ORDER BY created_at ASC, id
	`

	return r.queryOrders(ctx, restaurantID, query, restaurantID, statusStrings(model.ActiveStatuses))
}

// LockStatus reads the order's status with a row lock held until tx ends.
func (r *orderRepository) LockStatus(ctx context.Context, tx pgx.Tx, restaurantID int64, id string) (model.OrderStatus, error) {
	query := `SELECT status FROM orders WHERE id = $1 AND restaurant_id = $2 FOR UPDATE`

	var status string
	if err := tx.QueryRow(ctx, query, id, restaurantID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to lock order")
		return "", fmt.Errorf("failed to lock order: %w", err)
	}

	return model.OrderStatus(status), nil
}

// UpdateStatus writes the new status, scoped by restaurant.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, restaurantID int64, id string, status model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND restaurant_id = $3
	`

	tag, err := tx.Exec(ctx, query, string(status), id, restaurantID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Str("status", string(status)).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// LogStatusChange appends a row to the status history.
func (r *orderRepository) LogStatusChange(ctx context.Context, tx pgx.Tx, change model.OrderStatusChange) error {
	query := `
		INSERT INTO order_status_log (order_id, from_status, to_status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		change.OrderID,
		string(change.From),
		string(change.To),
		change.ChangedBy,
		change.ChangedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", change.OrderID).Msg("failed to log status change")
		return fmt.Errorf("failed to log status change: %w", err)
	}

	return nil
}

// StatusHistory returns the applied transitions of an order, oldest first.
func (r *orderRepository) StatusHistory(ctx context.Context, restaurantID int64, id string) ([]model.OrderStatusChange, error) {
	query := `
		SELECT l.order_id, l.from_status, l.to_status, l.changed_by, l.changed_at
		FROM order_status_log l
		JOIN orders o ON o.id = l.order_id
		WHERE l.order_id = $1 AND o.restaurant_id = $2
		ORDER BY l.changed_at, l.id
	`

	rows, err := r.pool.Query(ctx, query, id, restaurantID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to query status history")
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	history := []model.OrderStatusChange{}
	for rows.Next() {
		var (
			c        model.OrderStatusChange
			from, to string
		)
		if err := rows.Scan(&c.OrderID, &from, &to, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		c.From, c.To = model.OrderStatus(from), model.OrderStatus(to)
		history = append(history, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}

// ReleaseTable clears the table number. updated_at only moves when the
// table was actually set, so repeating the call changes nothing.
func (r *orderRepository) ReleaseTable(ctx context.Context, restaurantID int64, id string) error {
	query := `
		UPDATE orders
		SET updated_at = CASE WHEN table_number IS NULL THEN updated_at ELSE NOW() END,
		    table_number = NULL
		WHERE id = $1 AND restaurant_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, restaurantID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id).Msg("failed to release table")
		return fmt.Errorf("failed to release table: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) queryOrders(ctx context.Context, restaurantID int64, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Int64("restaurant_id", restaurantID).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, restaurantID, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachRestaurant sets the restaurant contact block on every order. All
// orders belong to restaurantID, so one lookup serves the whole slice.
func (r *orderRepository) attachRestaurant(ctx context.Context, restaurantID int64, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	query := `SELECT id, name, email, phone, address FROM restaurants WHERE id = $1`

	var summary model.RestaurantSummary
	err := r.pool.QueryRow(ctx, query, restaurantID).Scan(
		&summary.ID,
		&summary.Name,
		&summary.Email,
		&summary.Phone,
		&summary.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		r.logger.Error().Err(err).Int64("restaurant_id", restaurantID).Msg("failed to query order restaurant")
		return fmt.Errorf("failed to query order restaurant: %w", err)
	}

	for i := range orders {
		orders[i].Restaurant = &summary
	}

	return nil
}

// attachItems loads the items of all orders in one query. Products are
// joined opportunistically: a missing product leaves the item unnamed.
func (r *orderRepository) attachItems(ctx context.Context, restaurantID int64, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query := `
		SELECT oi.order_id, oi.product_id, p.name, oi.quantity, oi.price,
		       COALESCE(NULLIF(p.station, ''), $3)
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id AND p.restaurant_id = $2
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`

	rows, err := r.pool.Query(ctx, query, ids, restaurantID, model.DefaultStation)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Station); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.RestaurantID,
		&o.Name,
		&o.Email,
		&o.Phone,
		&o.TableNumber,
		&o.Total,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	o.Status = model.OrderStatus(status)
	return o, err
}

func statusStrings(statuses []model.OrderStatus) []string {
	if statuses == nil {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
