// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []Item) error
	Delete(ctx context.Context, id string) error
	GetStatus(ctx context.Context, id string) (Status, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	Totals(ctx context.Context) (int, decimal.Decimal, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, customer_id, total_amount, status, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		o.ID,
		o.CustomerID,
		o.TotalAmount,
		o.Status,
		o.ShippingAddress,
	)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", core.ClassifyPgError(err))
	}

	return nil
}

// InsertItems writes every line or none of them.
func (r *repository) InsertItems(ctx context.Context, items []Item) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, position)
		VALUES ($1, $2, $3, $4, $5, $6)`

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for pos, it := range items {
			_, err := tx.ExecContext(ctx, query,
				it.ID,
				it.OrderID,
				it.ProductID,
				it.Quantity,
				it.PriceAtPurchase,
				pos,
			)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w",
					it.ProductID, core.ClassifyPgError(err))
			}
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete order: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) GetStatus(ctx context.Context, id string) (Status, error) {
	var status Status
	err := r.db.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get order status: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get order status: %w", err)
	}
	return status, nil
}

// UpdateStatus only applies while the order is still in from, so two admins
// moving the same order cannot both succeed.
func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update order status: %w", core.ErrConflict)
	}
	return nil
}

const orderSelect = `
	SELECT
		o.id, o.customer_id, o.total_amount, o.status, o.shipping_address,
		o.created_at, o.updated_at,
		p.full_name AS customer_name, p.email AS customer_email
	FROM orders o
	LEFT JOIN profiles p ON p.id = o.customer_id`

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	query := orderSelect + `
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC`

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query, customerID); err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Order, error) {
	query := orderSelect + `
		ORDER BY o.created_at DESC`

	var orders []Order
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the lines of every order in one query. The ids travel as
// a single array parameter so the order count is not bounded by the bind
// limit. Product name and image are read live; the price is the frozen
// purchase price.
func (r *repository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	query := `
		SELECT
			oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase,
			pr.name AS product_name, pr.image_url AS product_image
		FROM order_items oi
		LEFT JOIN products pr ON pr.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.position`

	var items []Item
	if err := r.db.SelectContext(ctx, &items, query, ids); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	for _, it := range items {
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return nil
}

// Totals returns the order count and the summed order totals.
func (r *repository) Totals(ctx context.Context) (int, decimal.Decimal, error) {
	var row struct {
		Count   int             `db:"count"`
		Revenue decimal.Decimal `db:"revenue"`
	}

	query := `SELECT COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue FROM orders`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, decimal.Zero, fmt.Errorf("order totals: %w", err)
	}
	return row.Count, row.Revenue, nil
}
