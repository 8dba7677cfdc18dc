// AngelaMos | 2026
// repository_test.go

package order

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

// arrayArgs lets string slices through to the mock the way the pgx driver
// accepts them for ANY($n).
type arrayArgs struct{}

func (arrayArgs) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]string); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayArgs{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestInsertItemsCommitsAll(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs("i1", "o1", "1", 2, sqlmock.AnyArg(), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs("i2", "o1", "2", 1, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InsertItems(context.Background(), []Item{
		{ID: "i1", OrderID: "o1", ProductID: "1", Quantity: 2, PriceAtPurchase: decimal.NewFromInt(10)},
		{ID: "i2", OrderID: "o1", ProductID: "2", Quantity: 1, PriceAtPurchase: decimal.NewFromInt(25)},
	})
	assert.NoError(t, err)
}

func TestInsertItemsRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs("i1", "o1", "1", 2, sqlmock.AnyArg(), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs("i2", "o1", "missing", 1, sqlmock.AnyArg(), 1).
		WillReturnError(errors.New("violates foreign key"))
	mock.ExpectRollback()

	err := repo.InsertItems(context.Background(), []Item{
		{ID: "i1", OrderID: "o1", ProductID: "1", Quantity: 2, PriceAtPurchase: decimal.NewFromInt(10)},
		{ID: "i2", OrderID: "o1", ProductID: "missing", Quantity: 1, PriceAtPurchase: decimal.NewFromInt(5)},
	})
	assert.ErrorContains(t, err, "insert order item missing")
}

func TestUpdateStatusIsCompareAndSet(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE orders\s+SET status = \$3, updated_at = NOW\(\)\s+WHERE id = \$1 AND status = \$2`).
		WithArgs("o1", StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(ctx, "o1", StatusPending, StatusProcessing))

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("o1", StatusPending, StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(ctx, "o1", StatusPending, StatusCancelled)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestDeleteMissingOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), core.ErrNotFound)
}

func TestListByCustomerAttachesItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM orders o\s+LEFT JOIN profiles p .*WHERE o.customer_id = \$1\s+ORDER BY o.created_at DESC`).
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "total_amount", "status", "shipping_address",
			"created_at", "updated_at", "customer_name", "customer_email",
		}).
			AddRow("o2", "cust-1", "25.00", "pending", []byte(`{"street":"Y"}`), now, now, "Ana", "ana@shop.test").
			AddRow("o1", "cust-1", "45.00", "shipped", []byte(`{"street":"X"}`), now, now, nil, nil))

	mock.ExpectQuery(`FROM order_items oi\s+LEFT JOIN products pr .*WHERE oi.order_id = ANY\(\$1\)\s+ORDER BY oi.order_id, oi.position`).
		WithArgs([]string{"o2", "o1"}).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "quantity", "price_at_purchase",
			"product_name", "product_image",
		}).
			AddRow("i1", "o1", "1", 2, "10.00", "Lamp", nil).
			AddRow("i2", "o1", "2", 1, "25.00", nil, nil).
			AddRow("i3", "o2", "2", 1, "25.00", "Vase", nil))

	orders, err := repo.ListByCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, "Y", orders[0].ShippingAddress.Street)
	assert.Len(t, orders[0].Items, 1)

	o1 := orders[1]
	assert.Equal(t, StatusShipped, o1.Status)
	assert.Nil(t, o1.CustomerName)
	require.Len(t, o1.Items, 2)
	assert.True(t, ItemsTotal(o1.Items).Equal(o1.TotalAmount))

	resp := ToOrderResponse(&o1)
	assert.Equal(t, "Anonymous customer", resp.CustomerName)
	assert.Equal(t, "N/A", resp.CustomerEmail)
	assert.Equal(t, "Unknown product", resp.Items[1].Name)
	assert.Equal(t, []Status{StatusDelivered}, resp.NextStatuses)
}

func TestListAllBindsOrderIDsAsOneArray(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	const count = 70000
	rows := sqlmock.NewRows([]string{
		"id", "customer_id", "total_amount", "status", "shipping_address",
		"created_at", "updated_at", "customer_name", "customer_email",
	})
	for i := range count {
		rows.AddRow(fmt.Sprintf("o%d", i), "cust", "1.00", "pending", []byte(`{}`), now, now, nil, nil)
	}
	mock.ExpectQuery(`FROM orders o\s+LEFT JOIN profiles p .*ORDER BY o.created_at DESC`).
		WillReturnRows(rows)

	mock.ExpectQuery(`WHERE oi.order_id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "quantity", "price_at_purchase",
			"product_name", "product_image",
		}).AddRow("i1", "o69999", "1", 1, "1.00", "Lamp", nil))

	orders, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, count)
	assert.Len(t, orders[count-1].Items, 1)
}

func TestRepositoryTotals(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count, COALESCE\(SUM\(total_amount\), 0\) AS revenue FROM orders`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "revenue"}).AddRow(3, "120.50"))

	n, revenue, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "120.5", revenue.String())
}
