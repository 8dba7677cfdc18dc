// AngelaMos | 2026
// entity.go

package order

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrTotalMismatch     = errors.New("order total does not match its items")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("unknown order status")
)

// transitions lists the statuses reachable from each status. Delivered and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Next returns the statuses reachable from s.
func (s Status) Next() []Status {
	return slices.Clone(transitions[s])
}

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return fmt.Errorf("scan shipping address: unsupported type %T", src)
}

type Order struct {
	ID              string          `db:"id"`
	CustomerID      string          `db:"customer_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          Status          `db:"status"`
	ShippingAddress ShippingAddress `db:"shipping_address"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`

	CustomerName  *string `db:"customer_name"`
	CustomerEmail *string `db:"customer_email"`

	Items []Item `db:"-"`
}

// Item freezes the price at purchase. ProductName and ProductImage come
// from the live product row and are nil once the product is gone.
type Item struct {
	ID              string          `db:"id"`
	OrderID         string          `db:"order_id"`
	ProductID       string          `db:"product_id"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`

	ProductName  *string `db:"product_name"`
	ProductImage *string `db:"product_image"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums price times quantity over items.
func ItemsTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
