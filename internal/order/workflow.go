// AngelaMos | 2026
// workflow.go

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/profile"
)

// StockDecrementer lowers a product's stock atomically, failing rather than
// going below zero.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
}

type LineInput struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

type CreateInput struct {
	CustomerID      string
	Items           []LineInput
	Total           decimal.Decimal
	ShippingAddress ShippingAddress
}

// Result reports which stock decrements were skipped. The order stands
// either way.
type Result struct {
	Order         *Order
	StockFailures []string
	StockAdjusted int
}

type WorkflowDeps struct {
	Orders   Repository
	Stock    StockDecrementer
	Profiles ProfileReader
	Defaults config.StorefrontConfig
	Notifier notify.Notifier
	Logger   *slog.Logger
	Tracer   trace.Tracer
}

type Workflow struct {
	orders   Repository
	stock    StockDecrementer
	profiles ProfileReader
	defaults config.StorefrontConfig
	notifier notify.Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewWorkflow(deps WorkflowDeps) *Workflow {
	if deps.Notifier == nil {
		deps.Notifier = notify.Context
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("storefront/order")
	}

	return &Workflow{
		orders:   deps.Orders,
		stock:    deps.Stock,
		profiles: deps.Profiles,
		defaults: deps.Defaults,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
	}
}

// CreateOrder persists an order and its lines, then lowers stock.
//
// Lines are written after the order row; if they fail the order row is
// deleted again. Stock decrements happen last and a failed decrement is
// logged and skipped, so a placed order is never undone for stock.
func (w *Workflow) CreateOrder(ctx context.Context, in CreateInput) (*Result, error) {
	ctx, span := w.tracer.Start(ctx, "order.create",
		trace.WithAttributes(
			attribute.String("customer_id", in.CustomerID),
			attribute.Int("items", len(in.Items)),
		),
	)
	defer span.End()

	if in.CustomerID == "" {
		w.notifier.Notify(ctx, notify.Error("Action required", "You must sign in."))
		return nil, fmt.Errorf("create order: %w", core.ErrUnauthorized)
	}
	if len(in.Items) == 0 {
		w.notifier.Notify(ctx, notify.Error("Empty cart", "Add products before checking out."))
		return nil, fmt.Errorf("create order: %w", ErrEmptyOrder)
	}

	o := &Order{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		TotalAmount:     in.Total,
		Status:          StatusPending,
		ShippingAddress: w.shippingAddress(ctx, in.CustomerID, in.ShippingAddress),
	}

	items := make([]Item, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity <= 0 || line.Price.IsNegative() {
			w.notifier.Notify(ctx, notify.Error("Invalid order", "Every line needs a positive quantity."))
			return nil, fmt.Errorf("create order: line %s: %w", line.ProductID, core.ErrInvalidInput)
		}
		items = append(items, Item{
			ID:              uuid.New().String(),
			OrderID:         o.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.Price,
		})
	}

	if sum := ItemsTotal(items); !sum.Equal(in.Total) {
		w.notifier.Notify(ctx, notify.Error("Invalid order", "The order total does not match the cart."))
		return nil, fmt.Errorf("create order: total %s, items sum to %s: %w",
			in.Total, sum, ErrTotalMismatch)
	}

	if err := w.orders.Insert(ctx, o); err != nil {
		w.fail(ctx, span, err, "Could not create the order.")
		return nil, fmt.Errorf("create order: %w", err)
	}
	core.AddSpanEvent(ctx, "order.created", attribute.String("order_id", o.ID))

	if err := w.orders.InsertItems(ctx, items); err != nil {
		rbErr := w.rollback(ctx, o.ID)
		w.fail(ctx, span, err, "Could not save the order items. The order was not placed.")
		return nil, fmt.Errorf("create order items: %w", errors.Join(err, rbErr))
	}
	core.AddSpanEvent(ctx, "order.items_inserted", attribute.Int("count", len(items)))

	o.Items = items
	res := &Result{Order: o}
	for _, it := range items {
		if err := w.stock.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			w.logger.WarnContext(ctx, "stock decrement skipped",
				"order_id", o.ID,
				"product_id", it.ProductID,
				"quantity", it.Quantity,
				"error", err,
			)
			core.AddSpanEvent(ctx, "order.stock_decrement_failed",
				attribute.String("product_id", it.ProductID),
				attribute.Int("quantity", it.Quantity),
			)
			res.StockFailures = append(res.StockFailures, it.ProductID)
			continue
		}
		res.StockAdjusted++
	}

	if len(res.StockFailures) > 0 {
		w.notifier.Notify(ctx, notify.Warning("Order placed",
			"Your order was placed but some stock levels could not be updated."))
	} else {
		w.notifier.Notify(ctx, notify.Success("Order placed", "Thank you for your purchase."))
	}

	w.logger.InfoContext(ctx, "order created",
		"order_id", o.ID,
		"customer_id", o.CustomerID,
		"total", o.TotalAmount.String(),
	)
	return res, nil
}

// rollback removes an order whose lines could not be written.
func (w *Workflow) rollback(ctx context.Context, orderID string) error {
	core.AddSpanEvent(ctx, "order.rollback", attribute.String("order_id", orderID))

	if err := w.orders.Delete(ctx, orderID); err != nil {
		w.logger.ErrorContext(ctx, "order rollback failed",
			"order_id", orderID,
			"error", err,
		)
		return err
	}
	return nil
}

// shippingAddress fills blank fields from the customer's profile name and
// the configured defaults.
func (w *Workflow) shippingAddress(
	ctx context.Context,
	customerID string,
	in ShippingAddress,
) ShippingAddress {
	out := ShippingAddress{
		FullName: strings.TrimSpace(in.FullName),
		Street:   strings.TrimSpace(in.Street),
		City:     strings.TrimSpace(in.City),
		Zip:      strings.TrimSpace(in.Zip),
	}

	if out.FullName == "" && w.profiles != nil {
		if p, err := w.profiles.GetByID(ctx, customerID); err == nil {
			out.FullName = p.DisplayName()
		}
	}
	if out.FullName == "" {
		out.FullName = w.defaults.ProfileNamePlaceholder
	}
	if out.Street == "" {
		out.Street = w.defaults.DefaultShippingStreet
	}
	if out.City == "" {
		out.City = w.defaults.DefaultShippingCity
	}
	if out.Zip == "" {
		out.Zip = w.defaults.DefaultShippingZip
	}
	return out
}

// UpdateStatus moves an order along the status table. The write is
// conditional on the status read, so a concurrent change yields
// core.ErrConflict instead of a silent overwrite.
func (w *Workflow) UpdateStatus(ctx context.Context, orderID string, next Status) error {
	if !next.Valid() {
		w.notifier.Notify(ctx, notify.Error("Error", "Unknown order status."))
		return fmt.Errorf("update status: %q: %w", next, ErrInvalidStatus)
	}

	current, err := w.orders.GetStatus(ctx, orderID)
	if err != nil {
		w.notifier.Notify(ctx, notify.Error("Error", "Could not update the order."))
		return fmt.Errorf("update status: %w", err)
	}

	if !current.CanTransitionTo(next) {
		w.notifier.Notify(ctx, notify.Error("Error",
			fmt.Sprintf("An order cannot move from %s to %s.", current, next)))
		return fmt.Errorf("update status %s -> %s: %w", current, next, ErrInvalidTransition)
	}

	if err := w.orders.UpdateStatus(ctx, orderID, current, next); err != nil {
		msg := "Could not update the order."
		if errors.Is(err, core.ErrConflict) {
			msg = "The order was changed by someone else. Reload and try again."
		}
		w.notifier.Notify(ctx, notify.Error("Error", msg))
		return fmt.Errorf("update status: %w", err)
	}

	w.notifier.Notify(ctx, notify.Success("Order updated",
		fmt.Sprintf("The order is now %s.", next)))
	return nil
}

func (w *Workflow) OrdersByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if customerID == "" {
		return nil, nil
	}

	orders, err := w.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		w.notifier.Notify(ctx, notify.Error("Data error", "Could not load orders."))
		return nil, err
	}
	return orders, nil
}

func (w *Workflow) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := w.orders.ListAll(ctx)
	if err != nil {
		w.notifier.Notify(ctx, notify.Error("Data error", "Could not load orders."))
		return nil, err
	}
	return orders, nil
}

// Totals returns the order count and revenue across all orders.
func (w *Workflow) Totals(ctx context.Context) (int, decimal.Decimal, error) {
	return w.orders.Totals(ctx)
}

func (w *Workflow) fail(ctx context.Context, span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	w.notifier.Notify(ctx, notify.Error("Error", msg))
}
