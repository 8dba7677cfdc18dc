// AngelaMos | 2026
// workflow_test.go

package order

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/profile"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[string]Order
	items  map[string][]Item

	insertErr      error
	insertItemsErr error
	deleteErr      error
	deleted        []string
	writes         int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]Order{}, items: map[string][]Item{}}
}

func (m *memOrders) Insert(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.writes++
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) InsertItems(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertItemsErr != nil {
		return m.insertItemsErr
	}
	m.writes++
	for _, it := range items {
		m.items[it.OrderID] = append(m.items[it.OrderID], it)
	}
	return nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.orders, id)
	delete(m.items, id)
	return nil
}

func (m *memOrders) GetStatus(_ context.Context, id string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return "", core.ErrNotFound
	}
	return o.Status, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return core.ErrConflict
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func (m *memOrders) list(match func(Order) bool) []Order {
	var out []Order
	for _, o := range m.orders {
		if match(o) {
			o.Items = append([]Item(nil), m.items[o.ID]...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(o Order) bool { return o.CustomerID == customerID }), nil
}

func (m *memOrders) ListAll(context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(Order) bool { return true }), nil
}

func (m *memOrders) Totals(context.Context) (int, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, o := range m.orders {
		sum = sum.Add(o.TotalAmount)
	}
	return len(m.orders), sum, nil
}

type memStock struct {
	mu    sync.Mutex
	stock map[string]int
	fail  map[string]bool
}

func (m *memStock) DecrementStock(_ context.Context, id string, q int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[id] || m.stock[id] < q {
		return errors.New("stock update rejected")
	}
	m.stock[id] -= q
	return nil
}

type oneProfile struct {
	p *profile.Profile
}

func (o oneProfile) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	if o.p == nil || o.p.ID != id {
		return nil, core.ErrNotFound
	}
	return o.p, nil
}

type fixture struct {
	wf     *Workflow
	orders *memOrders
	stock  *memStock
	rec    *notify.Recorder
	logs   *bytes.Buffer
	spans  *tracetest.SpanRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := &fixture{
		orders: newMemOrders(),
		stock:  &memStock{stock: map[string]int{"1": 3, "2": 5}, fail: map[string]bool{}},
		rec:    notify.NewRecorder(),
		logs:   &bytes.Buffer{},
		spans:  spans,
	}
	f.wf = NewWorkflow(WorkflowDeps{
		Orders: f.orders,
		Stock:  f.stock,
		Profiles: oneProfile{p: &profile.Profile{
			ID: "cust-1", Email: "ana@shop.test", FullName: "Ana", Role: profile.RoleClient,
		}},
		Defaults: config.StorefrontConfig{
			DefaultShippingCity:    "Springfield",
			DefaultShippingZip:     "00000",
			DefaultShippingStreet:  "Main St",
			ProfileNamePlaceholder: "Customer",
		},
		Notifier: f.rec,
		Logger:   slog.New(slog.NewTextHandler(f.logs, nil)),
		Tracer:   tp.Tracer("test"),
	})
	return f
}

func scenarioInput() CreateInput {
	return CreateInput{
		CustomerID: "cust-1",
		Items: []LineInput{
			{ProductID: "1", Quantity: 2, Price: decimal.NewFromInt(10)},
			{ProductID: "2", Quantity: 1, Price: decimal.NewFromInt(25)},
		},
		Total:           decimal.NewFromInt(45),
		ShippingAddress: ShippingAddress{Street: "X"},
	}
}

func TestCreateOrderScenario(t *testing.T) {
	f := newFixture(t)

	res, err := f.wf.CreateOrder(context.Background(), scenarioInput())
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(45)))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "1", o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].PriceAtPurchase.Equal(decimal.NewFromInt(10)))
	assert.True(t, ItemsTotal(o.Items).Equal(o.TotalAmount))

	assert.Equal(t, 1, f.stock.stock["1"])
	assert.Equal(t, 4, f.stock.stock["2"])
	assert.Equal(t, 2, res.StockAdjusted)

	assert.Equal(t, ShippingAddress{
		FullName: "Ana", Street: "X", City: "Springfield", Zip: "00000",
	}, o.ShippingAddress)

	last, _ := f.rec.Last()
	assert.Equal(t, notify.LevelSuccess, last.Level)
}

func TestCreateOrderRejectsEmptyAndAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := scenarioInput()
	in.Items = nil
	res, err := f.wf.CreateOrder(ctx, in)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	in = scenarioInput()
	in.CustomerID = ""
	_, err = f.wf.CreateOrder(ctx, in)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	assert.Zero(t, f.orders.writes)
	assert.Equal(t, 3, f.stock.stock["1"])
	assert.Len(t, f.rec.Drain(), 2)
}

func TestCreateOrderRejectsTotalMismatch(t *testing.T) {
	f := newFixture(t)

	in := scenarioInput()
	in.Total = decimal.NewFromInt(40)
	_, err := f.wf.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrTotalMismatch)
	assert.Zero(t, f.orders.writes)

	in = scenarioInput()
	in.Items[0].Quantity = 0
	_, err = f.wf.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestItemFailureRollsBackOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.insertItemsErr = errors.New("constraint violated")

	res, err := f.wf.CreateOrder(context.Background(), scenarioInput())
	assert.Nil(t, res)
	require.Error(t, err)

	assert.Len(t, f.orders.deleted, 1)
	assert.Empty(t, f.orders.orders)
	assert.Equal(t, 3, f.stock.stock["1"])

	last, _ := f.rec.Last()
	assert.Equal(t, notify.LevelError, last.Level)

	events := eventNames(f.spans)
	assert.Contains(t, events, "order.created")
	assert.Contains(t, events, "order.rollback")
	assert.NotContains(t, events, "order.items_inserted")
}

func TestRollbackFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.orders.insertItemsErr = errors.New("constraint violated")
	f.orders.deleteErr = errors.New("connection lost")

	_, err := f.wf.CreateOrder(context.Background(), scenarioInput())
	assert.ErrorContains(t, err, "constraint violated")
	assert.ErrorContains(t, err, "connection lost")
	assert.Contains(t, f.logs.String(), "order rollback failed")
}

func TestStockFailureIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.stock.fail["1"] = true

	res, err := f.wf.CreateOrder(context.Background(), scenarioInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, res.StockFailures)
	assert.Equal(t, 1, res.StockAdjusted)
	assert.Equal(t, 3, f.stock.stock["1"])
	assert.Equal(t, 4, f.stock.stock["2"])
	assert.Len(t, f.orders.orders, 1)

	assert.Contains(t, f.logs.String(), "stock decrement skipped")
	assert.Contains(t, f.logs.String(), "product_id=1")
	assert.Contains(t, eventNames(f.spans), "order.stock_decrement_failed")

	last, _ := f.rec.Last()
	assert.Equal(t, notify.LevelWarning, last.Level)
}

func TestPriceAtPurchaseIsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wf.CreateOrder(ctx, scenarioInput())
	require.NoError(t, err)

	later := scenarioInput()
	later.Items = []LineInput{{ProductID: "1", Quantity: 1, Price: decimal.NewFromInt(99)}}
	later.Total = decimal.NewFromInt(99)
	_, err = f.wf.CreateOrder(ctx, later)
	require.NoError(t, err)

	orders, err := f.wf.OrdersByCustomer(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	var prices []string
	for _, o := range orders {
		for _, it := range o.Items {
			if it.ProductID == "1" {
				prices = append(prices, it.PriceAtPurchase.String())
			}
		}
	}
	assert.ElementsMatch(t, []string{"10", "99"}, prices)
}

func TestShippingFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)

	in := scenarioInput()
	in.CustomerID = "cust-unknown"
	in.ShippingAddress = ShippingAddress{}
	res, err := f.wf.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, ShippingAddress{
		FullName: "Customer", Street: "Main St", City: "Springfield", Zip: "00000",
	}, res.Order.ShippingAddress)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusPending, StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.Empty(t, StatusDelivered.Next())
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.wf.CreateOrder(ctx, scenarioInput())
	require.NoError(t, err)
	id := res.Order.ID

	require.NoError(t, f.wf.UpdateStatus(ctx, id, StatusProcessing))
	assert.ErrorIs(t, f.wf.UpdateStatus(ctx, id, StatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, f.wf.UpdateStatus(ctx, id, Status("lost")), ErrInvalidStatus)
	assert.ErrorIs(t, f.wf.UpdateStatus(ctx, "missing", StatusShipped), core.ErrNotFound)

	require.NoError(t, f.wf.UpdateStatus(ctx, id, StatusShipped))
	require.NoError(t, f.wf.UpdateStatus(ctx, id, StatusDelivered))
	assert.Equal(t, StatusDelivered, f.orders.orders[id].Status)
}

func TestTotals(t *testing.T) {
	f := newFixture(t)

	_, err := f.wf.CreateOrder(context.Background(), scenarioInput())
	require.NoError(t, err)

	n, revenue, err := f.wf.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, revenue.Equal(decimal.NewFromInt(45)))
}

func eventNames(sr *tracetest.SpanRecorder) []string {
	var names []string
	for _, span := range sr.Ended() {
		for _, e := range span.Events() {
			names = append(names, e.Name)
		}
	}
	return names
}
