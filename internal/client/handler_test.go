// AngelaMos | 2026
// handler_test.go

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type lookup map[string]catalog.Product

func (l lookup) Product(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := l[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

type fakeOrders struct {
	got    *order.CreateInput
	placed []order.Order
}

func (f *fakeOrders) CreateOrder(_ context.Context, in order.CreateInput) (*order.Result, error) {
	if len(in.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}
	f.got = &in
	o := order.Order{
		ID:              "o1",
		CustomerID:      in.CustomerID,
		TotalAmount:     in.Total,
		Status:          order.StatusPending,
		ShippingAddress: in.ShippingAddress,
	}
	f.placed = append(f.placed, o)
	return &order.Result{Order: &o, StockFailures: []string{"p2"}}, nil
}

func (f *fakeOrders) OrdersByCustomer(context.Context, string) ([]order.Order, error) {
	return f.placed, nil
}

type fakeProducts struct {
	list []catalog.Product
}

func (f *fakeProducts) FetchProducts(context.Context) ([]catalog.Product, error) {
	return f.list, nil
}

func (f *fakeProducts) UncategorizedLabel() string { return "Uncategorized" }

func product(id string, stock int, price int64) catalog.Product {
	return catalog.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price), Stock: stock}
}

type harness struct {
	router    http.Handler
	catalogue lookup
	carts     *cart.Handler
	orders    *fakeOrders
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	kv := storage.NewMemoryKV()
	catalogue := lookup{"p1": product("p1", 5, 10), "p2": product("p2", 1, 25)}
	carts := cart.NewHandler(kv, "cart:", catalogue)
	orders := &fakeOrders{}

	h := NewHandler(Deps{
		KV:         kv,
		ViewPrefix: "view:",
		Carts:      carts,
		Orders:     orders,
		Products:   &fakeProducts{list: []catalog.Product{catalogue["p1"], catalogue["p2"]}},
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	return &harness{router: r, catalogue: catalogue, carts: carts, orders: orders}
}

func (h *harness) call(t *testing.T, userID, method, path, body string) (int, core.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx := notify.ContextWithRecorder(req.Context(), notify.NewRecorder())
	if userID != "" {
		ctx = middleware.WithIdentity(ctx, userID, "client")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req.WithContext(ctx))

	var resp core.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (h *harness) fill(t *testing.T, userID string, ids ...string) {
	t.Helper()

	c, err := h.carts.Open(context.Background(), userID)
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, c.AddToCart(context.Background(), h.catalogue[id]))
	}
}

func TestCheckoutPlacesOrderAndEmptiesCart(t *testing.T) {
	h := newHarness(t)
	h.fill(t, "u1", "p1", "p1", "p2")

	code, resp := h.call(t, "u1", http.MethodPost, "/checkout",
		`{"shipping_address":{"full_name":"Ana","street":"1 Elm","city":"Town","zip":"12345"}}`)
	require.Equal(t, http.StatusCreated, code)

	require.NotNil(t, h.orders.got)
	assert.Equal(t, "u1", h.orders.got.CustomerID)
	assert.True(t, decimal.NewFromInt(45).Equal(h.orders.got.Total))
	require.Len(t, h.orders.got.Items, 2)
	assert.Equal(t, 2, h.orders.got.Items[0].Quantity)
	assert.Equal(t, "Ana", h.orders.got.ShippingAddress.FullName)

	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{"p2"}, data["stock_failures"])
	assert.Len(t, data["orders"], 1)
	assert.Len(t, data["products"], 2)

	c, err := h.carts.Open(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Lines())
}

func TestCheckoutEmptyCartIsRejected(t *testing.T) {
	h := newHarness(t)

	code, resp := h.call(t, "u1", http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Nil(t, h.orders.got)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	h := newHarness(t)
	h.fill(t, "u1", "p1")

	code, _ := h.call(t, "u1", http.MethodPost, "/checkout", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)

	c, err := h.carts.Open(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, c.Lines(), 1)
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	h := newHarness(t)

	code, _ := h.call(t, "", http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestViewPreference(t *testing.T) {
	h := newHarness(t)

	code, resp := h.call(t, "u1", http.MethodGet, "/view", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "products", resp.Data.(map[string]any)["view"])

	code, _ = h.call(t, "u1", http.MethodPut, "/view", `{"view":"basket"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.call(t, "u1", http.MethodPut, "/view", `{"view":"favorites"}`)
	require.Equal(t, http.StatusOK, code)

	_, resp = h.call(t, "u1", http.MethodGet, "/view", "")
	assert.Equal(t, "favorites", resp.Data.(map[string]any)["view"])

	_, resp = h.call(t, "u2", http.MethodGet, "/view", "")
	assert.Equal(t, "products", resp.Data.(map[string]any)["view"])
}

func TestViewStoreIgnoresUnknownStoredValue(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "view:u1", []byte(`"settings"`)))

	v, err := NewViewStore(kv, "view:", "u1").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ViewProducts, v)

	err = NewViewStore(kv, "view:", "u1").Set(context.Background(), View("settings"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
