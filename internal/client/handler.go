// AngelaMos | 2026
// handler.go

package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/storage"
)

type Carts interface {
	Open(ctx context.Context, userID string) (*cart.Store, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, in order.CreateInput) (*order.Result, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]order.Order, error)
}

type Products interface {
	FetchProducts(ctx context.Context) ([]catalog.Product, error)
	UncategorizedLabel() string
}

type ViewRequest struct {
	View string `json:"view" validate:"required,oneof=products orders favorites"`
}

type ViewResponse struct {
	View View `json:"view"`
}

type CheckoutRequest struct {
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
}

type CheckoutResponse struct {
	Order         order.OrderResponse       `json:"order"`
	StockFailures []string                  `json:"stock_failures"`
	Orders        []order.OrderResponse     `json:"orders"`
	Products      []catalog.ProductResponse `json:"products"`
}

type Deps struct {
	KV         storage.KV
	ViewPrefix string
	Carts      Carts
	Orders     Orders
	Products   Products
	Logger     *slog.Logger
}

type Handler struct {
	kv         storage.KV
	viewPrefix string
	carts      Carts
	orders     Orders
	products   Products
	logger     *slog.Logger
	validator  *validator.Validate
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		kv:         deps.KV,
		viewPrefix: deps.ViewPrefix,
		carts:      deps.Carts,
		orders:     deps.Orders,
		products:   deps.Products,
		logger:     logger,
		validator:  core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/view", h.GetView)
	r.Put("/view", h.SetView)
	r.Post("/checkout", h.Checkout)
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	v, err := NewViewStore(h.kv, h.viewPrefix, userID).Get(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "view preference unreadable",
			"user_id", userID,
			"error", err,
		)
	}
	core.Reply(w, http.StatusOK, ViewResponse{View: v}, notify.Drain(r.Context()))
}

func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	v := View(req.View)
	if err := NewViewStore(h.kv, h.viewPrefix, userID).Set(r.Context(), v); err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}
	core.Reply(w, http.StatusOK, ViewResponse{View: v}, notify.Drain(r.Context()))
}

// Checkout turns the caller's cart into an order. The cart is cleared only
// once the order exists; the product list is re-read because stock changed.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	c, err := h.carts.Open(ctx, userID)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	lines := c.Lines()
	in := order.CreateInput{
		CustomerID:      userID,
		Items:           make([]order.LineInput, 0, len(lines)),
		Total:           c.TotalPrice(),
		ShippingAddress: req.ShippingAddress,
	}
	for _, l := range lines {
		in.Items = append(in.Items, order.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	res, err := h.orders.CreateOrder(ctx, in)
	if err != nil {
		core.Fail(w, order.PublicError(err), notify.Drain(ctx))
		return
	}

	if err := c.ClearCart(ctx); err != nil {
		h.logger.WarnContext(ctx, "cart not cleared after checkout",
			"user_id", userID,
			"order_id", res.Order.ID,
			"error", err,
		)
		notify.Send(ctx, notify.Warning("Cart", "Your order was placed but the cart could not be emptied."))
	}

	orders, err := h.orders.OrdersByCustomer(ctx, userID)
	if err != nil {
		orders = []order.Order{*res.Order}
	}
	products, _ := h.products.FetchProducts(ctx) //nolint:errcheck // failure is already notified

	stockFailures := res.StockFailures
	if stockFailures == nil {
		stockFailures = []string{}
	}

	core.Reply(w, http.StatusCreated, CheckoutResponse{
		Order:         order.ToOrderResponse(res.Order),
		StockFailures: stockFailures,
		Orders:        order.ToOrderResponseList(orders),
		Products:      catalog.ToProductResponseList(products, h.products.UncategorizedLabel()),
	}, notify.Drain(ctx))
}
