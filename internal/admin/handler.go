// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/session"
)

const recentOrdersLimit = 5

var errNoSession = errors.New("request has no session attached")

type Orders interface {
	Totals(ctx context.Context) (int, decimal.Decimal, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]order.Order, error)
}

type Customers interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
	ListCustomers(ctx context.Context, params profile.ListParams) ([]profile.Profile, int, error)
	CountCustomers(ctx context.Context) (int, error)
}

type Catalog interface {
	CountProducts(ctx context.Context) (int, error)
	LowStock(ctx context.Context) ([]catalog.Product, error)
	UncategorizedLabel() string
}

type Handler struct {
	orders    Orders
	customers Customers
	catalog   Catalog
	validator *validator.Validate

	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
}

type HandlerConfig struct {
	Orders    Orders
	Customers Customers
	Catalog   Catalog

	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		orders:     cfg.Orders,
		customers:  cfg.Customers,
		catalog:    cfg.Catalog,
		validator:  core.NewValidator(),
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
	}
}

// RegisterRoutes mounts the back-office endpoints. The caller has already
// been resolved as an administrator.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)

	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/{id}", h.GetCustomer)

	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateAdmin)
	r.Delete("/users/{id}", h.DeleteUser)

	r.Get("/system", h.GetSystemStats)
	r.Get("/system/db", h.GetDatabaseStats)
	r.Get("/system/redis", h.GetRedisStats)
	r.Get("/system/runtime", h.GetRuntimeStats)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderCount, revenue, err := h.orders.Totals(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}
	customers, err := h.customers.CountCustomers(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}
	products, err := h.catalog.CountProducts(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}
	if len(orders) > recentOrdersLimit {
		orders = orders[:recentOrdersLimit]
	}

	lowStock, err := h.catalog.LowStock(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	core.Reply(w, http.StatusOK, DashboardResponse{
		Stats: DashboardStats{
			TotalRevenue:   revenue,
			TotalOrders:    orderCount,
			TotalCustomers: customers,
			TotalProducts:  products,
		},
		RecentOrders:     order.ToOrderResponseList(orders),
		LowStockProducts: catalog.ToProductResponseList(lowStock, h.catalog.UncategorizedLabel()),
	}, notify.Drain(ctx))
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := profile.ListParams{
		Search: r.URL.Query().Get("search"),
	}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	params.Normalize()

	customers, total, err := h.customers.ListCustomers(ctx, params)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}
	byCustomer := make(map[string][]order.Order)
	for _, o := range orders {
		byCustomer[o.CustomerID] = append(byCustomer[o.CustomerID], o)
	}

	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, toCustomerResponse(&customers[i], byCustomer[customers[i].ID]))
	}

	core.Paginated(w, out, params.Page, params.PageSize, total)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	p, err := h.customers.GetByID(ctx, id)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	orders, err := h.orders.OrdersByCustomer(ctx, id)
	if err != nil {
		core.Fail(w, err, notify.Drain(ctx))
		return
	}

	core.Reply(w, http.StatusOK, CustomerDetailResponse{
		CustomerResponse: toCustomerResponse(p, orders),
		Orders:           order.ToOrderResponseList(orders),
	}, notify.Drain(ctx))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		core.InternalServerError(w, errNoSession)
		return
	}

	users, err := store.GetAllUsers(r.Context())
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, profile.ToProfileResponseList(users), notify.Drain(r.Context()))
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	store, ok := session.FromContext(r.Context())
	if !ok {
		core.InternalServerError(w, errNoSession)
		return
	}

	p, err := store.CreateAdmin(r.Context(), session.AdminRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusCreated, profile.ToProfileResponse(p), notify.Drain(r.Context()))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		core.InternalServerError(w, errNoSession)
		return
	}

	id := chi.URLParam(r, "id")
	identityDeleted, err := store.DeleteUser(r.Context(), id)
	if err != nil {
		core.Fail(w, err, notify.Drain(r.Context()))
		return
	}

	core.Reply(w, http.StatusOK, DeleteUserResponse{
		ID:              id,
		IdentityDeleted: identityDeleted,
		SignedOut:       id == middleware.GetUserID(r.Context()),
	}, notify.Drain(r.Context()))
}
