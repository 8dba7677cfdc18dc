// AngelaMos | 2026
// dto.go

package admin

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/profile"
)

type CreateAdminRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	TotalProducts  int             `json:"total_products"`
}

type DashboardResponse struct {
	Stats            DashboardStats            `json:"stats"`
	RecentOrders     []order.OrderResponse     `json:"recent_orders"`
	LowStockProducts []catalog.ProductResponse `json:"low_stock_products"`
}

type CustomerResponse struct {
	profile.ProfileResponse
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	LastOrderAt *time.Time      `json:"last_order_at"`
}

type CustomerDetailResponse struct {
	CustomerResponse
	Orders []order.OrderResponse `json:"orders"`
}

type DeleteUserResponse struct {
	ID              string `json:"id"`
	IdentityDeleted bool   `json:"identity_deleted"`
	SignedOut       bool   `json:"signed_out"`
}

func toCustomerResponse(p *profile.Profile, orders []order.Order) CustomerResponse {
	resp := CustomerResponse{
		ProfileResponse: profile.ToProfileResponse(p),
		TotalOrders:     len(orders),
		TotalSpent:      decimal.Zero,
	}
	for _, o := range orders {
		resp.TotalSpent = resp.TotalSpent.Add(o.TotalAmount)
		if resp.LastOrderAt == nil || o.CreatedAt.After(*resp.LastOrderAt) {
			created := o.CreatedAt
			resp.LastOrderAt = &created
		}
	}
	return resp
}
