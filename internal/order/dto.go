// AngelaMos | 2026
// dto.go

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	anonymousCustomer = "Anonymous customer"
	unknownProduct    = "Unknown product"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

type ItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderResponse struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Items           []ItemResponse  `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	NextStatuses    []Status        `json:"next_statuses"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func ToOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CustomerName:    anonymousCustomer,
		CustomerEmail:   "N/A",
		Items:           make([]ItemResponse, 0, len(o.Items)),
		Total:           o.TotalAmount,
		Status:          o.Status,
		NextStatuses:    o.Status.Next(),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.CustomerName != nil && *o.CustomerName != "" {
		resp.CustomerName = *o.CustomerName
	}
	if o.CustomerEmail != nil && *o.CustomerEmail != "" {
		resp.CustomerEmail = *o.CustomerEmail
	}
	if resp.NextStatuses == nil {
		resp.NextStatuses = []Status{}
	}

	for _, it := range o.Items {
		name := unknownProduct
		if it.ProductName != nil {
			name = *it.ProductName
		}
		resp.Items = append(resp.Items, ItemResponse{
			ProductID: it.ProductID,
			Name:      name,
			ImageURL:  it.ProductImage,
			Quantity:  it.Quantity,
			Price:     it.PriceAtPurchase,
		})
	}
	return resp
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out
}
