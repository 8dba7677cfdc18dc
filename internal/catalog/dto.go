// AngelaMos | 2026
// dto.go

package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest names its category; the service resolves or creates it.
type ProductRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0"`
	Stock       int             `json:"stock"       validate:"gte=0"`
	Category    string          `json:"category"    validate:"max=100"`
	ImageURL    string          `json:"image_url"   validate:"omitempty,url"`
	Featured    bool            `json:"featured"`
	Rating      decimal.Decimal `json:"rating"      validate:"gte=0,lte=5"`
}

type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (r ProductRequest) toProduct(id string, categoryID *string) *Product {
	return &Product{
		ID:          id,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CategoryID:  categoryID,
		ImageURL:    r.ImageURL,
		Featured:    r.Featured,
		Rating:      r.Rating,
	}
}

// RequestFromProduct rebuilds the write request that would leave p as is.
func RequestFromProduct(p *Product) ProductRequest {
	req := ProductRequest{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
		Rating:      p.Rating,
	}
	if p.CategoryName != nil {
		req.Category = *p.CategoryName
	}
	return req
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	InStock     bool            `json:"in_stock"`
	CategoryID  *string         `json:"category_id"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Featured    bool            `json:"featured"`
	Rating      decimal.Decimal `json:"rating"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToProductResponse(p *Product, uncategorized string) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.InStock(),
		CategoryID:  p.CategoryID,
		Category:    p.CategoryLabel(uncategorized),
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product, uncategorized string) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i], uncategorized))
	}
	return out
}

func ToCategoryResponseList(categories []Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}
