// AngelaMos | 2026
// entity.go

package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Product carries its category's display name from the join. CategoryName
// is nil when the product has no category or the category row is gone.
type Product struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	Price        decimal.Decimal `db:"price"`
	Stock        int             `db:"stock"`
	CategoryID   *string         `db:"category_id"`
	CategoryName *string         `db:"category_name"`
	ImageURL     string          `db:"image_url"`
	Featured     bool            `db:"featured"`
	Rating       decimal.Decimal `db:"rating"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// CategoryLabel resolves the display name, falling back when the product is
// uncategorized.
func (p *Product) CategoryLabel(fallback string) string {
	if p.CategoryName != nil && *p.CategoryName != "" {
		return *p.CategoryName
	}
	return fallback
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

func (p *Product) matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(query))
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
