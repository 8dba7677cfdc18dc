// AngelaMos | 2026
// cache.go

package catalog

import (
	"slices"
	"sync"
	"time"
)

// Cache mirrors the products and categories tables. Each list is replaced
// wholesale and the last fetch to resolve wins, whatever order the fetches
// were issued in. Callers needing strict ordering serialize their fetches.
type Cache struct {
	mu sync.RWMutex

	products          []Product
	productsRefresh   time.Time
	categories        []Category
	categoriesRefresh time.Time

	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

func (c *Cache) SetProducts(list []Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = slices.Clone(list)
	c.productsRefresh = c.now()
}

func (c *Cache) SetCategories(list []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.categories = slices.Clone(list)
	c.categoriesRefresh = c.now()
}

func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

func (c *Cache) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.categories)
}

func (c *Cache) Product(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CategoryByName is a case-insensitive lookup over the cached categories.
func (c *Cache) CategoryByName(name string) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cat := range c.categories {
		if sameName(cat.Name, name) {
			return cat, true
		}
	}
	return Category{}, false
}

// ProductsStale reports whether products were never loaded or were loaded
// longer than maxAge ago.
func (c *Cache) ProductsStale(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.productsRefresh.IsZero() || c.now().Sub(c.productsRefresh) > maxAge
}

func (c *Cache) CategoriesStale(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categoriesRefresh.IsZero() || c.now().Sub(c.categoriesRefresh) > maxAge
}
