// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/notify"
)

var ErrProductReferenced = errors.New("product is referenced by orders")

const lowStockThreshold = 5

// Service is shared by every request. Notifications go to the recorder in
// the caller's ctx unless a notifier is supplied.
type Service struct {
	repo          Repository
	cache         *Cache
	notifier      notify.Notifier
	logger        *slog.Logger
	maxAge        time.Duration
	uncategorized string
	defaultImage  string
}

func NewService(
	repo Repository,
	cache *Cache,
	cfg config.CatalogConfig,
	logger *slog.Logger,
) *Service {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	label := cfg.UncategorizedLabel
	if label == "" {
		label = "Uncategorized"
	}

	return &Service{
		repo:          repo,
		cache:         cache,
		notifier:      notify.Context,
		logger:        logger,
		maxAge:        cfg.RefreshInterval,
		uncategorized: label,
		defaultImage:  cfg.DefaultImageURL,
	}
}

// WithNotifier replaces the ctx-routed notifier.
func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) UncategorizedLabel() string {
	return s.uncategorized
}

func (s *Service) FetchCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Data error", "Could not load categories."))
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	s.cache.SetCategories(categories)
	return categories, nil
}

func (s *Service) FetchProducts(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Data error", "Could not load products."))
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	s.cache.SetProducts(products)
	return products, nil
}

// Products serves from the cache, fetching first when it is stale.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	if s.cache.ProductsStale(s.maxAge) {
		return s.FetchProducts(ctx)
	}
	return s.cache.Products(), nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	if s.cache.CategoriesStale(s.maxAge) {
		return s.FetchCategories(ctx)
	}
	return s.cache.Categories(), nil
}

func (s *Service) Product(ctx context.Context, id string) (*Product, error) {
	if !s.cache.ProductsStale(s.maxAge) {
		if p, ok := s.cache.Product(id); ok {
			return &p, nil
		}
	}
	return s.repo.GetProduct(ctx, id)
}

// Search filters by a case-insensitive name substring and, when category is
// non-empty, by category name.
func (s *Service) Search(ctx context.Context, query, category string) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.matches(strings.TrimSpace(query)) {
			continue
		}
		if category != "" && !sameName(p.CategoryLabel(s.uncategorized), category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Featured returns up to limit featured products; limit <= 0 means all.
func (s *Service) Featured(ctx context.Context, limit int) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	var out []Product
	for _, p := range products {
		if !p.Featured {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	var out []Product
	for _, p := range products {
		if p.Stock < lowStockThreshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) CountProducts(ctx context.Context) (int, error) {
	return s.repo.CountProducts(ctx)
}

// ResolveCategory maps a category name to its id, creating the category
// when no case-insensitive match exists. A unique-index conflict means a
// concurrent writer created it first, so the lookup is retried once. An
// empty name resolves to no category.
func (s *Service) ResolveCategory(ctx context.Context, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	existing, err := s.repo.GetCategoryByName(ctx, name)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	created := &Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: name,
	}
	err = s.repo.CreateCategory(ctx, created)
	if err == nil {
		return &created.ID, nil
	}
	if !errors.Is(err, core.ErrDuplicateKey) {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	s.logger.Debug("category created concurrently, retrying lookup",
		"category", name,
	)

	existing, err = s.repo.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve category after conflict: %w", err)
	}
	return &existing.ID, nil
}

func (s *Service) AddProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	categoryID, err := s.ResolveCategory(ctx, req.Category)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not create the category."))
		return nil, fmt.Errorf("add product: %w", err)
	}

	p := req.toProduct(uuid.New().String(), categoryID)
	s.fillImage(p)
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not add the product."))
		return nil, fmt.Errorf("add product: %w", err)
	}

	s.notifier.Notify(ctx, notify.Success("Product added", p.Name+" is now in the catalog."))
	return s.afterProductWrite(ctx, p.ID, categoryID != nil)
}

// UpdateProduct overwrites every mutable field of the product.
func (s *Service) UpdateProduct(
	ctx context.Context,
	id string,
	req ProductRequest,
) (*Product, error) {
	categoryID, err := s.ResolveCategory(ctx, req.Category)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not create the category."))
		return nil, fmt.Errorf("update product: %w", err)
	}

	p := req.toProduct(id, categoryID)
	s.fillImage(p)
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not update the product."))
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.notifier.Notify(ctx, notify.Success("Product updated", p.Name+" was saved."))
	return s.afterProductWrite(ctx, id, categoryID != nil)
}

// fillImage gives products saved without an image the configured default.
func (s *Service) fillImage(p *Product) {
	if strings.TrimSpace(p.ImageURL) == "" {
		p.ImageURL = s.defaultImage
	}
}

// ToggleFeatured flips the featured flag through UpdateProduct, leaving the
// other fields as they are.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (*Product, error) {
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not update the product."))
		return nil, fmt.Errorf("toggle featured: %w", err)
	}

	req := RequestFromProduct(current)
	req.Featured = !current.Featured
	return s.UpdateProduct(ctx, id, req)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.repo.DeleteProduct(ctx, id)
	if errors.Is(err, core.ErrForeignKey) {
		s.notifier.Notify(ctx, notify.Error("Error",
			"This product appears in existing orders and cannot be deleted."))
		return fmt.Errorf("delete product %s: %w", id, ErrProductReferenced)
	}
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not delete the product."))
		return err
	}

	s.notifier.Notify(ctx, notify.Success("Product deleted", "The product was removed."))
	s.refresh(ctx, true, false)
	return nil
}

func (s *Service) AddCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	if err := s.checkCategoryName(ctx, "", req.Name); err != nil {
		return nil, err
	}

	c := &Category{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		s.categoryWriteFailed(ctx, err, "Could not add the category.")
		return nil, fmt.Errorf("add category: %w", err)
	}

	s.notifier.Notify(ctx, notify.Success("Category added", c.Name+" was created."))
	s.refresh(ctx, false, true)
	return c, nil
}

func (s *Service) UpdateCategory(
	ctx context.Context,
	id string,
	req CategoryRequest,
) (*Category, error) {
	if err := s.checkCategoryName(ctx, id, req.Name); err != nil {
		return nil, err
	}

	c := &Category{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		s.categoryWriteFailed(ctx, err, "Could not update the category.")
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.notifier.Notify(ctx, notify.Success("Category updated", c.Name+" was saved."))
	// products carry the category name
	s.refresh(ctx, true, true)
	return c, nil
}

// DeleteCategory refuses while any product references the category. The
// check and the delete are one statement.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	err := s.repo.DeleteCategoryIfUnused(ctx, id)
	if errors.Is(err, ErrCategoryInUse) {
		s.notifier.Notify(ctx, notify.Error("Error", "The category has associated products."))
		return err
	}
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Could not delete the category."))
		return err
	}

	s.notifier.Notify(ctx, notify.Success("Category deleted", "The category was removed."))
	s.refresh(ctx, false, true)
	return nil
}

// checkCategoryName is the advisory uniqueness pre-check against the cached
// categories. The unique index stays the final authority.
func (s *Service) checkCategoryName(ctx context.Context, selfID, name string) error {
	categories, err := s.Categories(ctx)
	if err != nil {
		return err
	}

	for _, c := range categories {
		if c.ID != selfID && sameName(c.Name, name) {
			s.notifier.Notify(ctx, notify.Error("Error",
				"A category with this name already exists."))
			return fmt.Errorf("category %q: %w", name, core.ErrDuplicateKey)
		}
	}
	return nil
}

func (s *Service) categoryWriteFailed(ctx context.Context, err error, fallback string) {
	msg := fallback
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		msg = "A category with this name already exists."
	case errors.Is(err, core.ErrNotFound):
		msg = "The category no longer exists."
	}
	s.notifier.Notify(ctx, notify.Error("Error", msg))
}

func (s *Service) afterProductWrite(
	ctx context.Context,
	id string,
	categoriesChanged bool,
) (*Product, error) {
	s.refresh(ctx, true, categoriesChanged)

	if p, ok := s.cache.Product(id); ok {
		return &p, nil
	}
	return s.repo.GetProduct(ctx, id)
}

// refresh re-reads the affected collections after a write. A failed
// re-fetch leaves the previous list in place; the write itself stands.
func (s *Service) refresh(ctx context.Context, products, categories bool) {
	if categories {
		if _, err := s.FetchCategories(ctx); err != nil {
			s.logger.Warn("category refresh after write failed", "error", err)
		}
	}
	if products {
		if _, err := s.FetchProducts(ctx); err != nil {
			s.logger.Warn("product refresh after write failed", "error", err)
		}
	}
}
