// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront/internal/core"
)

var (
	ErrCategoryInUse     = errors.New("category has products")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategoryIfUnused(ctx context.Context, id string) error
	CategoryExists(ctx context.Context, id string) (bool, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, productID string, quantity int) error
	CountProducts(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY name ASC`

	var categories []Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

func (r *repository) GetCategoryByName(
	ctx context.Context,
	name string,
) (*Category, error) {
	query := `
		SELECT id, name, description, created_at
		FROM categories
		WHERE lower(name) = lower($1)`

	var c Category
	err := r.db.GetContext(ctx, &c, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	return &c, nil
}

func (r *repository) CreateCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &c.CreatedAt, query, c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("create category: %w", core.ClassifyPgError(err))
	}

	return nil
}

func (r *repository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("update category: %w", core.ClassifyPgError(err))
	}

	return requireRow(result, "update category")
}

// DeleteCategoryIfUnused checks for referencing products and deletes in one
// statement, so a product added concurrently cannot be orphaned.
func (r *repository) DeleteCategoryIfUnused(ctx context.Context, id string) error {
	query := `
		DELETE FROM categories c
		WHERE c.id = $1
			AND NOT EXISTS (
				SELECT 1 FROM products p WHERE p.category_id = c.id
			)`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", core.ClassifyPgError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if rows == 1 {
		return nil
	}

	exists, err := r.CategoryExists(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if exists {
		return fmt.Errorf("delete category: %w", ErrCategoryInUse)
	}

	return fmt.Errorf("delete category: %w", core.ErrNotFound)
}

func (r *repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return exists, nil
}

const productSelect = `
	SELECT
		p.id, p.name, p.description, p.price, p.stock, p.category_id,
		c.name AS category_name, p.image_url, p.featured, p.rating,
		p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	query := productSelect + `
		ORDER BY p.name ASC`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	query := productSelect + `
		WHERE p.id = $1`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func (r *repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (
			id, name, description, price, stock, category_id,
			image_url, featured, rating
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		p.ImageURL,
		p.Featured,
		p.Rating,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create product: %w", core.ClassifyPgError(err))
	}

	return nil
}

// UpdateProduct overwrites every mutable column.
func (r *repository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $2,
			description = $3,
			price = $4,
			stock = $5,
			category_id = $6,
			image_url = $7,
			featured = $8,
			rating = $9,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		p.ImageURL,
		p.Featured,
		p.Rating,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", core.ClassifyPgError(err))
	}

	return requireRow(result, "update product")
}

// DeleteProduct fails with core.ErrForeignKey while order items reference
// the product.
func (r *repository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", core.ClassifyPgError(err))
	}

	return requireRow(result, "delete product")
}

// DecrementStock is a single conditional update; stock can never go
// negative and concurrent decrements cannot be lost.
func (r *repository) DecrementStock(
	ctx context.Context,
	productID string,
	quantity int,
) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`

	result, err := r.db.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("decrement stock %s by %d: %w",
			productID, quantity, ErrInsufficientStock)
	}

	return nil
}

func (r *repository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
