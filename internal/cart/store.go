// AngelaMos | 2026
// store.go

// Package cart holds a user's shopping cart. The cart lives only in the
// per-user key/value store until checkout turns it into an order.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/storage"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Line snapshots the product as it was when first added. Price and stock are
// not refreshed from the catalog afterwards.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	notifier notify.Notifier
	lines    []Line
}

// NewStore binds a cart to userID. Call Load before reading it.
func NewStore(kv storage.KV, prefix, userID string, notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Context
	}
	return &Store{
		kv:       kv,
		key:      prefix + userID,
		notifier: notifier,
	}
}

// Load restores the persisted cart. An absent key is an empty cart.
func (s *Store) Load(ctx context.Context) error {
	var lines []Line
	if _, err := storage.GetJSON(ctx, s.kv, s.key, &lines); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// AddToCart adds one unit of p. An existing line grows only while it is
// below the product's stock; a new line always starts at one.
func (s *Store) AddToCart(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()

	i := s.indexOf(p.ID)
	if i >= 0 {
		if s.lines[i].Quantity >= p.Stock {
			s.mu.Unlock()
			s.notifier.Notify(ctx, notify.Error("Insufficient stock",
				"No more units are available."))
			return fmt.Errorf("add %s: %w", p.ID, ErrInsufficientStock)
		}
		s.lines[i].Quantity++
		s.lines[i].Stock = p.Stock
	} else {
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Stock:     p.Stock,
			ImageURL:  p.ImageURL,
			Quantity:  1,
		})
	}

	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Success("Product added", p.Name+" was added to the cart."))
	return nil
}

// UpdateQuantity sets the line's quantity; n <= 0 removes the line. The
// quantity is not checked against stock.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, n int) error {
	if n <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	s.lines[i].Quantity = n
	return s.persistLocked(ctx)
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	s.lines = slices.DeleteFunc(s.lines, func(l Line) bool {
		return l.ProductID == productID
	})
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, notify.Success("Product removed", "The product was removed from the cart."))
	return nil
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persistLocked(ctx)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) indexOf(productID string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool {
		return l.ProductID == productID
	})
}

func (s *Store) persistLocked(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	if err := storage.SetJSON(ctx, s.kv, s.key, lines); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
