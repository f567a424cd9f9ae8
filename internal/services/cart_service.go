package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"shopbot/internal/models"
	"shopbot/internal/repositories"
)

// CartEntry is one cart row resolved against the catalog, ready for
// rendering.
type CartEntry struct {
	CartItemID uint
	Product    models.Product
}

// CartService handles cart mutation for shoppers.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	users    repositories.UserRepository
	log      zerolog.Logger
}

// NewCartService creates a new CartService.
func NewCartService(
	carts repositories.CartRepository,
	products repositories.ProductRepository,
	users repositories.UserRepository,
	log zerolog.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		users:    users,
		log:      log,
	}
}

// EnsureUser registers the shopper on first contact; repeated calls are
// no-ops.
func (s *CartService) EnsureUser(ctx context.Context, chatID int64, name string) error {
	return s.users.Upsert(ctx, &models.User{ChatID: chatID, Name: name})
}

// AddToCart puts a product into the user's cart after checking it still
// exists. Adding a product that is already in the cart reports added ==
// false instead of growing the cart.
func (s *CartService) AddToCart(ctx context.Context, chatID int64, productID uint) (bool, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, fmt.Errorf("product %d: %w", productID, ErrProductUnavailable)
		}
		return false, err
	}

	added, err := s.carts.Add(ctx, &models.CartItem{UserChatID: chatID, ProductID: productID})
	if err != nil {
		return false, err
	}
	if added {
		s.log.Info().Int64("chat_id", chatID).Uint("product_id", productID).Msg("product added to cart")
	}
	return added, nil
}

// RemoveItem deletes one cart entry by its own identifier.
func (s *CartService) RemoveItem(ctx context.Context, cartItemID uint) error {
	return s.carts.Remove(ctx, cartItemID)
}

// Entries reads the user's cart fresh and resolves every product. A cart row
// whose product cannot be resolved fails the whole read; the cascade makes
// that a storage-level anomaly rather than an expected state.
func (s *CartService) Entries(ctx context.Context, chatID int64) ([]CartEntry, error) {
	items, err := s.carts.GetByUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	entries := make([]CartEntry, 0, len(items))
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("cart item %d references product %d: %w",
					item.ID, item.ProductID, ErrProductUnavailable)
			}
			return nil, err
		}
		entries = append(entries, CartEntry{CartItemID: item.ID, Product: *product})
	}
	return entries, nil
}
