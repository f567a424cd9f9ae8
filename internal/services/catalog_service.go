package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"shopbot/internal/models"
	"shopbot/internal/repositories"
)

// CatalogService handles business logic related to the product catalog.
type CatalogService struct {
	products repositories.ProductRepository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products repositories.ProductRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		validate: validator.New(),
		log:      log,
	}
}

// Products retrieves the whole catalog in stable order.
func (s *CatalogService) Products(ctx context.Context) ([]models.Product, error) {
	return s.products.GetAll(ctx)
}

// Product retrieves a single product, mapping a missing record to
// ErrProductUnavailable.
func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, ErrProductUnavailable)
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct validates and inserts a product. A name that already exists
// is not an error: the insert is a no-op and created == false, so the caller
// can tell the actor about the collision.
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (bool, error) {
	if err := s.validate.Struct(product); err != nil {
		return false, fmt.Errorf("invalid product: %w", err)
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info().Str("name", product.Name).Uint("id", product.ID).Msg("product created")
	} else {
		s.log.Info().Str("name", product.Name).Msg("product name already exists, insert skipped")
	}
	return created, nil
}

// DeleteProduct removes a product; its cart entries go with it via the
// foreign key cascade.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint("id", id).Msg("product deleted")
	return nil
}
