package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/alimagdye/product-management-api/internal/domain"
	"github.com/alimagdye/product-management-api/internal/repository"
)

// ErrNoFields is returned when a partial update carries nothing to change.
var ErrNoFields = errors.New("product: no fields provided for update")

// Service handles product CRUD scoped to the owning user.
type Service struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(products repository.ProductRepository, logger *slog.Logger) Service {
	return Service{products: products, logger: logger}
}

// CreateInput carries fields for a new product.
type CreateInput struct {
	Name        string
	Description string
	Price       float64
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *float64
}

// List returns every product the user owns.
func (s Service) List(ctx context.Context, userID string) ([]domain.Product, error) {
	products, err := s.products.ListProductsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("list products failed", "error", err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns one product the user owns; repository.ErrNotFound otherwise.
func (s Service) Get(ctx context.Context, productID, userID string) (*domain.Product, error) {
	product, err := s.products.GetProductByID(ctx, productID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("get product failed", "error", err)
		}
		return nil, err
	}
	return product, nil
}

// Create stores a new product for the user.
func (s Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		s.logger.Error("create product failed", "error", err)
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update applies a partial mutation to a product the user owns.
func (s Service) Update(ctx context.Context, productID, userID string, in UpdateInput) (*domain.Product, error) {
	if in.Name == nil && in.Description == nil && in.Price == nil {
		return nil, ErrNoFields
	}
	product, err := s.products.GetProductByID(ctx, productID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("update product fetch failed", "error", err)
		}
		return nil, err
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if err := s.products.UpdateProduct(ctx, product); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("update product failed", "error", err)
		}
		return nil, err
	}
	return product, nil
}

// Delete removes a product the user owns and returns the deleted record.
func (s Service) Delete(ctx context.Context, productID, userID string) (*domain.Product, error) {
	product, err := s.products.DeleteProduct(ctx, productID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("delete product failed", "error", err)
		}
		return nil, err
	}
	return product, nil
}
