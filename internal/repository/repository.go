package repository

import (
	"context"

	"github.com/alimagdye/product-management-api/internal/domain"
)

// UserRepository persists accounts. CreateUser returns ErrConflict on a
// username or email collision; GetUserByUsername returns ErrNotFound when the
// account does not exist, so callers never inspect driver error codes.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ProductRepository persists products, always scoped by the owning user.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProductByID(ctx context.Context, productID, userID string) (*domain.Product, error)
	ListProductsByUser(ctx context.Context, userID string) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, productID, userID string) (*domain.Product, error)
}

// UpdateRepository persists changelog updates, scoped through product
// ownership.
type UpdateRepository interface {
	CreateUpdate(ctx context.Context, update *domain.Update) error
	GetUpdateByID(ctx context.Context, updateID, userID string) (*domain.Update, error)
	ListUpdatesByUser(ctx context.Context, userID string) ([]domain.Update, error)
	UpdateUpdate(ctx context.Context, update *domain.Update, userID string) error
	DeleteUpdate(ctx context.Context, updateID, userID string) (*domain.Update, error)
}
