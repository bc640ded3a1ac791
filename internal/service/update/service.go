package update

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

var (
	// ErrNoFields is returned when a partial update carries nothing to change.
	ErrNoFields = errors.New("update: no fields to update")
	// ErrNotOwner is returned when the target product is missing or belongs
	// to another user.
	ErrNotOwner = errors.New("update: product not owned or missing")
)

// Service handles changelog-update CRUD scoped through product ownership.
type Service struct {
	updates  repository.UpdateRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(updates repository.UpdateRepository, products repository.ProductRepository, logger *slog.Logger) Service {
	return Service{updates: updates, products: products, logger: logger}
}

// CreateInput carries fields for a new update.
type CreateInput struct {
	Title       string
	Body        string
	Description string
	Version     string
	AssetURL    string
	Status      string
	ProductID   string
}

// UpdateInput carries optional fields for a partial update.
type UpdateInput struct {
	Title       *string
	Body        *string
	Description *string
	Version     *string
	AssetURL    *string
	Status      *string
}

// HasFields reports whether the input changes anything.
func (in UpdateInput) HasFields() bool {
	return in.Title != nil || in.Body != nil || in.Description != nil ||
		in.Version != nil || in.AssetURL != nil || in.Status != nil
}

// List returns updates across every product the user owns.
func (s Service) List(ctx context.Context, userID string) ([]domain.Update, error) {
	updates, err := s.updates.ListUpdatesByUser(ctx, userID)
	if err != nil {
		s.logger.Error("list updates failed", "error", err)
		return nil, fmt.Errorf("list updates: %w", err)
	}
	return updates, nil
}

// Get returns one update reachable through the user's products.
func (s Service) Get(ctx context.Context, updateID, userID string) (*domain.Update, error) {
	upd, err := s.updates.GetUpdateByID(ctx, updateID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("get update failed", "error", err)
		}
		return nil, err
	}
	return upd, nil
}

// Create stores an update after verifying the caller owns the target product.
func (s Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Update, error) {
	if _, err := s.products.GetProductByID(ctx, in.ProductID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotOwner
		}
		s.logger.Error("product ownership check failed", "error", err)
		return nil, fmt.Errorf("check product ownership: %w", err)
	}

	status := in.Status
	if status == "" {
		status = domain.UpdateStatusInProgress
	}
	now := time.Now().UTC()
	upd := &domain.Update{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Body:        in.Body,
		Description: in.Description,
		Version:     in.Version,
		AssetURL:    in.AssetURL,
		Status:      status,
		ProductID:   in.ProductID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.updates.CreateUpdate(ctx, upd); err != nil {
		s.logger.Error("create update failed", "error", err)
		return nil, fmt.Errorf("create update: %w", err)
	}
	return upd, nil
}

// Update applies a partial mutation to an update reachable through the
// user's products.
func (s Service) Update(ctx context.Context, updateID, userID string, in UpdateInput) (*domain.Update, error) {
	if !in.HasFields() {
		return nil, ErrNoFields
	}
	upd, err := s.updates.GetUpdateByID(ctx, updateID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("update fetch failed", "error", err)
		}
		return nil, err
	}
	if in.Title != nil {
		upd.Title = *in.Title
	}
	if in.Body != nil {
		upd.Body = *in.Body
	}
	if in.Description != nil {
		upd.Description = *in.Description
	}
	if in.Version != nil {
		upd.Version = *in.Version
	}
	if in.AssetURL != nil {
		upd.AssetURL = *in.AssetURL
	}
	if in.Status != nil {
		upd.Status = *in.Status
	}
	if err := s.updates.UpdateUpdate(ctx, upd, userID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("update update failed", "error", err)
		}
		return nil, err
	}
	return upd, nil
}

// Delete removes an update reachable through the user's products and returns
// the deleted record.
func (s Service) Delete(ctx context.Context, updateID, userID string) (*domain.Update, error) {
	upd, err := s.updates.DeleteUpdate(ctx, updateID, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("delete update failed", "error", err)
		}
		return nil, err
	}
	return upd, nil
}
