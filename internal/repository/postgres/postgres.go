package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alimagdye/product-management-api/internal/domain"
	"github.com/alimagdye/product-management-api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ProductRepository = (*Repository)(nil)
	_ repository.UpdateRepository  = (*Repository)(nil)
)

// CreateUser inserts an account. A duplicate username or email surfaces as
// repository.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByUsername fetches an account by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`
	row := r.pool.QueryRow(ctx, query, username)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves an account by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateProduct inserts a product owned by the given user.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	const query = `INSERT INTO products (id, name, description, price, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, product.ID, product.Name, product.Description, product.Price, product.UserID, product.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// GetProductByID returns a product only when the user owns it.
func (r *Repository) GetProductByID(ctx context.Context, productID, userID string) (*domain.Product, error) {
	const query = `SELECT id, name, description, price, user_id, created_at
		FROM products WHERE id = $1 AND user_id = $2`
	row := r.pool.QueryRow(ctx, query, productID, userID)
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.UserID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProductsByUser returns every product the user owns.
func (r *Repository) ListProductsByUser(ctx context.Context, userID string) ([]domain.Product, error) {
	const query = `SELECT id, name, description, price, user_id, created_at
		FROM products WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.UserID, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct mutates a product the user owns; absent or foreign rows
// surface as repository.ErrNotFound.
func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	const query = `UPDATE products
		SET name = $3, description = $4, price = $5
		WHERE id = $1 AND user_id = $2
		RETURNING created_at`
	row := r.pool.QueryRow(ctx, query, product.ID, product.UserID, product.Name, product.Description, product.Price)
	if err := row.Scan(&product.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteProduct removes a product the user owns and returns the deleted row.
func (r *Repository) DeleteProduct(ctx context.Context, productID, userID string) (*domain.Product, error) {
	const query = `DELETE FROM products
		WHERE id = $1 AND user_id = $2
		RETURNING id, name, description, price, user_id, created_at`
	row := r.pool.QueryRow(ctx, query, productID, userID)
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.UserID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateUpdate inserts a changelog update. The caller verifies product
// ownership first; a dangling product id surfaces as repository.ErrNotFound.
func (r *Repository) CreateUpdate(ctx context.Context, update *domain.Update) error {
	const query = `INSERT INTO updates (id, title, body, description, version, asset_url, update_status, product_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		update.ID,
		update.Title,
		update.Body,
		update.Description,
		update.Version,
		emptyToNil(update.AssetURL),
		update.Status,
		update.ProductID,
		update.CreatedAt,
		update.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return repository.ErrNotFound
			case "23514", "22P02":
				return repository.ErrConflict
			}
		}
		return err
	}
	return nil
}

// GetUpdateByID returns an update only when it belongs to one of the user's
// products.
func (r *Repository) GetUpdateByID(ctx context.Context, updateID, userID string) (*domain.Update, error) {
	const query = `SELECT u.id, u.title, u.body, u.description, u.version, u.asset_url, u.update_status, u.product_id, u.created_at, u.updated_at
		FROM updates u
		INNER JOIN products p ON p.id = u.product_id
		WHERE u.id = $1 AND p.user_id = $2`
	row := r.pool.QueryRow(ctx, query, updateID, userID)
	return scanUpdate(row)
}

// ListUpdatesByUser returns updates across every product the user owns.
func (r *Repository) ListUpdatesByUser(ctx context.Context, userID string) ([]domain.Update, error) {
	const query = `SELECT u.id, u.title, u.body, u.description, u.version, u.asset_url, u.update_status, u.product_id, u.created_at, u.updated_at
		FROM updates u
		INNER JOIN products p ON p.id = u.product_id
		WHERE p.user_id = $1
		ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := make([]domain.Update, 0)
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *u)
	}
	return updates, rows.Err()
}

// UpdateUpdate mutates an update reachable through the user's products.
func (r *Repository) UpdateUpdate(ctx context.Context, update *domain.Update, userID string) error {
	const query = `UPDATE updates u
		SET title = $3, body = $4, description = $5, version = $6, asset_url = $7, update_status = $8, updated_at = NOW()
		FROM products p
		WHERE u.id = $1 AND p.id = u.product_id AND p.user_id = $2
		RETURNING u.updated_at`
	row := r.pool.QueryRow(ctx, query,
		update.ID,
		userID,
		update.Title,
		update.Body,
		update.Description,
		update.Version,
		emptyToNil(update.AssetURL),
		update.Status,
	)
	if err := row.Scan(&update.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23514" || pgErr.Code == "22P02") {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// DeleteUpdate removes an update reachable through the user's products and
// returns the deleted row.
func (r *Repository) DeleteUpdate(ctx context.Context, updateID, userID string) (*domain.Update, error) {
	const query = `DELETE FROM updates u
		USING products p
		WHERE u.id = $1 AND p.id = u.product_id AND p.user_id = $2
		RETURNING u.id, u.title, u.body, u.description, u.version, u.asset_url, u.update_status, u.product_id, u.created_at, u.updated_at`
	row := r.pool.QueryRow(ctx, query, updateID, userID)
	return scanUpdate(row)
}

func scanUpdate(row pgx.Row) (*domain.Update, error) {
	var u domain.Update
	var assetURL *string
	if err := row.Scan(&u.ID, &u.Title, &u.Body, &u.Description, &u.Version, &assetURL, &u.Status, &u.ProductID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if assetURL != nil {
		u.AssetURL = *assetURL
	}
	return &u, nil
}

func emptyToNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}
