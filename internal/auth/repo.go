package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// Repository defines persistence operations for admin identities.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	FindByID(ctx context.Context, id string) (*Admin, error)
	Create(ctx context.Context, admin *Admin) error
	Count(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, id, firstName, lastName string) (*Admin, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// PermissionsByID returns the identity's current role and permission
	// set. The permission gate calls this on every request so grants and
	// revocations take effect without waiting for re-login.
	PermissionsByID(ctx context.Context, id string) (Role, []string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const adminColumns = "id, email, password_hash, first_name, last_name, role, permissions, created_at, updated_at"

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Role, &a.Permissions, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByEmail fetches an admin by normalized email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+adminColumns+" FROM admins WHERE email = $1", email)
	return scanAdmin(row)
}

// FindByID fetches an admin by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = $1", id)
	return scanAdmin(row)
}

// Create persists a new admin. A unique violation on the email column maps
// to shared.ErrDuplicateEmail.
func (r *PGRepository) Create(ctx context.Context, admin *Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (id, email, password_hash, first_name, last_name, role, permissions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.FirstName, admin.LastName, admin.Role, admin.Permissions, admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Count returns the number of admin records.
func (r *PGRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateProfile updates display attributes and returns the updated record.
func (r *PGRepository) UpdateProfile(ctx context.Context, id, firstName, lastName string) (*Admin, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE admins SET first_name = $2, last_name = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+adminColumns,
		id, firstName, lastName)
	return scanAdmin(row)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE admins SET password_hash = $2, updated_at = now() WHERE id = $1", id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PermissionsByID fetches the current role and permission set.
func (r *PGRepository) PermissionsByID(ctx context.Context, id string) (Role, []string, error) {
	var role Role
	var perms []string
	err := r.pool.QueryRow(ctx, "SELECT role, permissions FROM admins WHERE id = $1", id).Scan(&role, &perms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, shared.ErrNotFound
		}
		return "", nil, err
	}
	return role, perms, nil
}

var _ Repository = (*PGRepository)(nil)
