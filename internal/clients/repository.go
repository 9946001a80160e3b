package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// RepositoryPort defines data access for client records.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Client, int, error)
	Get(ctx context.Context, id string) (*Client, error)
	Update(ctx context.Context, id string, update UpdateInput) (*Client, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Client, error)
	Delete(ctx context.Context, id string) error
	Documents(ctx context.Context, clientID string) ([]Document, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	InvestmentTotals(ctx context.Context) (total float64, active int64, err error)
	ReferralCounts(ctx context.Context) (map[string]int64, error)
}

// UpdateInput holds mutable client fields.
type UpdateInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = "id, first_name, last_name, email, phone, status, investment_total, COALESCE(referred_by, ''), created_at, updated_at"

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Status, &c.InvestmentTotal, &c.ReferredBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns a filtered page of clients plus the unpaginated total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Client, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := "SELECT " + clientColumns + " FROM clients" + clause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]Client, 0, page.PerPage)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *c)
	}
	return list, total, rows.Err()
}

// Get fetches a single client.
func (r *Repository) Get(ctx context.Context, id string) (*Client, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id)
	return scanClient(row)
}

// Update mutates contact fields and returns the updated record.
func (r *Repository) Update(ctx context.Context, id string, update UpdateInput) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE clients SET first_name = $2, last_name = $3, phone = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+clientColumns,
		id, update.FirstName, update.LastName, update.Phone)
	return scanClient(row)
}

// UpdateStatus moves the client to a new lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) (*Client, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE clients SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+clientColumns,
		id, status)
	return scanClient(row)
}

// Delete removes the client and cascades to documents.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Documents lists document metadata for a client.
func (r *Repository) Documents(ctx context.Context, clientID string) ([]Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, name, content_type, size_bytes, uploaded_at
		 FROM client_documents WHERE client_id = $1 ORDER BY uploaded_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ClientID, &d.Name, &d.ContentType, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountByStatus aggregates client counts per lifecycle state.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := r.pool.Query(ctx, "SELECT status, COUNT(*) FROM clients GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int64)
	for rows.Next() {
		var status Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// InvestmentTotals sums invested funds across active clients.
func (r *Repository) InvestmentTotals(ctx context.Context) (float64, int64, error) {
	var total float64
	var active int64
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(investment_total), 0), COUNT(*) FROM clients WHERE status = 'active'").
		Scan(&total, &active)
	return total, active, err
}

// ReferralCounts aggregates referred clients per referrer.
func (r *Repository) ReferralCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT referred_by, COUNT(*) FROM clients
		 WHERE referred_by IS NOT NULL AND referred_by <> ''
		 GROUP BY referred_by ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var referrer string
		var count int64
		if err := rows.Scan(&referrer, &count); err != nil {
			return nil, err
		}
		counts[referrer] = count
	}
	return counts, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
