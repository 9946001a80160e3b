package comms

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// RepositoryPort defines data access for communications.
type RepositoryPort interface {
	Create(ctx context.Context, c *Communication) error
	List(ctx context.Context) ([]Communication, error)
	Get(ctx context.Context, id string) (*Communication, error)
	MarkSent(ctx context.Context, id string, recipientCount int, sentAt time.Time) error
	RecipientEmails(ctx context.Context, audience Audience) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const commColumns = "id, kind, subject, content, audience, status, recipient_count, created_by, created_at, sent_at"

func scanComm(row pgx.Row) (*Communication, error) {
	var c Communication
	err := row.Scan(&c.ID, &c.Kind, &c.Subject, &c.Content, &c.Audience, &c.Status, &c.RecipientCount, &c.CreatedBy, &c.CreatedAt, &c.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create persists a draft communication.
func (r *Repository) Create(ctx context.Context, c *Communication) error {
	c.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO communications (id, kind, subject, content, audience, status, recipient_count, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Kind, c.Subject, c.Content, c.Audience, c.Status, c.RecipientCount, c.CreatedBy, c.CreatedAt)
	return err
}

// List returns communications, newest first.
func (r *Repository) List(ctx context.Context) ([]Communication, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+commColumns+" FROM communications ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Communication, 0)
	for rows.Next() {
		c, err := scanComm(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Get fetches one communication.
func (r *Repository) Get(ctx context.Context, id string) (*Communication, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+commColumns+" FROM communications WHERE id = $1", id)
	return scanComm(row)
}

// MarkSent flips the status after the fan-out has been enqueued.
func (r *Repository) MarkSent(ctx context.Context, id string, recipientCount int, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE communications SET status = $2, recipient_count = $3, sent_at = $4 WHERE id = $1`,
		id, StatusSent, recipientCount, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecipientEmails resolves the audience selector to client emails.
func (r *Repository) RecipientEmails(ctx context.Context, audience Audience) ([]string, error) {
	query := "SELECT email FROM clients"
	if audience == AudienceActive {
		query += " WHERE status = 'active'"
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
