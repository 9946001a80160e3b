package comms

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// Mailer delivers one email, typically by enqueueing a background task.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Service handles mass-communication business logic.
type Service struct {
	repo   RepositoryPort
	mailer Mailer
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mailer: mailer, logger: logger}
}

// CreateInput holds draft fields.
type CreateInput struct {
	Kind      string
	Subject   string
	Content   string
	Audience  string
	CreatedBy string
}

// Create validates and persists a draft communication.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Communication, error) {
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return nil, shared.Validation(err.Error())
	}
	audience, err := ParseAudience(in.Audience)
	if err != nil {
		return nil, shared.Validation(err.Error())
	}
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, shared.Validation("Subject and content are required")
	}

	comm := &Communication{
		ID:        uuid.NewString(),
		Kind:      kind,
		Subject:   strings.TrimSpace(in.Subject),
		Content:   in.Content,
		Audience:  audience,
		Status:    StatusDraft,
		CreatedBy: in.CreatedBy,
	}
	if err := s.repo.Create(ctx, comm); err != nil {
		return nil, err
	}
	return comm, nil
}

// List returns all communications.
func (s *Service) List(ctx context.Context) ([]Communication, error) {
	return s.repo.List(ctx)
}

// Send fans a draft out to its audience through the mailer and marks it
// sent. A communication is sent at most once.
func (s *Service) Send(ctx context.Context, id string) (*Communication, error) {
	comm, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comm.Status == StatusSent {
		return nil, shared.Validation("Communication has already been sent")
	}

	emails, err := s.repo.RecipientEmails(ctx, comm.Audience)
	if err != nil {
		return nil, err
	}

	sent := 0
	for _, email := range emails {
		if err := s.mailer.SendEmail(ctx, email, comm.Subject, comm.Content); err != nil {
			// Keep fanning out; a single enqueue failure should not abort
			// the whole batch.
			s.logger.Error("enqueue communication email", slog.String("to", email), slog.Any("error", err))
			continue
		}
		sent++
	}

	now := time.Now().UTC()
	if err := s.repo.MarkSent(ctx, comm.ID, sent, now); err != nil {
		return nil, err
	}
	comm.Status = StatusSent
	comm.RecipientCount = sent
	comm.SentAt = &now
	return comm, nil
}
