package clients

import (
	"context"
	"strings"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// Service handles client management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns a filtered page of clients with pagination metadata.
func (s *Service) List(ctx context.Context, statusFilter, search string, page, perPage int) ([]Client, shared.Pagination, error) {
	filter := ListFilter{Search: strings.TrimSpace(search), Page: page, PerPage: perPage}
	if statusFilter != "" && statusFilter != "all" {
		status, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, shared.Pagination{}, shared.Validation(err.Error())
		}
		filter.Status = status
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// Update mutates contact details.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Client, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, shared.Validation("First name and last name are required")
	}
	return s.repo.Update(ctx, id, in)
}

// UpdateStatus moves a client to a new lifecycle state.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Client, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, shared.Validation(err.Error())
	}
	return s.repo.UpdateStatus(ctx, id, parsed)
}

// Delete removes a client record.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Documents lists a client's document metadata.
func (s *Service) Documents(ctx context.Context, clientID string) ([]Document, error) {
	if _, err := s.repo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	return s.repo.Documents(ctx, clientID)
}
