package services

import (
	"context"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
)

type ClientService struct {
	repo repositories.ClientRepository
}

func NewClientService(repo repositories.ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

func (s *ClientService) ListClients(ctx context.Context) repositories.ReadResult[*models.Client] {
	return s.repo.GetAll(ctx)
}

func (s *ClientService) ListClientsByAgent(ctx context.Context, agentID string) repositories.ReadResult[*models.Client] {
	return s.repo.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
}

func (s *ClientService) GetClient(ctx context.Context, id string) repositories.Lookup[*models.Client] {
	return s.repo.GetByID(ctx, id)
}

// DeleteClient cancels the client and records why.
func (s *ClientService) DeleteClient(ctx context.Context, id, reason string) error {
	err := s.repo.Update(ctx, id, docstore.Fields{
		"status":         models.ClientStatusCancelled,
		"deletionReason": reason,
	})
	if err != nil {
		return storeError("Failed to cancel client", err)
	}
	return nil
}
