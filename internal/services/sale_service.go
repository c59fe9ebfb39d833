package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type SaleService struct {
	store         docstore.Store
	repo          repositories.SaleRepository
	clients       repositories.ClientRepository
	notifications *NotificationService
	clock         Clock
}

func NewSaleService(
	store docstore.Store,
	repo repositories.SaleRepository,
	clients repositories.ClientRepository,
	notifications *NotificationService,
	clock Clock,
) *SaleService {
	return &SaleService{store: store, repo: repo, clients: clients, notifications: notifications, clock: clock}
}

func (s *SaleService) ListSales(ctx context.Context) repositories.ReadResult[*models.Sale] {
	return s.repo.GetAll(ctx)
}

// ListSalesByAgent joins each sale with the name of one of the agent's own
// clients.
func (s *SaleService) ListSalesByAgent(ctx context.Context, agentID string) repositories.ReadResult[*models.SaleWithClient] {
	sales := s.repo.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	clients := s.clients.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)

	names := make(map[string]string, len(clients.Items))
	for _, c := range clients.Items {
		names[c.ID] = c.FullName
	}
	out := make([]*models.SaleWithClient, 0, len(sales.Items))
	for _, sale := range sales.Items {
		name := names[sale.ClientID]
		if name == "" {
			name = models.UnknownClientName
		}
		out = append(out, &models.SaleWithClient{Sale: *sale, ClientName: name})
	}
	err := sales.Err
	if err == nil {
		err = clients.Err
	}
	return repositories.ReadResult[*models.SaleWithClient]{Items: out, Err: err}
}

// AddSale records a sale for an existing client and moves that client to
// SALE_CONCLUDED in the same transaction. A non-empty agentID must own the
// client.
func (s *SaleService) AddSale(ctx context.Context, agentID string, req dtos.CreateSaleRequest) (*models.Sale, error) {
	var sale *models.Sale
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		sale = nil
		clients := s.clients.In(tx)
		client, err := clients.Find(ctx, req.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return utils.NotFound("Client not found")
		}
		if agentID != "" && client.AgentID != agentID {
			return &utils.AppError{StatusCode: http.StatusForbidden, Code: utils.ErrCodeForbidden, Message: "Client belongs to another agent"}
		}

		status := req.Status
		if status == "" {
			status = models.SaleStatusPending
		}
		now := s.clock.now()
		candidate := &models.Sale{
			ClientID:   client.ID,
			AgentID:    client.AgentID,
			Product:    req.Product,
			Amount:     req.Amount,
			Commission: req.Commission,
			Status:     status,
			CreatedAt:  now,
		}
		if status == models.SaleStatusPaid {
			candidate.PaidAt = &now
		}
		if candidate.Product == "" {
			candidate.Product = client.Product
		}
		sale, err = s.repo.In(tx).Add(ctx, candidate)
		if err != nil {
			return err
		}
		return clients.Update(ctx, client.ID, docstore.Fields{"status": models.ClientStatusSaleConcluded})
	})
	if err != nil {
		return nil, storeError("Failed to record sale", err)
	}

	if s.notifications != nil {
		msg := fmt.Sprintf("Une vente de %.0f a été enregistrée (commission %.0f).", sale.Amount, sale.Commission)
		if _, nErr := s.notifications.Notify(ctx, sale.AgentID, "Nouvelle vente", msg); nErr != nil {
			utils.Logger.WithError(nErr).WithField("sale_id", sale.ID).Warn("Failed to notify agent of sale")
		}
	}
	return sale, nil
}

func (s *SaleService) UpdateSale(ctx context.Context, id string, req dtos.UpdateSaleRequest) error {
	fields := docstore.Fields{}
	if req.Product != nil {
		fields["product"] = *req.Product
	}
	if req.Amount != nil {
		fields["amount"] = *req.Amount
	}
	if req.Commission != nil {
		fields["commission"] = *req.Commission
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return storeError("Failed to update sale", err)
	}
	return nil
}

// UpdateSaleStatus sets the status; PAID also stamps paidAt.
func (s *SaleService) UpdateSaleStatus(ctx context.Context, id string, status models.SaleStatus) error {
	if !status.Valid() {
		return utils.BadRequest(utils.ErrCodeValidation, "Unknown sale status", nil)
	}
	fields := docstore.Fields{"status": status}
	if status == models.SaleStatusPaid {
		fields["paidAt"] = s.clock.now()
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return storeError("Failed to update sale status", err)
	}
	return nil
}

// AgentCommissionTotal sums commission over the agent's sales; 0 when there
// are none. The boolean reports a degraded read.
func (s *SaleService) AgentCommissionTotal(ctx context.Context, agentID string) (float64, bool) {
	res := s.repo.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	return sumCommission(res.Items), res.Degraded()
}

func sumCommission(sales []*models.Sale) float64 {
	total := 0.0
	for _, sale := range sales {
		total += sale.Commission
	}
	return total
}
