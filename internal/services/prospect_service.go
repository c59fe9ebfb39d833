package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type ProspectService struct {
	store   docstore.Store
	repo    repositories.ProspectRepository
	clients repositories.ClientRepository
	clock   Clock
}

func NewProspectService(
	store docstore.Store,
	repo repositories.ProspectRepository,
	clients repositories.ClientRepository,
	clock Clock,
) *ProspectService {
	return &ProspectService{store: store, repo: repo, clients: clients, clock: clock}
}

func (s *ProspectService) ListProspects(ctx context.Context) repositories.ReadResult[*models.Prospect] {
	return s.repo.GetAll(ctx)
}

func (s *ProspectService) ListProspectsByAgent(ctx context.Context, agentID string) repositories.ReadResult[*models.Prospect] {
	return s.repo.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
}

func (s *ProspectService) GetProspect(ctx context.Context, id string) repositories.Lookup[*models.Prospect] {
	return s.repo.GetByID(ctx, id)
}

// AddProspect stores a new PENDING prospect owned by agentID.
func (s *ProspectService) AddProspect(ctx context.Context, agentID string, req dtos.CreateProspectRequest) (*models.Prospect, error) {
	p := &models.Prospect{
		AgentID:           agentID,
		FullName:          strings.TrimSpace(req.FullName),
		Company:           strings.TrimSpace(req.Company),
		Email:             normalizeEmail(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		CountryCode:       req.CountryCode,
		Country:           req.Country,
		City:              strings.TrimSpace(req.City),
		Source:            req.Source,
		ProductOfInterest: strings.TrimSpace(req.ProductOfInterest),
		Details:           req.Details,
	}
	if p.Country == "" && p.CountryCode != "" {
		p.Country = utils.CountryForDialCode(p.CountryCode)
	}
	return s.insert(ctx, s.repo, p)
}

func (s *ProspectService) insert(ctx context.Context, repo repositories.ProspectRepository, p *models.Prospect) (*models.Prospect, error) {
	p.Status = models.ProspectStatusPending
	p.CreatedAt = s.clock.now()
	created, err := repo.Add(ctx, p)
	if err != nil {
		return nil, storeError("Failed to create prospect", err)
	}
	return created, nil
}

func (s *ProspectService) UpdateProspect(ctx context.Context, id string, req dtos.UpdateProspectRequest) error {
	fields := docstore.Fields{}
	setIf := func(key string, v *string) {
		if v != nil {
			fields[key] = strings.TrimSpace(*v)
		}
	}
	setIf("fullName", req.FullName)
	setIf("company", req.Company)
	setIf("phone", req.Phone)
	setIf("country", req.Country)
	setIf("city", req.City)
	setIf("productOfInterest", req.ProductOfInterest)
	setIf("details", req.Details)
	if req.Email != nil {
		fields["email"] = normalizeEmail(*req.Email)
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return nil
	}
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		prospects := s.repo.In(tx)
		if req.Status != nil {
			p, err := prospects.Find(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				return docstore.ErrNotFound
			}
			if p.Status == models.ProspectStatusConverted && *req.Status != models.ProspectStatusConverted {
				return &utils.AppError{
					StatusCode: http.StatusConflict,
					Code:       utils.ErrCodeConflict,
					Message:    "A converted prospect keeps its status",
					Err:        utils.ErrProspectConverted,
				}
			}
		}
		return prospects.Update(ctx, id, fields)
	})
	if err != nil {
		return storeError("Failed to update prospect", err)
	}
	return nil
}

// DeleteProspect archives the prospect; prospects are never removed.
func (s *ProspectService) DeleteProspect(ctx context.Context, id, reason string) error {
	fields := docstore.Fields{"status": models.ProspectStatusArchived}
	if reason != "" {
		fields["archiveReason"] = reason
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return storeError("Failed to archive prospect", err)
	}
	return nil
}

// ConvertToClient marks the prospect CONVERTED and creates its client in
// one transaction. A missing prospect, or one that already has a client, is
// a no-op and returns nil.
func (s *ProspectService) ConvertToClient(ctx context.Context, id string) (*models.Client, error) {
	var client *models.Client
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		client = nil
		prospects := s.repo.In(tx)
		p, err := prospects.Find(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || p.Status == models.ProspectStatusConverted {
			return nil
		}
		existing, err := s.clients.In(tx).Where(ctx, "prospectId", docstore.OpEqual, id)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		now := s.clock.now()
		if err := prospects.Update(ctx, id, docstore.Fields{
			"status":      models.ProspectStatusConverted,
			"convertedAt": now,
		}); err != nil {
			return err
		}
		client, err = s.clients.In(tx).Add(ctx, &models.Client{
			AgentID:     p.AgentID,
			ProspectID:  p.ID,
			FullName:    p.FullName,
			Company:     p.Company,
			Email:       p.Email,
			Phone:       p.Phone,
			Country:     p.Country,
			Product:     p.ProductOfInterest,
			Status:      models.ClientStatusPending,
			CreatedAt:   now,
			ConvertedAt: &now,
		})
		return err
	})
	if err != nil {
		return nil, storeError("Failed to convert prospect", err)
	}
	return client, nil
}

// CountProspectsTodayByAgent counts the agent's prospects created within the
// current local day of loc. The boolean reports a degraded read.
func (s *ProspectService) CountProspectsTodayByAgent(ctx context.Context, agentID string, loc *time.Location) (int, bool) {
	res := s.ListProspectsByAgent(ctx, agentID)
	return countToday(res.Items, s.clock.now(), loc), res.Degraded()
}

func countToday(items []*models.Prospect, now time.Time, loc *time.Location) int {
	start, end := DayWindow(now, loc)
	n := 0
	for _, p := range items {
		if inWindow(p.CreatedAt, start, end) {
			n++
		}
	}
	return n
}
