package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type RemoteProspectService struct {
	store         docstore.Store
	repo          repositories.RemoteProspectRepository
	prospects     *ProspectService
	notifications *NotificationService
	ack           LeadAcknowledger
	bus           *events.Bus
	clock         Clock
}

func NewRemoteProspectService(
	store docstore.Store,
	repo repositories.RemoteProspectRepository,
	prospects *ProspectService,
	notifications *NotificationService,
	ack LeadAcknowledger,
	bus *events.Bus,
	clock Clock,
) *RemoteProspectService {
	if ack == nil {
		ack = noopNotifier{}
	}
	return &RemoteProspectService{
		store:         store,
		repo:          repo,
		prospects:     prospects,
		notifications: notifications,
		ack:           ack,
		bus:           bus,
		clock:         clock,
	}
}

func (s *RemoteProspectService) ListRemoteProspectsByAgent(ctx context.Context, agentID string) repositories.ReadResult[*models.RemoteProspect] {
	return s.repo.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
}

// AddRemoteLead stores an unverified lead from the public form.
func (s *RemoteProspectService) AddRemoteLead(ctx context.Context, req dtos.PublicProspectRequest) (*models.RemoteProspect, error) {
	dial := req.CountryCode
	if dial == "" {
		dial = utils.DefaultDialCode
	}
	lead := &models.RemoteProspect{
		AgentID:           strings.TrimSpace(req.AgentID),
		FullName:          strings.TrimSpace(req.FullName),
		Company:           strings.TrimSpace(req.Company),
		Email:             normalizeEmail(req.Email),
		Phone:             strings.TrimSpace(req.Phone),
		CountryCode:       dial,
		Country:           utils.CountryForDialCode(dial),
		City:              strings.TrimSpace(req.City),
		Source:            models.SourcePublicForm,
		ProductOfInterest: strings.TrimSpace(req.Product),
		Details:           req.Details,
		IsVerified:        false,
		CreatedAt:         s.clock.now(),
	}
	created, err := s.repo.Add(ctx, lead)
	if err != nil {
		return nil, storeError("Failed to submit lead", err)
	}
	s.bus.Publish(events.TopicRemoteLeadsChanged)

	if s.notifications != nil {
		msg := fmt.Sprintf("%s a soumis une demande pour %s.", created.FullName, created.ProductOfInterest)
		if _, err := s.notifications.Notify(ctx, created.AgentID, "Nouveau prospect à distance", msg); err != nil {
			utils.Logger.WithError(err).WithField("lead_id", created.ID).Warn("Failed to notify agent of remote lead")
		}
	}
	if err := s.ack.AcknowledgeLead(ctx, created); err != nil {
		utils.Logger.WithError(err).WithField("lead_id", created.ID).Warn("Failed to acknowledge remote lead")
	}
	return created, nil
}

// ConfirmRemoteProspect promotes the lead into a PENDING prospect and removes
// it in one transaction. A missing lead is a no-op returning nil.
func (s *RemoteProspectService) ConfirmRemoteProspect(ctx context.Context, id string) (*models.Prospect, error) {
	var prospect *models.Prospect
	err := repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		prospect = nil
		leads := s.repo.In(tx)
		lead, err := leads.Find(ctx, id)
		if err != nil || lead == nil {
			return err
		}
		prospect, err = s.prospects.insert(ctx, s.prospects.repo.In(tx), lead.ToProspect())
		if err != nil {
			return err
		}
		return leads.Delete(ctx, id)
	})
	if err != nil {
		return nil, storeError("Failed to confirm remote prospect", err)
	}
	if prospect != nil {
		s.bus.Publish(events.TopicRemoteLeadsChanged)
	}
	return prospect, nil
}

func (s *RemoteProspectService) DeleteRemoteProspect(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError("Failed to discard remote prospect", err)
	}
	s.bus.Publish(events.TopicRemoteLeadsChanged)
	return nil
}

// Owns reports whether the lead exists and belongs to agentID.
func (s *RemoteProspectService) Owns(ctx context.Context, id, agentID string) (bool, error) {
	lead, err := s.repo.Find(ctx, id)
	if err != nil {
		return false, storeError("Failed to load remote prospect", err)
	}
	return lead != nil && lead.AgentID == agentID, nil
}
