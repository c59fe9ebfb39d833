package services

import (
	"context"
	"sort"
	"time"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
)

// DashboardService computes read-only aggregates. Every read is lenient;
// Degraded is set when any of them failed.
type DashboardService struct {
	users         repositories.UserRepository
	prospects     repositories.ProspectRepository
	clients       repositories.ClientRepository
	sales         repositories.SaleRepository
	remote        repositories.RemoteProspectRepository
	notifications *NotificationService
	clock         Clock
}

func NewDashboardService(
	users repositories.UserRepository,
	prospects repositories.ProspectRepository,
	clients repositories.ClientRepository,
	sales repositories.SaleRepository,
	remote repositories.RemoteProspectRepository,
	notifications *NotificationService,
	clock Clock,
) *DashboardService {
	return &DashboardService{
		users:         users,
		prospects:     prospects,
		clients:       clients,
		sales:         sales,
		remote:        remote,
		notifications: notifications,
		clock:         clock,
	}
}

func (s *DashboardService) AgentDashboard(ctx context.Context, agentID string, loc *time.Location) dtos.AgentDashboard {
	prospects := s.prospects.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	clients := s.clients.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	sales := s.sales.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	remote := s.remote.GetByQuery(ctx, "agentId", docstore.OpEqual, agentID)
	unread, unreadDegraded := s.notifications.UnreadCount(ctx, agentID)

	return dtos.AgentDashboard{
		AgentID:             agentID,
		ProspectsToday:      countToday(prospects.Items, s.clock.now(), loc),
		ProspectsTotal:      len(prospects.Items),
		ClientsTotal:        len(clients.Items),
		SalesTotal:          len(sales.Items),
		CommissionTotal:     sumCommission(sales.Items),
		PendingRemoteLeads:  len(remote.Items),
		UnreadNotifications: unread,
		Degraded: prospects.Degraded() || clients.Degraded() || sales.Degraded() ||
			remote.Degraded() || unreadDegraded,
	}
}

// SupervisorOverview groups the whole book by agent, one row per agent
// user, sorted by name.
func (s *DashboardService) SupervisorOverview(ctx context.Context, loc *time.Location) dtos.SupervisorOverview {
	agents := s.users.GetByQuery(ctx, "role", docstore.OpEqual, models.RoleAgent)
	prospects := s.prospects.GetAll(ctx)
	clients := s.clients.GetAll(ctx)
	sales := s.sales.GetAll(ctx)
	now := s.clock.now()

	rows := make(map[string]*dtos.AgentOverviewRow, len(agents.Items))
	row := func(agentID string) *dtos.AgentOverviewRow {
		r, ok := rows[agentID]
		if !ok {
			r = &dtos.AgentOverviewRow{AgentID: agentID, Name: agentID}
			rows[agentID] = r
		}
		return r
	}
	for _, a := range agents.Items {
		row(a.ID).Name = a.FullName()
	}

	byAgent := make(map[string][]*models.Prospect)
	for _, p := range prospects.Items {
		byAgent[p.AgentID] = append(byAgent[p.AgentID], p)
	}
	for agentID, items := range byAgent {
		r := row(agentID)
		r.ProspectsTotal = len(items)
		r.ProspectsToday = countToday(items, now, loc)
	}
	for _, c := range clients.Items {
		row(c.AgentID).ClientsTotal++
	}
	for _, sale := range sales.Items {
		r := row(sale.AgentID)
		r.SalesTotal++
		r.CommissionTotal += sale.Commission
	}

	out := dtos.SupervisorOverview{
		Agents:   make([]dtos.AgentOverviewRow, 0, len(rows)),
		Degraded: agents.Degraded() || prospects.Degraded() || clients.Degraded() || sales.Degraded(),
	}
	for _, r := range rows {
		out.Agents = append(out.Agents, *r)
		out.ProspectsToday += r.ProspectsToday
		out.ProspectsTotal += r.ProspectsTotal
		out.ClientsTotal += r.ClientsTotal
		out.SalesTotal += r.SalesTotal
		out.CommissionTotal += r.CommissionTotal
	}
	sort.Slice(out.Agents, func(i, j int) bool {
		if out.Agents[i].Name == out.Agents[j].Name {
			return out.Agents[i].AgentID < out.Agents[j].AgentID
		}
		return out.Agents[i].Name < out.Agents[j].Name
	})
	return out
}
