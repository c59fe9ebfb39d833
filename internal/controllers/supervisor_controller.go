package controllers

import (
	"net/http"
	"time"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

// SupervisorController exposes the read-only book and the agent access
// code.
type SupervisorController struct {
	users     *services.UserService
	prospects *services.ProspectService
	clients   *services.ClientService
	sales     *services.SaleService
	dashboard *services.DashboardService
	codes     *services.AccessCodeService
	defaultTZ *time.Location
}

func NewSupervisorController(
	users *services.UserService,
	prospects *services.ProspectService,
	clients *services.ClientService,
	sales *services.SaleService,
	dashboard *services.DashboardService,
	codes *services.AccessCodeService,
	defaultTZ *time.Location,
) *SupervisorController {
	return &SupervisorController{
		users:     users,
		prospects: prospects,
		clients:   clients,
		sales:     sales,
		dashboard: dashboard,
		codes:     codes,
		defaultTZ: defaultTZ,
	}
}

// GET /api/v1/supervisor/prospects[?agentId=]
func (c *SupervisorController) ListProspectsHandler(w http.ResponseWriter, r *http.Request) {
	if agentID := r.URL.Query().Get("agentId"); agentID != "" {
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.prospects.ListProspectsByAgent(r.Context(), agentID)))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.prospects.ListProspects(r.Context())))
}

// GET /api/v1/supervisor/clients[?agentId=]
func (c *SupervisorController) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	if agentID := r.URL.Query().Get("agentId"); agentID != "" {
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.clients.ListClientsByAgent(r.Context(), agentID)))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.clients.ListClients(r.Context())))
}

// GET /api/v1/supervisor/sales[?agentId=]
func (c *SupervisorController) ListSalesHandler(w http.ResponseWriter, r *http.Request) {
	if agentID := r.URL.Query().Get("agentId"); agentID != "" {
		utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.sales.ListSalesByAgent(r.Context(), agentID)))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.sales.ListSales(r.Context())))
}

// GET /api/v1/supervisor/agents
func (c *SupervisorController) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	res := c.users.ListUsersByRole(r.Context(), models.RoleAgent)
	utils.RespondWithJSON(w, http.StatusOK, dtos.MapListResponse(res, dtos.NewUserFromModel))
}

// GET /api/v1/supervisor/overview[?tz=]
func (c *SupervisorController) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	loc, ok := location(w, r, c.defaultTZ)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.dashboard.SupervisorOverview(r.Context(), loc))
}

// GET /api/v1/supervisor/access-code
func (c *SupervisorController) GetAgentCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := c.codes.GetAccessCode(r.Context(), models.RoleAgent)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, code)
}

// POST /api/v1/supervisor/access-code/regenerate
func (c *SupervisorController) RegenerateAgentCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := c.codes.GenerateNewCode(r.Context(), models.RoleAgent)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, code)
}
