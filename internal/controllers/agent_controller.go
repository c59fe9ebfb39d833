package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

// AgentController serves the agent workspace. Every handler is scoped to
// the token subject.
type AgentController struct {
	prospects *services.ProspectService
	remote    *services.RemoteProspectService
	clients   *services.ClientService
	sales     *services.SaleService
	dashboard *services.DashboardService
	defaultTZ *time.Location
	validate  *validator.Validate
}

func NewAgentController(
	prospects *services.ProspectService,
	remote *services.RemoteProspectService,
	clients *services.ClientService,
	sales *services.SaleService,
	dashboard *services.DashboardService,
	defaultTZ *time.Location,
) *AgentController {
	return &AgentController{
		prospects: prospects,
		remote:    remote,
		clients:   clients,
		sales:     sales,
		dashboard: dashboard,
		defaultTZ: defaultTZ,
		validate:  validator.New(),
	}
}

func prospectOwner(p *models.Prospect) string { return p.AgentID }
func clientOwner(c *models.Client) string     { return c.AgentID }

// GET /api/v1/agent/prospects
func (c *AgentController) ListProspectsHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.prospects.ListProspectsByAgent(r.Context(), agentID)))
}

// POST /api/v1/agent/prospects
func (c *AgentController) CreateProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req dtos.CreateProspectRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	p, err := c.prospects.AddProspect(r.Context(), agentID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

// PATCH /api/v1/agent/prospects/{id}
func (c *AgentController) UpdateProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if _, ok := owned(w, c.prospects.GetProspect(r.Context(), id), prospectOwner, agentID); !ok {
		return
	}
	var req dtos.UpdateProspectRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	if err := c.prospects.UpdateProspect(r.Context(), id, req); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Prospect updated", ID: id})
}

// DELETE /api/v1/agent/prospects/{id}
// The body is optional and may carry an archive reason.
func (c *AgentController) ArchiveProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if _, ok := owned(w, c.prospects.GetProspect(r.Context(), id), prospectOwner, agentID); !ok {
		return
	}
	var req dtos.ArchiveProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", validationDetails(err), err)
		return
	}
	if err := c.prospects.DeleteProspect(r.Context(), id, req.Reason); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Prospect archived", ID: id})
}

// POST /api/v1/agent/prospects/{id}/convert
func (c *AgentController) ConvertProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if _, ok := owned(w, c.prospects.GetProspect(r.Context(), id), prospectOwner, agentID); !ok {
		return
	}
	client, err := c.prospects.ConvertToClient(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if client == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Prospect already converted", ID: id})
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, client)
}

// GET /api/v1/agent/remote-prospects
func (c *AgentController) ListRemoteProspectsHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.remote.ListRemoteProspectsByAgent(r.Context(), agentID)))
}

func (c *AgentController) requireRemoteOwner(w http.ResponseWriter, r *http.Request, agentID, id string) bool {
	mine, err := c.remote.Owns(r.Context(), id, agentID)
	if err != nil {
		utils.HandleAppError(w, err)
		return false
	}
	if !mine {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Record not found", nil)
		return false
	}
	return true
}

// POST /api/v1/agent/remote-prospects/{id}/confirm
func (c *AgentController) ConfirmRemoteProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if !c.requireRemoteOwner(w, r, agentID, id) {
		return
	}
	p, err := c.remote.ConfirmRemoteProspect(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if p == nil {
		utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Lead already handled", ID: id})
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

// DELETE /api/v1/agent/remote-prospects/{id}
func (c *AgentController) DiscardRemoteProspectHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if !c.requireRemoteOwner(w, r, agentID, id) {
		return
	}
	if err := c.remote.DeleteRemoteProspect(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Lead discarded", ID: id})
}

// GET /api/v1/agent/clients
func (c *AgentController) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.clients.ListClientsByAgent(r.Context(), agentID)))
}

// POST /api/v1/agent/clients/{id}/cancel
func (c *AgentController) CancelClientHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	id := pathID(r)
	if _, ok := owned(w, c.clients.GetClient(r.Context(), id), clientOwner, agentID); !ok {
		return
	}
	var req dtos.CancelClientRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	if err := c.clients.DeleteClient(r.Context(), id, req.Reason); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Client cancelled", ID: id})
}

// GET /api/v1/agent/sales
func (c *AgentController) ListSalesHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.sales.ListSalesByAgent(r.Context(), agentID)))
}

// POST /api/v1/agent/sales
func (c *AgentController) CreateSaleHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req dtos.CreateSaleRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	sale, err := c.sales.AddSale(r.Context(), agentID, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sale)
}

// GET /api/v1/agent/commission
func (c *AgentController) CommissionHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	total, degraded := c.sales.AgentCommissionTotal(r.Context(), agentID)
	if degraded {
		w.Header().Set("X-Degraded-Read", "true")
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CommissionResponse{AgentID: agentID, Total: total})
}

// GET /api/v1/agent/dashboard[?tz=Africa/Abidjan]
func (c *AgentController) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}
	loc, ok := location(w, r, c.defaultTZ)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.dashboard.AgentDashboard(r.Context(), agentID, loc))
}
