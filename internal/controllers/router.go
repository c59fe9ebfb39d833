package controllers

import (
	"crypto/rsa"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aftras/crm/internal/metrics"
	"github.com/aftras/crm/internal/middleware"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/routes"
)

// Handlers bundles every controller mounted on the API router.
type Handlers struct {
	Health     *HealthController
	Public     *PublicController
	Me         *MeController
	Events     *EventsController
	Agent      *AgentController
	Supervisor *SupervisorController
	Admin      *AdminController
}

// NewRouter mounts every route. Each role gate admits the named role and
// every role above it.
func NewRouter(pub *rsa.PublicKey, h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	// Health & metrics
	router.HandleFunc(routes.Health, h.Health.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, metrics.Handler()).Methods(http.MethodGet)

	// Public
	router.HandleFunc(routes.PublicSettings, h.Public.GetSettingsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PublicLogo, h.Public.GetLogoHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PublicProspects, h.Public.SubmitProspectHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.PublicOnboarding, h.Public.RegisterHandler).Methods(http.MethodPost)

	// Protected routes (JWT middleware)
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(pub))

	secured.HandleFunc(routes.Me, h.Me.GetMeHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Me, h.Me.PatchMeHandler).Methods(http.MethodPatch)
	secured.HandleFunc(routes.MePassword, h.Me.ChangePasswordHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Notifications, h.Me.ListNotificationsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.NotificationsUnread, h.Me.UnreadCountHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.NotificationsReadAll, h.Me.MarkAllReadHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Events, h.Events.StreamHandler).Methods(http.MethodGet)

	// Agent workspace
	agent := secured.PathPrefix(routes.AgentBase).Subrouter()
	agent.Use(middleware.RequireRole(models.RoleAgent))
	agent.HandleFunc(routes.AgentProspects, h.Agent.ListProspectsHandler).Methods(http.MethodGet)
	agent.HandleFunc(routes.AgentProspects, h.Agent.CreateProspectHandler).Methods(http.MethodPost)
	agent.HandleFunc(routes.AgentProspect, h.Agent.UpdateProspectHandler).Methods(http.MethodPatch)
	agent.HandleFunc(routes.AgentProspect, h.Agent.ArchiveProspectHandler).Methods(http.MethodDelete)
	agent.HandleFunc(routes.AgentProspectConvert, h.Agent.ConvertProspectHandler).Methods(http.MethodPost)
	agent.HandleFunc(routes.AgentRemoteProspects, h.Agent.ListRemoteProspectsHandler).Methods(http.MethodGet)
	agent.HandleFunc(routes.AgentRemoteConfirm, h.Agent.ConfirmRemoteProspectHandler).Methods(http.MethodPost)
	agent.HandleFunc(routes.AgentRemoteProspect, h.Agent.DiscardRemoteProspectHandler).Methods(http.MethodDelete)
	agent.HandleFunc(routes.AgentClients, h.Agent.ListClientsHandler).Methods(http.MethodGet)
	agent.HandleFunc(routes.AgentClientCancel, h.Agent.CancelClientHandler).Methods(http.MethodPost)
	agent.HandleFunc(routes.AgentSales, h.Agent.ListSalesHandler).Methods(http.MethodGet)
	agent.HandleFunc(routes.AgentSales, h.Agent.CreateSaleHandler).Methods(http.MethodPost)
	agent.HandleFunc(routes.AgentCommission, h.Agent.CommissionHandler).Methods(http.MethodGet)
	agent.HandleFunc(routes.AgentDashboard, h.Agent.DashboardHandler).Methods(http.MethodGet)

	// Supervisor
	sup := secured.PathPrefix(routes.SupervisorBase).Subrouter()
	sup.Use(middleware.RequireRole(models.RoleSupervisor))
	sup.HandleFunc(routes.SupervisorProspects, h.Supervisor.ListProspectsHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorClients, h.Supervisor.ListClientsHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorSales, h.Supervisor.ListSalesHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorAgents, h.Supervisor.ListAgentsHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorOverview, h.Supervisor.OverviewHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorAgentCode, h.Supervisor.GetAgentCodeHandler).Methods(http.MethodGet)
	sup.HandleFunc(routes.SupervisorAgentCodeRenew, h.Supervisor.RegenerateAgentCodeHandler).Methods(http.MethodPost)

	// Admin
	admin := secured.PathPrefix(routes.AdminBase).Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc(routes.AdminUsers, h.Admin.ListUsersHandler).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminUsers, h.Admin.CreateUserHandler).Methods(http.MethodPost)
	admin.HandleFunc(routes.AdminUser, h.Admin.GetUserHandler).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminUser, h.Admin.UpdateUserHandler).Methods(http.MethodPatch)
	admin.HandleFunc(routes.AdminUser, h.Admin.DeleteUserHandler).Methods(http.MethodDelete)
	admin.HandleFunc(routes.AdminUserStatus, h.Admin.UpdateUserStatusHandler).Methods(http.MethodPatch)
	admin.HandleFunc(routes.AdminSale, h.Admin.UpdateSaleHandler).Methods(http.MethodPatch)
	admin.HandleFunc(routes.AdminSaleStatus, h.Admin.UpdateSaleStatusHandler).Methods(http.MethodPatch)
	admin.HandleFunc(routes.AdminSettings, h.Admin.UpdateSettingsHandler).Methods(http.MethodPut)
	admin.HandleFunc(routes.AdminSettingsLogo, h.Admin.UpdateLogoHandler).Methods(http.MethodPut)
	admin.HandleFunc(routes.AdminAccessCode, h.Admin.GetAccessCodeHandler).Methods(http.MethodGet)
	admin.HandleFunc(routes.AdminAccessCodeNew, h.Admin.RegenerateAccessCodeHandler).Methods(http.MethodPost)

	return router
}
