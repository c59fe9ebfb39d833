package routes

const (
	// Health & metrics
	Health  = "/health"
	Metrics = "/metrics"

	// ───────────────────────────────
	// Public (no token)
	// ───────────────────────────────
	PublicSettings   = "/api/v1/public/settings"
	PublicLogo       = "/api/v1/public/settings/logo"
	PublicProspects  = "/api/v1/public/prospects"
	PublicOnboarding = "/api/v1/public/onboarding"

	// ───────────────────────────────
	// Any authenticated role
	// ───────────────────────────────
	Me                   = "/api/v1/me"
	MePassword           = "/api/v1/me/password"
	Notifications        = "/api/v1/notifications"
	NotificationsReadAll = "/api/v1/notifications/read-all"
	NotificationsUnread  = "/api/v1/notifications/unread-count"
	Events               = "/api/v1/events"

	// ───────────────────────────────
	// Agent (relative to AgentBase)
	// ───────────────────────────────
	AgentBase            = "/api/v1/agent"
	AgentProspects       = "/prospects"
	AgentProspect        = "/prospects/{id}"
	AgentProspectConvert = "/prospects/{id}/convert"
	AgentRemoteProspects = "/remote-prospects"
	AgentRemoteProspect  = "/remote-prospects/{id}"
	AgentRemoteConfirm   = "/remote-prospects/{id}/confirm"
	AgentClients         = "/clients"
	AgentClientCancel    = "/clients/{id}/cancel"
	AgentSales           = "/sales"
	AgentCommission      = "/commission"
	AgentDashboard       = "/dashboard"

	// ───────────────────────────────
	// Supervisor (relative to SupervisorBase)
	// ───────────────────────────────
	SupervisorBase           = "/api/v1/supervisor"
	SupervisorProspects      = "/prospects"
	SupervisorClients        = "/clients"
	SupervisorSales          = "/sales"
	SupervisorAgents         = "/agents"
	SupervisorOverview       = "/overview"
	SupervisorAgentCode      = "/access-code"
	SupervisorAgentCodeRenew = "/access-code/regenerate"

	// ───────────────────────────────
	// Admin (relative to AdminBase)
	// ───────────────────────────────
	AdminBase          = "/api/v1/admin"
	AdminUsers         = "/users"
	AdminUser          = "/users/{id}"
	AdminUserStatus    = "/users/{id}/status"
	AdminSale          = "/sales/{id}"
	AdminSaleStatus    = "/sales/{id}/status"
	AdminSettings      = "/settings"
	AdminSettingsLogo  = "/settings/logo"
	AdminAccessCode    = "/access-codes/{role}"
	AdminAccessCodeNew = "/access-codes/{role}/regenerate"
)
