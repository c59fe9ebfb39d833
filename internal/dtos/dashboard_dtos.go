package dtos

type AgentDashboard struct {
	AgentID             string  `json:"agentId"`
	ProspectsToday      int     `json:"prospectsToday"`
	ProspectsTotal      int     `json:"prospectsTotal"`
	ClientsTotal        int     `json:"clientsTotal"`
	SalesTotal          int     `json:"salesTotal"`
	CommissionTotal     float64 `json:"commissionTotal"`
	PendingRemoteLeads  int     `json:"pendingRemoteLeads"`
	UnreadNotifications int     `json:"unreadNotifications"`
	Degraded            bool    `json:"degraded"`
}

type AgentOverviewRow struct {
	AgentID         string  `json:"agentId"`
	Name            string  `json:"name"`
	ProspectsToday  int     `json:"prospectsToday"`
	ProspectsTotal  int     `json:"prospectsTotal"`
	ClientsTotal    int     `json:"clientsTotal"`
	SalesTotal      int     `json:"salesTotal"`
	CommissionTotal float64 `json:"commissionTotal"`
}

type SupervisorOverview struct {
	Agents          []AgentOverviewRow `json:"agents"`
	ProspectsToday  int                `json:"prospectsToday"`
	ProspectsTotal  int                `json:"prospectsTotal"`
	ClientsTotal    int                `json:"clientsTotal"`
	SalesTotal      int                `json:"salesTotal"`
	CommissionTotal float64            `json:"commissionTotal"`
	Degraded        bool               `json:"degraded"`
}
