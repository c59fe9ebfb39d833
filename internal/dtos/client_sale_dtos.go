package dtos

import "github.com/aftras/crm/internal/models"

type CancelClientRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type CreateSaleRequest struct {
	ClientID   string            `json:"clientId" validate:"required"`
	Product    string            `json:"product,omitempty" validate:"max=200"`
	Amount     float64           `json:"amount" validate:"gte=0"`
	Commission float64           `json:"commission" validate:"gte=0"`
	Status     models.SaleStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING PAID"`
}

type UpdateSaleRequest struct {
	Product    *string  `json:"product,omitempty" validate:"omitempty,max=200"`
	Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Commission *float64 `json:"commission,omitempty" validate:"omitempty,gte=0"`
}

type UpdateSaleStatusRequest struct {
	Status models.SaleStatus `json:"status" validate:"required,oneof=PENDING PAID"`
}

type CommissionResponse struct {
	AgentID string  `json:"agentId"`
	Total   float64 `json:"total"`
}
