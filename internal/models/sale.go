// internal/models/sale.go

package models

import "time"

type SaleStatus string

const (
	SaleStatusPending SaleStatus = "PENDING"
	SaleStatusPaid    SaleStatus = "PAID"
)

func (s SaleStatus) Valid() bool {
	return s == SaleStatusPending || s == SaleStatusPaid
}

type Sale struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	AgentID    string     `json:"agentId"`
	Product    string     `json:"product,omitempty"`
	Amount     float64    `json:"amount"`
	Commission float64    `json:"commission"`
	Status     SaleStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
}

func (s *Sale) GetID() string   { return s.ID }
func (s *Sale) SetID(id string) { s.ID = id }

// UnknownClientName labels sales whose client cannot be resolved.
const UnknownClientName = "Client Inconnu"

// SaleWithClient is a sale joined with its client's display name.
type SaleWithClient struct {
	Sale
	ClientName string `json:"clientName"`
}
