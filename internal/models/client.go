// internal/models/client.go

package models

import "time"

type ClientStatus string

const (
	ClientStatusPending       ClientStatus = "PENDING"
	ClientStatusSaleConcluded ClientStatus = "SALE_CONCLUDED"
	ClientStatusCancelled     ClientStatus = "CANCELLED"
)

type Client struct {
	ID             string       `json:"id"`
	AgentID        string       `json:"agentId"`
	ProspectID     string       `json:"prospectId"`
	FullName       string       `json:"fullName"`
	Company        string       `json:"company"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Country        string       `json:"country,omitempty"`
	Product        string       `json:"product,omitempty"`
	Status         ClientStatus `json:"status"`
	DeletionReason string       `json:"deletionReason,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	ConvertedAt    *time.Time   `json:"convertedAt,omitempty"`
}

func (c *Client) GetID() string   { return c.ID }
func (c *Client) SetID(id string) { c.ID = id }
