// internal/models/prospect.go

package models

import "time"

type ProspectStatus string

const (
	ProspectStatusPending   ProspectStatus = "PENDING"
	ProspectStatusContacted ProspectStatus = "CONTACTED"
	ProspectStatusConverted ProspectStatus = "CONVERTED"
	ProspectStatusLost      ProspectStatus = "LOST"
	ProspectStatusArchived  ProspectStatus = "ARCHIVED"
)

type Prospect struct {
	ID                string         `json:"id"`
	AgentID           string         `json:"agentId"`
	FullName          string         `json:"fullName"`
	Company           string         `json:"company,omitempty"`
	Email             string         `json:"email"`
	Phone             string         `json:"phone"`
	CountryCode       string         `json:"countryCode,omitempty"`
	Country           string         `json:"country,omitempty"`
	City              string         `json:"city,omitempty"`
	Source            string         `json:"source,omitempty"`
	ProductOfInterest string         `json:"productOfInterest,omitempty"`
	Details           string         `json:"details,omitempty"`
	Status            ProspectStatus `json:"status"`
	ArchiveReason     string         `json:"archiveReason,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	ConvertedAt       *time.Time     `json:"convertedAt,omitempty"`
}

func (p *Prospect) GetID() string   { return p.ID }
func (p *Prospect) SetID(id string) { p.ID = id }
