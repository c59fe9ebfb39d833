// internal/dtos/prospect_dtos.go
package dtos

import "github.com/aftras/crm/internal/models"

type CreateProspectRequest struct {
	FullName          string `json:"fullName" validate:"required,min=2,max=120"`
	Company           string `json:"company,omitempty" validate:"max=120"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required,min=4,max=32"`
	CountryCode       string `json:"countryCode,omitempty" validate:"omitempty,startswith=+,max=5"`
	Country           string `json:"country,omitempty" validate:"max=80"`
	City              string `json:"city,omitempty" validate:"max=80"`
	Source            string `json:"source,omitempty" validate:"max=80"`
	ProductOfInterest string `json:"productOfInterest,omitempty" validate:"max=200"`
	Details           string `json:"details,omitempty" validate:"max=4000"`
}

type UpdateProspectRequest struct {
	FullName          *string                `json:"fullName,omitempty" validate:"omitempty,min=2,max=120"`
	Company           *string                `json:"company,omitempty" validate:"omitempty,max=120"`
	Email             *string                `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string                `json:"phone,omitempty" validate:"omitempty,min=4,max=32"`
	Country           *string                `json:"country,omitempty" validate:"omitempty,max=80"`
	City              *string                `json:"city,omitempty" validate:"omitempty,max=80"`
	ProductOfInterest *string                `json:"productOfInterest,omitempty" validate:"omitempty,max=200"`
	Details           *string                `json:"details,omitempty" validate:"omitempty,max=4000"`
	Status            *models.ProspectStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING CONTACTED LOST"`
}

type ArchiveProspectRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// PublicProspectRequest is the anonymous lead form. Country is derived from
// the dial code.
type PublicProspectRequest struct {
	AgentID     string `json:"agentId" validate:"required,max=128"`
	FullName    string `json:"fullName" validate:"required,min=2,max=120"`
	Company     string `json:"company,omitempty" validate:"max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,min=4,max=32"`
	CountryCode string `json:"countryCode,omitempty" validate:"omitempty,startswith=+,max=5"`
	City        string `json:"city" validate:"required,max=80"`
	Product     string `json:"product" validate:"required,max=200"`
	Details     string `json:"details,omitempty" validate:"max=4000"`
}
