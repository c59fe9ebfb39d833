package models

import "time"

// SourcePublicForm tags leads submitted through the public web form.
const SourcePublicForm = "Formulaire Web Public"

// RemoteProspect is an unverified lead waiting for its agent to confirm it.
type RemoteProspect struct {
	ID                string    `json:"id"`
	AgentID           string    `json:"agentId"`
	FullName          string    `json:"fullName"`
	Company           string    `json:"company,omitempty"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	CountryCode       string    `json:"countryCode,omitempty"`
	Country           string    `json:"country,omitempty"`
	City              string    `json:"city,omitempty"`
	Source            string    `json:"source,omitempty"`
	ProductOfInterest string    `json:"productOfInterest,omitempty"`
	Details           string    `json:"details,omitempty"`
	IsVerified        bool      `json:"isVerified"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (r *RemoteProspect) GetID() string   { return r.ID }
func (r *RemoteProspect) SetID(id string) { r.ID = id }

// ToProspect copies the lead's contact fields into a new prospect. The
// verification flag does not carry over.
func (r *RemoteProspect) ToProspect() *Prospect {
	return &Prospect{
		AgentID:           r.AgentID,
		FullName:          r.FullName,
		Company:           r.Company,
		Email:             r.Email,
		Phone:             r.Phone,
		CountryCode:       r.CountryCode,
		Country:           r.Country,
		City:              r.City,
		Source:            r.Source,
		ProductOfInterest: r.ProductOfInterest,
		Details:           r.Details,
	}
}
