// internal/models/access_code.go

package models

import "time"

// AccessCode gates self-registration for one role. Exactly one document per
// role exists, stored under a well-known id.
type AccessCode struct {
	ID        string    `json:"id"`
	Role      UserRole  `json:"role"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *AccessCode) GetID() string   { return a.ID }
func (a *AccessCode) SetID(id string) { a.ID = id }

// Valid reports whether the code is active and unexpired at now.
func (a *AccessCode) Valid(now time.Time) bool {
	return a != nil && a.IsActive && a.Code != "" && now.Before(a.ExpiresAt)
}
