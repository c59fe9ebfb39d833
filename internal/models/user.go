// internal/models/user.go

package models

import "time"

type UserRole string

const (
	RoleAgent      UserRole = "agent"
	RoleSupervisor UserRole = "supervisor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAgent, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Includes reports whether r grants at least the access of other.
// admin > supervisor > agent.
func (r UserRole) Includes(other UserRole) bool {
	return roleRank[r] >= roleRank[other] && roleRank[other] > 0
}

var roleRank = map[UserRole]int{RoleAgent: 1, RoleSupervisor: 2, RoleAdmin: 3}

type UserStatus string

const (
	UserStatusPending   UserStatus = "PENDING"
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Phone        string     `json:"phone,omitempty"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
