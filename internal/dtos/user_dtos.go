// internal/dtos/user_dtos.go
package dtos

import (
	"time"

	"github.com/aftras/crm/internal/models"
)

// User is the public view of a user; the password hash never leaves the
// service.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Phone     string            `json:"phone,omitempty"`
	Role      models.UserRole   `json:"role"`
	Status    models.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

func NewUserFromModel(u *models.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

type CreateUserRequest struct {
	// ID lets the caller reuse an identity-provider subject as the user id.
	ID        string            `json:"id,omitempty" validate:"omitempty,max=128"`
	Email     string            `json:"email" validate:"required,email"`
	FirstName string            `json:"firstName" validate:"required,min=1,max=80"`
	LastName  string            `json:"lastName" validate:"required,min=1,max=80"`
	Phone     string            `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role      models.UserRole   `json:"role" validate:"required,oneof=agent supervisor admin"`
	Status    models.UserStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING ACTIVE SUSPENDED"`
	Password  string            `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=80"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=80"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=PENDING ACTIVE SUSPENDED"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type RegisterRequest struct {
	Role      models.UserRole `json:"role" validate:"required,oneof=agent supervisor"`
	Code      string          `json:"code" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	FirstName string          `json:"firstName" validate:"required,min=1,max=80"`
	LastName  string          `json:"lastName" validate:"required,min=1,max=80"`
	Phone     string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Password  string          `json:"password" validate:"required,min=8,max=128"`
}
