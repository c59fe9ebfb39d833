package services

import (
	"context"
	"fmt"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/utils"
)

// OnboardingService registers agents and supervisors who hold the role's
// current access code.
type OnboardingService struct {
	codes         *AccessCodeService
	users         *UserService
	notifications *NotificationService
}

func NewOnboardingService(codes *AccessCodeService, users *UserService, notifications *NotificationService) *OnboardingService {
	return &OnboardingService{codes: codes, users: users, notifications: notifications}
}

// Register creates a PENDING user with the code's role. Admins are told
// about it so they can activate the account.
func (s *OnboardingService) Register(ctx context.Context, req dtos.RegisterRequest) (*models.User, error) {
	ok, err := s.codes.ValidateCode(ctx, req.Role, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.BadRequest(utils.ErrCodeInvalidAccessCode, "Invalid or expired access code", utils.ErrInvalidAccessCode)
	}

	user, err := s.users.AddUser(ctx, dtos.CreateUserRequest{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		Status:    models.UserStatusPending,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		msg := fmt.Sprintf("%s (%s) s'est inscrit en tant que %s.", user.FullName(), user.Email, user.Role)
		if _, nErr := s.notifications.NotifyRole(ctx, models.RoleAdmin, "Nouvelle inscription", msg); nErr != nil {
			utils.Logger.WithError(nErr).Warn("Failed to notify admins of registration")
		}
	}
	return user, nil
}
