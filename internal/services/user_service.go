package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

type UserService struct {
	repo  repositories.UserRepository
	clock Clock
}

func NewUserService(repo repositories.UserRepository, clock Clock) *UserService {
	return &UserService{repo: repo, clock: clock}
}

func (s *UserService) ListUsers(ctx context.Context) repositories.ReadResult[*models.User] {
	return s.repo.GetAll(ctx)
}

func (s *UserService) ListUsersByRole(ctx context.Context, role models.UserRole) repositories.ReadResult[*models.User] {
	return s.repo.GetByQuery(ctx, "role", docstore.OpEqual, role)
}

func (s *UserService) GetUser(ctx context.Context, id string) repositories.Lookup[*models.User] {
	return s.repo.GetByID(ctx, id)
}

// FindByEmail is strict so that uniqueness checks never pass on a degraded
// read.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := s.repo.Where(ctx, "email", docstore.OpEqual, normalizeEmail(email))
	if err != nil {
		return nil, storeError("Failed to look up user", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// AddUser creates a user, PENDING unless req says otherwise. A caller
// supplied id is kept.
func (s *UserService) AddUser(ctx context.Context, req dtos.CreateUserRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, utils.BadRequest(utils.ErrCodeValidation, "Unknown role", utils.ErrUnknownRole)
	}
	existing, err := s.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &utils.AppError{StatusCode: http.StatusConflict, Code: utils.ErrCodeConflict, Message: "Email already in use"}
	}

	user := &models.User{
		ID:        req.ID,
		Email:     normalizeEmail(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      req.Role,
		Status:    req.Status,
		CreatedAt: s.clock.now(),
	}
	if user.Status == "" {
		user.Status = models.UserStatusPending
	}
	if req.Password != "" {
		if len(req.Password) < utils.MinPasswordLength {
			return nil, utils.BadRequest(utils.ErrCodeValidation, "Password too short", utils.ErrWeakPassword)
		}
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, utils.Internal("Failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if user.ID != "" {
		if err := s.repo.Set(ctx, user); err != nil {
			return nil, storeError("Failed to create user", err)
		}
		return user, nil
	}
	created, err := s.repo.Add(ctx, user)
	if err != nil {
		return nil, storeError("Failed to create user", err)
	}
	return created, nil
}

func (s *UserService) UpdateUserStatus(ctx context.Context, id string, status models.UserStatus) error {
	if err := s.repo.Update(ctx, id, docstore.Fields{"status": status}); err != nil {
		return storeError("Failed to update user status", err)
	}
	return nil
}

// UpdateUser merges the provided fields and returns the stored result.
func (s *UserService) UpdateUser(ctx context.Context, id string, req dtos.UpdateUserRequest) (*models.User, error) {
	fields := docstore.Fields{}
	if req.Email != nil {
		fields["email"] = normalizeEmail(*req.Email)
	}
	if req.FirstName != nil {
		fields["firstName"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		fields["lastName"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, storeError("Failed to update user", err)
		}
	}
	user, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, storeError("Failed to reload user", err)
	}
	if user == nil {
		return nil, utils.NotFound("User not found")
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError("Failed to delete user", err)
	}
	return nil
}

// ChangePassword verifies current against the stored hash before replacing
// it.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if len(next) < utils.MinPasswordLength {
		return utils.BadRequest(utils.ErrCodeValidation, "New password must be at least 8 characters", utils.ErrWeakPassword)
	}
	user, err := s.repo.Find(ctx, id)
	if err != nil {
		return storeError("Failed to load user", err)
	}
	if user == nil {
		return utils.NotFound("User not found")
	}
	if user.PasswordHash == "" || !utils.CheckPasswordHash(current, user.PasswordHash) {
		return &utils.AppError{
			StatusCode: http.StatusUnauthorized,
			Code:       utils.ErrCodeInvalidCredentials,
			Message:    "Current password is incorrect",
			Err:        utils.ErrInvalidCredentials,
		}
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return utils.Internal("Failed to hash password", err)
	}
	if err := s.repo.Update(ctx, id, docstore.Fields{"passwordHash": hash}); err != nil {
		return storeError("Failed to update password", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
