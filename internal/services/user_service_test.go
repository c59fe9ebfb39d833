package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/utils"
)

func statusOf(err error) int {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 0
}

func TestAddUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.Users.AddUser(ctx, dtos.CreateUserRequest{
		Email:     " Jean@Aftras.ci ",
		FirstName: "Jean",
		LastName:  "Kouassi",
		Role:      models.RoleAgent,
		Password:  "motdepasse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "jean@aftras.ci", u.Email)
	assert.Equal(t, models.UserStatusPending, u.Status)
	assert.NotEqual(t, "motdepasse", u.PasswordHash)

	_, err = h.Users.AddUser(ctx, dtos.CreateUserRequest{Email: "jean@aftras.ci", Role: models.RoleAgent})
	assert.Equal(t, http.StatusConflict, statusOf(err))

	withID, err := h.Users.AddUser(ctx, dtos.CreateUserRequest{ID: "auth-uid", Email: "sup@aftras.ci", Role: models.RoleSupervisor, Status: models.UserStatusActive})
	require.NoError(t, err)
	assert.Equal(t, "auth-uid", withID.ID)
	assert.True(t, h.Users.GetUser(ctx, "auth-uid").Found())
}

func TestUpdateUserAndStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedUser(t, h, "u1", models.RoleAgent, models.UserStatusPending)

	phone := "0707070707"
	u, err := h.Users.UpdateUser(ctx, "u1", dtos.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)

	require.NoError(t, h.Users.UpdateUserStatus(ctx, "u1", models.UserStatusActive))
	assert.Equal(t, models.UserStatusActive, h.Users.GetUser(ctx, "u1").Item.Status)

	assert.Equal(t, http.StatusNotFound, statusOf(h.Users.UpdateUserStatus(ctx, "nobody", models.UserStatusActive)))

	require.NoError(t, h.Users.DeleteUser(ctx, "u1"))
	assert.False(t, h.Users.GetUser(ctx, "u1").Found())
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u, err := h.Users.AddUser(ctx, dtos.CreateUserRequest{Email: "a@b.ci", Role: models.RoleAgent, Password: "ancienmotdepasse"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, statusOf(h.Users.ChangePassword(ctx, u.ID, "ancienmotdepasse", "court")))
	assert.Equal(t, http.StatusUnauthorized, statusOf(h.Users.ChangePassword(ctx, u.ID, "mauvais", "nouveaumotdepasse")))

	require.NoError(t, h.Users.ChangePassword(ctx, u.ID, "ancienmotdepasse", "nouveaumotdepasse"))
	stored, err := h.users.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("nouveaumotdepasse", stored.PasswordHash))
}

func TestRegisterWithAccessCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedUser(t, h, "admin-1", models.RoleAdmin, models.UserStatusActive)

	req := dtos.RegisterRequest{
		Role:      models.RoleAgent,
		Code:      "CRM-0000-2025",
		Email:     "nouvel@agent.ci",
		FirstName: "Nouvel",
		LastName:  "Agent",
		Password:  "motdepasse123",
	}
	_, err := h.Onboarding.Register(ctx, req)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, utils.ErrCodeInvalidAccessCode, appErr.Code)

	code, err := h.AccessCodes.GetAccessCode(ctx, models.RoleAgent)
	require.NoError(t, err)
	req.Code = code.Code
	u, err := h.Onboarding.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, u.Status)
	assert.Equal(t, models.RoleAgent, u.Role)
	assert.Len(t, h.Notifications.ListNotifications(ctx, "admin-1").Items, 1)
}
