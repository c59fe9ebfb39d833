package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aftras/crm/internal/constants"
	"github.com/aftras/crm/internal/models"
)

var (
	agentCodePattern      = regexp.MustCompile(`^CRM-\d{4}-\d{4}$`)
	supervisorCodePattern = regexp.MustCompile(`^SUP-\d{4}-\d{4}$`)
)

func TestGetAccessCodeIssuesAndReuses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.AccessCodes.GetAccessCode(ctx, models.RoleAgent)
	require.NoError(t, err)
	assert.Regexp(t, agentCodePattern, first.Code)
	assert.True(t, first.IsActive)
	assert.Equal(t, h.clock.Now().Add(constants.AccessCodeTTL), first.ExpiresAt)

	h.clock.Advance(time.Hour)
	second, err := h.AccessCodes.GetAccessCode(ctx, models.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)

	sup, err := h.AccessCodes.GetAccessCode(ctx, models.RoleSupervisor)
	require.NoError(t, err)
	assert.Regexp(t, supervisorCodePattern, sup.Code)
}

func TestGetAccessCodeReplacesExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stale := &models.AccessCode{
		ID:        agentCodeID,
		Role:      models.RoleAgent,
		Code:      "CRM-0000-2020",
		ExpiresAt: h.clock.Now().Add(-time.Minute),
		IsActive:  true,
	}
	require.NoError(t, h.accessCodeRepo.Set(ctx, stale))

	got, err := h.AccessCodes.GetAccessCode(ctx, models.RoleAgent)
	require.NoError(t, err)
	assert.NotEqual(t, stale.Code, got.Code)
	assert.True(t, got.ExpiresAt.After(h.clock.Now()))
}

func TestGetAccessCodeReplacesInactive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.accessCodeRepo.Set(ctx, &models.AccessCode{
		ID:        supervisorCodeID,
		Role:      models.RoleSupervisor,
		Code:      "SUP-1111-2025",
		ExpiresAt: h.clock.Now().Add(time.Hour),
		IsActive:  false,
	}))

	got, err := h.AccessCodes.GetAccessCode(ctx, models.RoleSupervisor)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.NotEqual(t, "SUP-1111-2025", got.Code)
}

func TestAccessCodeRejectsAdminRole(t *testing.T) {
	h := newHarness(t)
	_, err := h.AccessCodes.GetAccessCode(context.Background(), models.RoleAdmin)
	require.Error(t, err)
}

func TestValidateCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok, err := h.AccessCodes.ValidateCode(ctx, models.RoleAgent, "CRM-1234-2025")
	require.NoError(t, err)
	assert.False(t, ok, "no code issued yet")

	code, err := h.AccessCodes.GenerateNewCode(ctx, models.RoleAgent)
	require.NoError(t, err)

	ok, err = h.AccessCodes.ValidateCode(ctx, models.RoleAgent, " "+code.Code+" ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.AccessCodes.ValidateCode(ctx, models.RoleSupervisor, code.Code)
	require.NoError(t, err)
	assert.False(t, ok)

	h.clock.Advance(constants.AccessCodeTTL + time.Second)
	ok, err = h.AccessCodes.ValidateCode(ctx, models.RoleAgent, code.Code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	n, err := h.AccessCodes.RotateExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = h.AccessCodes.RotateExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(constants.AccessCodeTTL)
	n, err = h.AccessCodes.RotateExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
