package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/aftras/crm/internal/constants"
	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

const (
	agentCodeID      = "agent_code"
	supervisorCodeID = "supervisor_code"
)

// codeDocID maps a role to its well-known access code document.
func codeDocID(role models.UserRole) (string, string, error) {
	switch role {
	case models.RoleAgent:
		return agentCodeID, constants.AgentAccessCodePrefix, nil
	case models.RoleSupervisor:
		return supervisorCodeID, constants.SupervisorAccessCodePrefix, nil
	}
	return "", "", utils.BadRequest(utils.ErrCodeValidation, "Access codes exist for agents and supervisors only", utils.ErrUnknownRole)
}

type AccessCodeService struct {
	store docstore.Store
	repo  repositories.AccessCodeRepository
	clock Clock
}

func NewAccessCodeService(store docstore.Store, repo repositories.AccessCodeRepository, clock Clock) *AccessCodeService {
	return &AccessCodeService{store: store, repo: repo, clock: clock}
}

// GetAccessCode returns the role's live code, issuing a new one when none
// exists or the current one is inactive or expired.
func (s *AccessCodeService) GetAccessCode(ctx context.Context, role models.UserRole) (*models.AccessCode, error) {
	id, prefix, err := codeDocID(role)
	if err != nil {
		return nil, err
	}
	var out *models.AccessCode
	err = repositories.WithRetry(ctx, s.store, repositories.DefaultMaxRetries, func(ctx context.Context, tx docstore.Tx) error {
		repo := s.repo.In(tx)
		cur, err := repo.Find(ctx, id)
		if err != nil {
			return err
		}
		if cur.Valid(s.clock.now()) {
			out = cur
			return nil
		}
		out = s.newCode(id, role, prefix)
		return repo.Set(ctx, out)
	})
	if err != nil {
		return nil, storeError("Failed to load access code", err)
	}
	return out, nil
}

// GenerateNewCode overwrites the role's code, invalidating the previous one.
func (s *AccessCodeService) GenerateNewCode(ctx context.Context, role models.UserRole) (*models.AccessCode, error) {
	id, prefix, err := codeDocID(role)
	if err != nil {
		return nil, err
	}
	code := s.newCode(id, role, prefix)
	if err := s.repo.Set(ctx, code); err != nil {
		return nil, storeError("Failed to generate access code", err)
	}
	utils.Logger.WithField("role", role).Info("Access code regenerated")
	return code, nil
}

func (s *AccessCodeService) newCode(id string, role models.UserRole, prefix string) *models.AccessCode {
	now := s.clock.now()
	return &models.AccessCode{
		ID:        id,
		Role:      role,
		Code:      fmt.Sprintf("%s-%d-%d", prefix, utils.RandomIntInRange(constants.AccessCodeDigitsMin, constants.AccessCodeDigitsMax), now.Year()),
		ExpiresAt: now.Add(constants.AccessCodeTTL),
		IsActive:  true,
		CreatedAt: now,
	}
}

// ValidateCode reports whether code is the role's live code. It never
// issues a new code.
func (s *AccessCodeService) ValidateCode(ctx context.Context, role models.UserRole, code string) (bool, error) {
	id, _, err := codeDocID(role)
	if err != nil {
		return false, err
	}
	cur, err := s.repo.Find(ctx, id)
	if err != nil {
		return false, storeError("Failed to validate access code", err)
	}
	if !cur.Valid(s.clock.now()) {
		return false, nil
	}
	given := strings.ToUpper(strings.TrimSpace(code))
	return subtle.ConstantTimeCompare([]byte(given), []byte(cur.Code)) == 1, nil
}

// RotateExpired replaces every stale code. It runs from the scheduler.
func (s *AccessCodeService) RotateExpired(ctx context.Context) (int, error) {
	rotated := 0
	for _, role := range []models.UserRole{models.RoleAgent, models.RoleSupervisor} {
		id, _, _ := codeDocID(role)
		cur, err := s.repo.Find(ctx, id)
		if err != nil {
			return rotated, storeError("Failed to read access code", err)
		}
		if cur.Valid(s.clock.now()) {
			continue
		}
		if _, err := s.GetAccessCode(ctx, role); err != nil {
			return rotated, err
		}
		rotated++
	}
	return rotated, nil
}
