package app

import (
	"context"
	"fmt"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

const (
	seedAdminID      = "seed-admin"
	seedSupervisorID = "seed-supervisor"
	seedAgentID      = "seed-agent"

	seedTestPassword = "P@ssword123"
)

// SeedDefaultAdmin creates the bootstrap admin account when it does not
// exist yet. An empty email disables it.
func SeedDefaultAdmin(ctx context.Context, users *services.UserService, email, password string) error {
	if email == "" {
		return nil
	}
	if existing := users.GetUser(ctx, seedAdminID); existing.Found() {
		utils.Logger.Infof("Default admin already exists (ID=%s); skipping seed.", seedAdminID)
		return nil
	} else if existing.Err != nil {
		return fmt.Errorf("error checking for existing admin: %w", existing.Err)
	}
	if password == "" {
		password = seedTestPassword
	}

	if _, err := users.AddUser(ctx, dtos.CreateUserRequest{
		ID:        seedAdminID,
		Email:     email,
		FirstName: "Admin",
		LastName:  models.DefaultAppName,
		Role:      models.RoleAdmin,
		Status:    models.UserStatusActive,
		Password:  password,
	}); err != nil {
		return fmt.Errorf("failed to insert default admin: %w", err)
	}
	utils.Logger.Infof("Successfully seeded default admin (ID=%s, email=%s).", seedAdminID, email)
	return nil
}

// SeedAllTestData adds a supervisor, an agent with a small book of
// prospects, and persisted settings. It is skipped when the seed agent
// already exists.
func SeedAllTestData(
	ctx context.Context,
	users *services.UserService,
	prospects *services.ProspectService,
	settings *services.SettingsService,
) error {
	if users.GetUser(ctx, seedAgentID).Found() {
		utils.Logger.Info("Seed data already present; skipping seeding")
		return nil
	}

	accounts := []dtos.CreateUserRequest{
		{ID: seedSupervisorID, Email: "superviseur@aftras.test", FirstName: "Sonia", LastName: "Superviseur", Role: models.RoleSupervisor},
		{ID: seedAgentID, Email: "agent@aftras.test", FirstName: "Alain", LastName: "Agent", Phone: "+2250700000000", Role: models.RoleAgent},
	}
	for _, req := range accounts {
		req.Status = models.UserStatusActive
		req.Password = seedTestPassword
		if _, err := users.AddUser(ctx, req); err != nil {
			return fmt.Errorf("seed %s account: %w", req.Role, err)
		}
	}

	book := []dtos.CreateProspectRequest{
		{FullName: "Koffi Yao", Company: "Yao & Fils", Email: "koffi@example.ci", Phone: "0101010101", CountryCode: "+225", City: "Abidjan", ProductOfInterest: "Assurance flotte"},
		{FullName: "Mariam Cissé", Email: "mariam@example.sn", Phone: "771234567", CountryCode: "+221", City: "Dakar", ProductOfInterest: "Assurance santé"},
		{FullName: "Paul Mensah", Company: "Mensah Logistics", Email: "paul@example.gh", Phone: "201234567", CountryCode: "+233", City: "Accra", ProductOfInterest: "Assurance marchandises"},
	}
	for _, req := range book {
		if _, err := prospects.AddProspect(ctx, seedAgentID, req); err != nil {
			return fmt.Errorf("seed prospect %q: %w", req.FullName, err)
		}
	}

	current, _ := settings.GetAppSettings(ctx)
	if _, err := settings.UpdateAppSettings(ctx, current.Name, current.Currency); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	utils.Logger.Infof("Seeded test data: %d accounts, %d prospects", len(accounts), len(book))
	return nil
}
