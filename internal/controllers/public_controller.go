package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

// PublicController serves the unauthenticated surface: branding, the lead
// form and self-registration.
type PublicController struct {
	settings   *services.SettingsService
	remote     *services.RemoteProspectService
	onboarding *services.OnboardingService
	validate   *validator.Validate
}

func NewPublicController(
	settings *services.SettingsService,
	remote *services.RemoteProspectService,
	onboarding *services.OnboardingService,
) *PublicController {
	return &PublicController{
		settings:   settings,
		remote:     remote,
		onboarding: onboarding,
		validate:   validator.New(),
	}
}

// GET /api/v1/public/settings
func (c *PublicController) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, degraded := c.settings.GetAppSettings(r.Context())
	if degraded {
		w.Header().Set("X-Degraded-Read", "true")
	}
	utils.RespondWithJSON(w, http.StatusOK, settings)
}

// GET /api/v1/public/settings/logo
func (c *PublicController) GetLogoHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoResponse{Logo: c.settings.GetAppLogo(r.Context())})
}

// POST /api/v1/public/prospects
func (c *PublicController) SubmitProspectHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.PublicProspectRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	lead, err := c.remote.AddRemoteLead(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.ConfirmationResponse{Message: "Lead received", ID: lead.ID})
}

// POST /api/v1/public/onboarding
func (c *PublicController) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	user, err := c.onboarding.Register(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewUserFromModel(user))
}
