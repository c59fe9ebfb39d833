package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/models"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

type AdminController struct {
	users    *services.UserService
	sales    *services.SaleService
	settings *services.SettingsService
	codes    *services.AccessCodeService
	validate *validator.Validate
}

func NewAdminController(
	users *services.UserService,
	sales *services.SaleService,
	settings *services.SettingsService,
	codes *services.AccessCodeService,
) *AdminController {
	return &AdminController{
		users:    users,
		sales:    sales,
		settings: settings,
		codes:    codes,
		validate: validator.New(),
	}
}

// GET /api/v1/admin/users[?role=]
func (c *AdminController) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if role := models.UserRole(r.URL.Query().Get("role")); role != "" {
		if !role.Valid() {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown role", nil)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, dtos.MapListResponse(c.users.ListUsersByRole(r.Context(), role), dtos.NewUserFromModel))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MapListResponse(c.users.ListUsers(r.Context()), dtos.NewUserFromModel))
}

// POST /api/v1/admin/users
func (c *AdminController) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateUserRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	user, err := c.users.AddUser(r.Context(), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewUserFromModel(user))
}

// GET /api/v1/admin/users/{id}
func (c *AdminController) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	res := c.users.GetUser(r.Context(), pathID(r))
	if res.Degraded() {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "Unable to retrieve user record", nil, res.Err)
		return
	}
	if !res.Found() {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "User not found", nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(res.Item))
}

// PATCH /api/v1/admin/users/{id}
func (c *AdminController) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateUserRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	user, err := c.users.UpdateUser(r.Context(), pathID(r), req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(user))
}

// PATCH /api/v1/admin/users/{id}/status
func (c *AdminController) UpdateUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateUserStatusRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	id := pathID(r)
	if err := c.users.UpdateUserStatus(r.Context(), id, req.Status); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "User status updated", ID: id})
}

// DELETE /api/v1/admin/users/{id}
func (c *AdminController) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if caller, _ := callerIDFrom(r); caller == id {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Admins cannot delete their own account", nil)
		return
	}
	if err := c.users.DeleteUser(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "User deleted", ID: id})
}

// PATCH /api/v1/admin/sales/{id}
func (c *AdminController) UpdateSaleHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateSaleRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	id := pathID(r)
	if err := c.sales.UpdateSale(r.Context(), id, req); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Sale updated", ID: id})
}

// PATCH /api/v1/admin/sales/{id}/status
func (c *AdminController) UpdateSaleStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateSaleStatusRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	id := pathID(r)
	if err := c.sales.UpdateSaleStatus(r.Context(), id, req.Status); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Sale status updated", ID: id})
}

// PUT /api/v1/admin/settings
func (c *AdminController) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateSettingsRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	settings, err := c.settings.UpdateAppSettings(r.Context(), req.Name, req.Currency)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, settings)
}

// PUT /api/v1/admin/settings/logo
func (c *AdminController) UpdateLogoHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateLogoRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	settings, err := c.settings.UpdateAppLogo(r.Context(), req.Logo)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoResponse{Logo: settings.Logo})
}

// GET /api/v1/admin/access-codes/{role}
func (c *AdminController) GetAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := c.codes.GetAccessCode(r.Context(), models.UserRole(mux.Vars(r)["role"]))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, code)
}

// POST /api/v1/admin/access-codes/{role}/regenerate
func (c *AdminController) RegenerateAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	code, err := c.codes.GenerateNewCode(r.Context(), models.UserRole(mux.Vars(r)["role"]))
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, code)
}
