package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

// MeController covers the caller's own profile and notifications.
type MeController struct {
	users         *services.UserService
	notifications *services.NotificationService
	validate      *validator.Validate
}

func NewMeController(users *services.UserService, notifications *services.NotificationService) *MeController {
	return &MeController{users: users, notifications: notifications, validate: validator.New()}
}

// GET /api/v1/me
func (c *MeController) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	res := c.users.GetUser(r.Context(), id)
	if res.Degraded() {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "Unable to retrieve user record", nil, res.Err)
		return
	}
	if !res.Found() {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "No user found for this token", nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(res.Item))
}

// PATCH /api/v1/me
func (c *MeController) PatchMeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	var req dtos.UpdateUserRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	// Email is the login identity; only admins change it.
	req.Email = nil
	user, err := c.users.UpdateUser(r.Context(), id, req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(user))
}

// POST /api/v1/me/password
func (c *MeController) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	var req dtos.ChangePasswordRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}
	if err := c.users.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ConfirmationResponse{Message: "Password updated"})
}

// GET /api/v1/notifications
func (c *MeController) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewListResponse(c.notifications.ListNotifications(r.Context(), id)))
}

// GET /api/v1/notifications/unread-count
func (c *MeController) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	n, degraded := c.notifications.UnreadCount(r.Context(), id)
	utils.RespondWithJSON(w, http.StatusOK, dtos.CountResponse{Count: n, Degraded: degraded})
}

// POST /api/v1/notifications/read-all
func (c *MeController) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := c.notifications.MarkAllNotificationsAsRead(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CountResponse{Count: n})
}
