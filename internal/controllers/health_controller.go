package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aftras/crm/internal/app"
	"github.com/aftras/crm/internal/dtos"
	"github.com/aftras/crm/internal/utils"
)

// HealthController checks store connectivity.
type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{app}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	driver := string(c.app.Store.Driver())
	if err := c.app.Store.Ping(ctx); err != nil {
		utils.Logger.WithError(err).Error("document store unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "Document store unreachable",
			dtos.HealthResponse{Status: "DEGRADED", Store: "unreachable", Driver: driver}, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthResponse{Status: "OK", Store: "reachable", Driver: driver})
}
