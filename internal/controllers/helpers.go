package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/aftras/crm/internal/middleware"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/utils"
)

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", validationDetails(err), err)
		return false
	}
	return true
}

// validationDetails lists the failing fields and rules.
func validationDetails(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func callerIDFrom(r *http.Request) (string, bool) {
	return middleware.UserIDFromContext(r.Context())
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := callerIDFrom(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing userID in context", nil)
		return "", false
	}
	return id, true
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// location resolves the ?tz= query parameter, falling back to def.
func location(w http.ResponseWriter, r *http.Request, def *time.Location) (*time.Location, bool) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		return def, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Unknown time zone", map[string]string{"tz": name}, err)
		return nil, false
	}
	return loc, true
}

// owned unwraps a lenient lookup for a record the caller must own. Records
// of other agents answer 404 like missing ones.
func owned[T comparable](w http.ResponseWriter, res repositories.Lookup[T], owner func(T) string, callerID string) (T, bool) {
	var zero T
	if res.Degraded() {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "Document store unavailable", nil, res.Err)
		return zero, false
	}
	if !res.Found() || owner(res.Item) != callerID {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Record not found", nil)
		return zero, false
	}
	return res.Item, true
}
