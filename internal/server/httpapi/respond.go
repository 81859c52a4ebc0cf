package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/server/models"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  *models.User `json:"user,omitempty"`
}

type statsResponse struct {
	Stats models.Stats `json:"stats"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps service errors onto HTTP status codes and client-safe
// messages. Unknown errors are reported as 500 without detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrMissingArguments),
		errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
