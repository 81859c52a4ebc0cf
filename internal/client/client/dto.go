package client

import "github.com/dmitrijs2005/propkeeper/internal/client/models"

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type oauthRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Valid bool            `json:"valid"`
	User  *models.Account `json:"user,omitempty"`
}

type userResponse struct {
	User *models.Account `json:"user"`
}

type statsResponse struct {
	Stats models.Stats `json:"stats"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
