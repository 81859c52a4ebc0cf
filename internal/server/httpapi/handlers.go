package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/server/models"
	"github.com/dmitrijs2005/propkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, res *services.AuthResult) {
	writeJSON(w, status, authResponse{Token: res.Token, User: res.User})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeAuth(w, http.StatusOK, res)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterInput
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeAuth(w, http.StatusCreated, res)
}

func (s *Server) oauth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.users.OAuthLogin(r.Context(), mux.Vars(r)["provider"], req.Code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeAuth(w, http.StatusOK, res)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), claimsFrom(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// verify answers 200 with valid=false for tokens that are merely bad, so
// callers can tell them apart from an unavailable server.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	user, err := s.users.Verify(r.Context(), token)
	if err != nil {
		if status, _ := statusFor(err); status == http.StatusUnauthorized {
			writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, User: user})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetProfile(r.Context(), claimsFrom(r.Context()).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if err := decode(r, &upd); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), claimsFrom(r.Context()).UserID, upd)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteProfile(r.Context(), claimsFrom(r.Context()).UserID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.GetStats(r.Context(), claimsFrom(r.Context()).UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats})
}
