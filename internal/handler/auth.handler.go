package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"user-service/pkg/response"
	"user-service/pkg/xerrors"
)

// ================================
// GOOGLE AUTH
// ================================

type GoogleAuthRequest struct {
	IDToken string `json:"id_token"`
}

// GoogleAuthHandler exchanges a verified Google ID token for the service's
// own session token, provisioning an account on first login.
func (h *UserHandler) GoogleAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.IDToken == "" {
		response.Error(w, http.StatusBadRequest, "id_token is required")
		return
	}

	result, err := h.uc.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, xerrors.ErrUnauthorized) {
			response.Error(w, http.StatusUnauthorized, "identity verification failed")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	response.JSON(w, http.StatusOK, result)
}
