package shopapi

import (
	"errors"
	"net/http"
	"time"

	"stickershop/internal/adminauth"
)

func timeNow() time.Time { return time.Now().UTC() }

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin_disabled", "admin auth not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	token, exp, err := h.admin.Login(req.Password, timeNow())
	if err != nil {
		switch {
		case errors.Is(err, adminauth.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "admin_disabled", "admin auth not configured")
		case errors.Is(err, adminauth.ErrInvalidCredentials):
			// Deliberately vague; do not reveal whether the hash is set.
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		default:
			h.log.Error("admin.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, ExpiresAt: exp})
}
