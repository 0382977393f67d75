package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/noah-isme/retail-pos/internal/common"
)

// Handler exposes the login endpoint.
type Handler struct {
	Service *Service
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid JSON body", nil)
		return
	}
	if payload.Username == "" || payload.Password == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "username and password are required", nil)
		return
	}

	token, expiresAt, err := h.Service.Login(payload.Username, payload.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"expiresAt":   expiresAt.UTC().Format(time.RFC3339),
	})
}
