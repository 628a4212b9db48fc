package handler

import (
	"encoding/json"
	"net/http"

	"github.com/festivalhq/admin-service/internal/middleware"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

type AuthHandler struct {
	uc     *usecase.AuthUseCase
	logger *zap.Logger
}

func NewAuthHandler(uc *usecase.AuthUseCase, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger.Named("AuthHandler")}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, admin, err := h.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"admin": map[string]interface{}{
			"id":    admin.ID.Hex(),
			"name":  admin.Name,
			"email": admin.Email,
			"role":  admin.Role,
		},
	}, nil)
}

// Logout handles POST /api/admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	if err := h.uc.Logout(r.Context(), actor.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"loggedOut": true}, nil)
}
