package handler

import (
	"encoding/json"
	"net/http"

	"github.com/festivalhq/admin-service/internal/middleware"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

type OnspotHandler struct {
	uc     *usecase.OnspotUseCase
	logger *zap.Logger
}

func NewOnspotHandler(uc *usecase.OnspotUseCase, logger *zap.Logger) *OnspotHandler {
	return &OnspotHandler{uc: uc, logger: logger.Named("OnspotHandler")}
}

type onspotRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNo      string `json:"phoneNo"`
	Year         int    `json:"year"`
	Department   string `json:"department"`
	PassType     int    `json:"passType"`
	CollegeID    string `json:"collegeId"`
	CollegeName  string `json:"collegeName"`
	CollegeCity  string `json:"collegeCity"`
	CollegeState string `json:"collegeState"`
}

// Register handles POST /api/admin/onspot.
func (h *OnspotHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req onspotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uc.Register(r.Context(), actor, usecase.OnspotInput{
		Name:         req.Name,
		Email:        req.Email,
		PhoneNo:      req.PhoneNo,
		Year:         req.Year,
		Department:   req.Department,
		PassType:     req.PassType,
		CollegeID:    req.CollegeID,
		CollegeName:  req.CollegeName,
		CollegeCity:  req.CollegeCity,
		CollegeState: req.CollegeState,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	u := result.User
	pass := toPassDTO(&u.Passes[0])
	writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"user": map[string]interface{}{
			"id":         u.ID.Hex(),
			"name":       u.Name,
			"email":      u.Email,
			"phoneNo":    u.PhoneNo,
			"year":       u.Year,
			"department": u.Department,
			"college":    u.College,
		},
		"pass": pass,
	}, result.Warnings)
}
