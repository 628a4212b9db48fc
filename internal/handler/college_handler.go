package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/middleware"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

type CollegeHandler struct {
	uc     *usecase.ReconciliationUseCase
	logger *zap.Logger
}

func NewCollegeHandler(uc *usecase.ReconciliationUseCase, logger *zap.Logger) *CollegeHandler {
	return &CollegeHandler{uc: uc, logger: logger.Named("CollegeHandler")}
}

type collegeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Approved  bool   `json:"approved"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toCollegeDTO(c *entity.College) collegeDTO {
	return collegeDTO{
		ID:        c.ID.Hex(),
		Name:      c.Name,
		City:      c.City,
		State:     c.State,
		Approved:  c.Approved,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt.UTC().Format(timeLayout),
	}
}

type unmappedGroupDTO struct {
	NormalizedKey string   `json:"normalizedKey"`
	DisplayName   string   `json:"displayName"`
	TotalUsers    int64    `json:"totalUsers"`
	UserIDs       []string `json:"userIds"`
	Variants      []string `json:"variants"`
}

// ListUnmapped handles GET /api/admin/colleges/unmapped.
func (h *CollegeHandler) ListUnmapped(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	groups, err := h.uc.ListUnmappedGroups(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]unmappedGroupDTO, 0, len(groups))
	for _, g := range groups {
		ids := make([]string, 0, len(g.UserIDs))
		for _, id := range g.UserIDs {
			ids = append(ids, id.Hex())
		}
		out = append(out, unmappedGroupDTO{
			NormalizedKey: g.NormalizedKey,
			DisplayName:   g.DisplayName,
			TotalUsers:    g.TotalUsers,
			UserIDs:       ids,
			Variants:      g.Variants,
		})
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"groups": out, "totalGroups": len(out)}, nil)
}

type createCollegeRequest struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Create handles POST /api/admin/colleges.
func (h *CollegeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req createCollegeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	college, err := h.uc.CreateCollege(r.Context(), actor, usecase.CreateCollegeInput{
		Name:  req.Name,
		City:  req.City,
		State: req.State,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]interface{}{"college": toCollegeDTO(college)}, nil)
}

// List handles GET /api/admin/colleges.
func (h *CollegeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	colleges, err := h.uc.ListColleges(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]collegeDTO, 0, len(colleges))
	for _, c := range colleges {
		out = append(out, toCollegeDTO(c))
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"colleges": out, "total": len(out)}, nil)
}

type mergeRequest struct {
	CollegeID      string   `json:"collegeId"`
	NormalizedKeys []string `json:"normalizedKeys"`
	UserIDs        []string `json:"userIds"`
}

type mergeLogDTO struct {
	ID             string   `json:"id"`
	CollegeID      string   `json:"collegeId"`
	CollegeName    string   `json:"collegeName"`
	NormalizedKeys []string `json:"normalizedKeys"`
	UserIDs        []string `json:"userIds,omitempty"`
	ModifiedCount  int64    `json:"modifiedCount"`
	MergedBy       string   `json:"mergedBy"`
	CreatedAt      string   `json:"createdAt"`
}

func toMergeLogDTO(l *entity.CollegeMergeLog) mergeLogDTO {
	ids := make([]string, 0, len(l.UserIDs))
	for _, id := range l.UserIDs {
		ids = append(ids, id.Hex())
	}
	return mergeLogDTO{
		ID:             l.ID.Hex(),
		CollegeID:      l.CollegeID.Hex(),
		CollegeName:    l.CollegeName,
		NormalizedKeys: l.NormalizedKeys,
		UserIDs:        ids,
		ModifiedCount:  l.ModifiedCount,
		MergedBy:       l.MergedBy,
		CreatedAt:      l.CreatedAt.UTC().Format(timeLayout),
	}
}

// Merge handles POST /api/admin/colleges/merge.
func (h *CollegeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uc.Merge(r.Context(), actor, usecase.MergeInput{
		CollegeID:      req.CollegeID,
		NormalizedKeys: req.NormalizedKeys,
		UserIDs:        req.UserIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"mergeLog":      toMergeLogDTO(result.Log),
		"modifiedCount": result.Log.ModifiedCount,
	}, result.Warnings)
}

// ListMergeLogs handles GET /api/admin/colleges/merge-logs.
func (h *CollegeHandler) ListMergeLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := h.uc.ListMergeLogs(r.Context(), actor, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]mergeLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, toMergeLogDTO(l))
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"mergeLogs": out, "total": len(out)}, nil)
}
