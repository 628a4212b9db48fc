package handler

import (
	"encoding/json"
	"net/http"

	"github.com/festivalhq/admin-service/internal/entity"
	"github.com/festivalhq/admin-service/internal/middleware"
	"github.com/festivalhq/admin-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PassHandler struct {
	uc     *usecase.VerificationUseCase
	logger *zap.Logger
}

func NewPassHandler(uc *usecase.VerificationUseCase, logger *zap.Logger) *PassHandler {
	return &PassHandler{uc: uc, logger: logger.Named("PassHandler")}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

type passDTO struct {
	ID                 string `json:"id"`
	PassType           int    `json:"passType"`
	Status             string `json:"status"`
	GateStatus         string `json:"gateStatus"`
	TransactionNumber  string `json:"transactionNumber,omitempty"`
	PaymentIDType      string `json:"paymentIdType,omitempty"`
	VerificationSource string `json:"verificationSource,omitempty"`
	VerifiedBy         string `json:"verifiedBy,omitempty"`
	VerifiedByEmail    string `json:"verifiedByEmail,omitempty"`
	VerifiedDate       string `json:"verifiedDate,omitempty"`
	RejectionReason    string `json:"rejectionReason,omitempty"`
	GateCheckedAt      string `json:"gateCheckedAt,omitempty"`
}

func toPassDTO(p *entity.Pass) passDTO {
	dto := passDTO{
		ID:                 p.ID.Hex(),
		PassType:           p.PassType,
		Status:             p.Status,
		GateStatus:         p.GateStatus,
		TransactionNumber:  p.TransactionNumber,
		PaymentIDType:      p.PaymentIDType,
		VerificationSource: p.VerificationSource,
		VerifiedBy:         p.VerifiedBy,
		VerifiedByEmail:    p.VerifiedByEmail,
		RejectionReason:    p.RejectionReason,
	}
	if p.VerifiedDate != nil {
		dto.VerifiedDate = p.VerifiedDate.UTC().Format(timeLayout)
	}
	if p.GateCheckedAt != nil {
		dto.GateCheckedAt = p.GateCheckedAt.UTC().Format(timeLayout)
	}
	return dto
}

type passListItemDTO struct {
	UserID               string  `json:"userId"`
	UserName             string  `json:"userName"`
	UserEmail            string  `json:"userEmail"`
	College              string  `json:"college,omitempty"`
	Pass                 passDTO `json:"pass"`
	IsDuplicate          bool    `json:"isDuplicate"`
	HasSpecialCharacters bool    `json:"hasSpecialCharacters"`
}

// List handles GET /api/admin/passes.
func (h *PassHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	items, err := h.uc.ListPasses(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]passListItemDTO, 0, len(items))
	for i := range items {
		out = append(out, passListItemDTO{
			UserID:               items[i].UserID,
			UserName:             items[i].UserName,
			UserEmail:            items[i].UserEmail,
			College:              items[i].College,
			Pass:                 toPassDTO(&items[i].Pass),
			IsDuplicate:          items[i].IsDuplicate,
			HasSpecialCharacters: items[i].HasSpecialCharacters,
		})
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"passes": out, "total": len(out)}, nil)
}

type verifyPassRequest struct {
	PaymentIDType     string `json:"paymentIdType"`
	TransactionNumber string `json:"transactionNumber"`
}

// Verify handles POST /api/admin/passes/{passID}/verify.
func (h *PassHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req verifyPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uc.VerifyPass(r.Context(), actor, chi.URLParam(r, "passID"), usecase.VerifyPassInput{
		PaymentIDType:     req.PaymentIDType,
		TransactionNumber: req.TransactionNumber,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"pass": toPassDTO(result.Pass)}, result.Warnings)
}

type rejectPassRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/admin/passes/{passID}/reject.
func (h *PassHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req rejectPassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uc.RejectPass(r.Context(), actor, chi.URLParam(r, "passID"), req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"pass": toPassDTO(result.Pass)}, result.Warnings)
}

type gateCompleteRequest struct {
	PanelID         string `json:"panelId"`
	IDChecked       bool   `json:"idChecked"`
	PaymentChecked  bool   `json:"paymentChecked"`
	WristbandIssued bool   `json:"wristbandIssued"`
}

type verificationSessionDTO struct {
	ID                string `json:"id"`
	PassID            string `json:"passId"`
	UserID            string `json:"userId"`
	UserName          string `json:"userName"`
	UserEmail         string `json:"userEmail"`
	CollegeName       string `json:"collegeName,omitempty"`
	PassType          int    `json:"passType"`
	TransactionNumber string `json:"transactionNumber,omitempty"`
	AdminID           string `json:"adminId"`
	AdminEmail        string `json:"adminEmail"`
	PanelID           string `json:"panelId,omitempty"`
	IDChecked         bool   `json:"idChecked"`
	PaymentChecked    bool   `json:"paymentChecked"`
	WristbandIssued   bool   `json:"wristbandIssued"`
	CreatedAt         string `json:"createdAt"`
}

// GateComplete handles POST /api/admin/passes/{passID}/gate-complete.
func (h *PassHandler) GateComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req gateCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.uc.CompleteGate(r.Context(), actor, chi.URLParam(r, "passID"), usecase.GateCompleteInput{
		PanelID: req.PanelID,
		Checklist: entity.VerificationChecklist{
			IDChecked:       req.IDChecked,
			PaymentChecked:  req.PaymentChecked,
			WristbandIssued: req.WristbandIssued,
		},
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	s := result.Session
	writeSuccess(w, http.StatusOK, map[string]interface{}{"session": verificationSessionDTO{
		ID:                s.ID.Hex(),
		PassID:            s.PassID.Hex(),
		UserID:            s.UserID.Hex(),
		UserName:          s.UserName,
		UserEmail:         s.UserEmail,
		CollegeName:       s.CollegeName,
		PassType:          s.PassType,
		TransactionNumber: s.TransactionNumber,
		AdminID:           s.AdminID,
		AdminEmail:        s.AdminEmail,
		PanelID:           s.PanelID,
		IDChecked:         s.Checklist.IDChecked,
		PaymentChecked:    s.Checklist.PaymentChecked,
		WristbandIssued:   s.Checklist.WristbandIssued,
		CreatedAt:         s.CreatedAt.UTC().Format(timeLayout),
	}}, result.Warnings)
}

type updateTransactionRequest struct {
	TransactionNumber string `json:"transactionNumber"`
}

// UpdateTransaction handles PUT /api/admin/passes/{passID}/transaction.
func (h *PassHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.uc.UpdatePassTransaction(r.Context(), actor, chi.URLParam(r, "passID"), req.TransactionNumber); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"updated": true}, nil)
}

// TransactionExists handles GET /api/admin/passes/transaction-exists.
func (h *PassHandler) TransactionExists(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "missing session")
		return
	}

	exists, err := h.uc.TransactionExists(r.Context(), actor, r.URL.Query().Get("transactionNumber"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"exists": exists}, nil)
}
