package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/festivalhq/admin-service/internal/port/repository"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

// response is the uniform exit contract of every operation: a success flag,
// a classified error message on failure, and non-fatal warnings alongside a
// success when an advisory side effect (email, event publish) failed.
type response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}, warnings []string) {
	writeJSON(w, status, response{Success: true, Data: data, Warnings: warnings})
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Success: false, Error: msg})
}

// writeError maps a classified usecase/repository error to its HTTP status.
// Unclassified errors are logged server-side and reported generically.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, usecase.ErrForbidden):
		writeErrorMessage(w, http.StatusForbidden, err.Error())

	case errors.Is(err, usecase.ErrInvalidCredentials),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrAdminInactive):
		writeErrorMessage(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrPassNotFound),
		errors.Is(err, repository.ErrCollegeNotFound),
		errors.Is(err, repository.ErrAdminNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())

	case errors.Is(err, usecase.ErrDuplicateCollege),
		errors.Is(err, usecase.ErrGateAlreadyChecked),
		errors.Is(err, usecase.ErrPassNotPending),
		errors.Is(err, repository.ErrDuplicateEmail):
		writeErrorMessage(w, http.StatusConflict, err.Error())

	case errors.Is(err, usecase.ErrCollegeNameRequired),
		errors.Is(err, usecase.ErrEmptyMergeSelection),
		errors.Is(err, usecase.ErrInvalidUserID),
		errors.Is(err, usecase.ErrPaymentIDTypeRequired),
		errors.Is(err, usecase.ErrRejectionReasonRequired),
		errors.Is(err, usecase.ErrTransactionRequired),
		errors.Is(err, usecase.ErrPaymentNotVerified),
		errors.Is(err, usecase.ErrProfileIncomplete),
		errors.Is(err, usecase.ErrNameRequired),
		errors.Is(err, usecase.ErrEmailRequired),
		errors.Is(err, usecase.ErrInvalidYear),
		errors.Is(err, usecase.ErrInvalidPassType):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())

	default:
		logger.Error("Unclassified error in handler", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
