package httphandler

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/credgate/internal/application"
	"github.com/ericfisherdev/credgate/internal/domain/model"
	"github.com/ericfisherdev/credgate/internal/domain/port/driven"
)

// CreateAccount provisions a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAccountError(w, "create account", req.Username, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

// ChangePassword replaces an account password after verifying the old one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), username, req.OldPassword, req.NewPassword); err != nil {
		h.writeAccountError(w, "change password", username, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DisableAccount excludes an account from login. The holder must present the
// current password.
func (h *Handler) DisableAccount(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req DisableAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.DisableOwn(r.Context(), username, req.Password); err != nil {
		h.writeAccountError(w, "disable account", username, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeAccountError maps account service errors to HTTP responses.
func (h *Handler) writeAccountError(w http.ResponseWriter, op, username string, err error) {
	switch {
	case errors.Is(err, application.ErrAccountsUnavailable):
		writeError(w, http.StatusServiceUnavailable, "account management is not configured")
	case errors.Is(err, application.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, "username is required and must not contain tabs or newlines")
	case errors.Is(err, model.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrAccessDenied):
		writeError(w, http.StatusUnauthorized, application.RejectionMessage)
	case errors.Is(err, driven.ErrAccountExists):
		writeError(w, http.StatusConflict, "account already exists")
	case errors.Is(err, driven.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	default:
		h.logger.Error("account operation failed", "op", op, "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
