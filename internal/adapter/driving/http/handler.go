// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/credgate/internal/application"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// Reloader triggers an out-of-band credential store rebuild.
type Reloader interface {
	Trigger(ctx context.Context) (int, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth     *application.AuthService
	accounts *application.AccountService
	reloader Reloader
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	accounts *application.AccountService,
	reloader Reloader,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		accounts: accounts,
		reloader: reloader,
		logger:   logger,
	}
}

// RegisterAPIRoutes registers all /api/v1 routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/login", h.Login)
	mux.HandleFunc("POST /api/v1/accounts", h.CreateAccount)
	mux.HandleFunc("PUT /api/v1/accounts/{username}/password", h.ChangePassword)
	mux.HandleFunc("POST /api/v1/accounts/{username}/disable", h.DisableAccount)
	mux.HandleFunc("POST /api/v1/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with the standard middleware chain.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Login checks a username/password pair. Both failure modes of the pair
// produce the same 401 body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := h.auth.Login(r.Context(), req.Username, req.Password)
	if !result.Accepted {
		writeError(w, http.StatusUnauthorized, application.RejectionMessage)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Accepted: true,
		Username: result.Username,
		Message:  result.Message(),
	})
}

// Reload rebuilds the credential store from its sources.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	count, err := h.reloader.Trigger(r.Context())
	if err != nil {
		h.logger.Error("credential reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}

	writeJSON(w, http.StatusOK, ReloadResponse{Credentials: count})
}

// Health reports liveness and the size of the published credential store.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Credentials: h.auth.Store().Len(),
	})
}

// decodeJSON decodes a bounded JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
