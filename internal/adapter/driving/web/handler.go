// Package web implements the HTML login driving adapter using templ components.
package web

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/credgate/internal/application"
)

const maxFormBytes = 64 << 10

// Handler is the web driving adapter that serves the login pages.
type Handler struct {
	auth   *application.AuthService
	banner string // Sanitized HTML, empty when no banner is configured.
	logger *slog.Logger
}

// NewHandler creates a Handler. bannerMarkdown is rendered once and shown
// above the login form.
func NewHandler(auth *application.AuthService, bannerMarkdown string, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		banner: RenderMarkdown(bannerMarkdown),
		logger: logger,
	}
}

// LoginPage renders the login form and ensures a CSRF cookie is set.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)
	h.render(w, r, http.StatusOK, layout("Login Page", loginForm(token, h.banner)))
}

// Login handles the form submission and renders the welcome or error page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		h.logger.Warn("csrf validation failed", "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	result := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if !result.Accepted {
		h.render(w, r, http.StatusUnauthorized, layout("Error Page", messagePage(false, result.Message())))
		return
	}

	h.render(w, r, http.StatusOK, layout("Welcome Page", messagePage(true, result.Message())))
}

// render buffers the component so a render failure can still produce a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
