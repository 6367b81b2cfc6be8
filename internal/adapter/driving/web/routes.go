package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the login pages on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.LoginPage)
	mux.HandleFunc("POST /login", h.Login)
}
