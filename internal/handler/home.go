package handler

import (
	"net/http"

	"github.com/theoryboard/theoryboard/assets"
	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"github.com/theoryboard/theoryboard/internal/ui"
	"github.com/theoryboard/theoryboard/internal/ui/pages"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// HomePage sends signed-in users to the feed and everyone else to sign in
func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	if ctxkeys.Session(r.Context()).Live() {
		http.Redirect(w, r, "/feed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}

func (h *HomeHandler) DefaultAvatar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFileFS(w, r, assets.AssetsFS, assets.DefaultAvatar)
}

func (h *HomeHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// redirect uses HX-Redirect for htmx requests so the browser does a full page load
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if ui.IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
