package pages

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// Handler serves the static page shells and assets for the web client.
// The shells carry no server-side data; all state lives in the browser.
type Handler struct {
	tmpl      *template.Template
	staticDir string
}

// New parses the page templates under dir/templates and prepares the
// static file server for dir/static.
func New(dir string) (*Handler, error) {
	tmpl, err := template.ParseGlob(filepath.Join(dir, "templates", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Handler{
		tmpl:      tmpl,
		staticDir: filepath.Join(dir, "static"),
	}, nil
}

// RegisterRoutes registers the page routes on the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page("index.html"))
	r.Get("/onboarding", h.page("onboarding.html"))
	r.Get("/chat", h.page("chat.html"))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.tmpl.ExecuteTemplate(w, name, nil); err != nil {
			log.Printf("[pages] failed to render %s: %v", name, err)
		}
	}
}
