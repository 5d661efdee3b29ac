package site

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// Handler serves the public home, about and contact pages.
type Handler struct {
	logger     *slog.Logger
	news       *blog.Service
	academics  *academics.Service
	facilities *facilities.Service
	sitemap    *SitemapBuilder
	templates  *view.Engine
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, news *blog.Service, acad *academics.Service, fac *facilities.Service, sitemap *SitemapBuilder, templates *view.Engine) *Handler {
	return &Handler{logger: logger, news: news, academics: acad, facilities: fac, sitemap: sitemap, templates: templates}
}

// MountRoutes registers the public site routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/about", h.about)
	r.Get("/contact", h.contact)
	r.Get("/sitemap.xml", h.sitemapXML)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	latest, err := h.news.LatestPublished(r.Context(), 4)
	if err != nil {
		h.logger.Error("latest news", slog.Any("error", err))
	}
	schools, err := h.academics.ListSchools(r.Context())
	if err != nil {
		h.logger.Error("list schools", slog.Any("error", err))
	}
	h.renderPage(w, r, "pages/home.html", "Levy Mwanawasa Medical University", map[string]any{
		"LatestNews": latest,
		"Schools":    schools,
	})
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "pages/about.html", "About", nil)
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "pages/contact.html", "Contact", nil)
}

func (h *Handler) sitemapXML(w http.ResponseWriter, r *http.Request) {
	data, err := h.sitemap.Cached(r.Context())
	if err != nil {
		h.logger.Error("sitemap", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
	viewData := view.TemplateData{Title: title, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
