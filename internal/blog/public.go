package blog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// PublicHandler serves the public-facing news pages. Only published posts
// are visible here.
type PublicHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewPublicHandler builds PublicHandler instance.
func NewPublicHandler(logger *slog.Logger, service *Service, templates *view.Engine) *PublicHandler {
	return &PublicHandler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers the public news routes.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listNews)
	r.Get("/{slug}", h.showArticle)
}

func (h *PublicHandler) listNews(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	posts, pagination, err := h.service.ListPublished(r.Context(), r.URL.Query().Get("category"), r.URL.Query().Get("tag"), page)
	if err != nil {
		h.logger.Error("list news", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
	}
	h.renderPage(w, r, "pages/news/list.html", "News", map[string]any{
		"Posts":      posts,
		"Pagination": pagination,
		"Categories": categories,
	})
}

func (h *PublicHandler) showArticle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.service.GetPublishedBySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.renderPage(w, r, "pages/news/show.html", post.Title, map[string]any{"Post": post})
}

func (h *PublicHandler) renderPage(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
	viewData := view.TemplateData{Title: title, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
