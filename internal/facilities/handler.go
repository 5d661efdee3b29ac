package facilities

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// Handler serves the facilities administration screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	authz     authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, authz: guard}
}

// MountRoutes registers facilities admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermFacilitiesView, shared.PermFacilitiesEdit))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermFacilitiesEdit))
		r.Post("/", h.create)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list facilities", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{"Facilities": facilities}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Create(r.Context(), in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Facility created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Facility updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Facility deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Input{}, false
	}
	return Input{
		Name:        r.PostFormValue("name"),
		Summary:     r.PostFormValue("summary"),
		Description: r.PostFormValue("description"),
		Location:    r.PostFormValue("location"),
	}, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondMutationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if !errors.Is(err, shared.ErrDuplicate) && !errors.Is(err, shared.ErrValidation) {
		h.logger.Error("facilities admin", slog.Any("error", err))
	}
	h.redirectWithFlash(w, r, "error", shared.UserSafeMessage(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Facilities", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/facilities/admin.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/admin/facilities", http.StatusSeeOther)
}

// PublicHandler serves the public facilities pages.
type PublicHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewPublicHandler builds PublicHandler instance.
func NewPublicHandler(logger *slog.Logger, service *Service, templates *view.Engine) *PublicHandler {
	return &PublicHandler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers the public facilities routes.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.show)
}

func (h *PublicHandler) list(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list facilities", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{Title: "Facilities", CurrentPath: r.URL.Path, Data: map[string]any{"Facilities": facilities}}
	if err := h.templates.Render(w, "pages/facilities/list.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *PublicHandler) show(w http.ResponseWriter, r *http.Request) {
	facility, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	data := view.TemplateData{Title: facility.Name, CurrentPath: r.URL.Path, Data: map[string]any{"Facility": facility}}
	if err := h.templates.Render(w, "pages/facilities/show.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
