package academics

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

// Handler serves the academics administration screens.
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

// MountRoutes registers academics admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermAcademicsView, shared.PermAcademicsEdit))
		r.Get("/", h.listSchools)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermAcademicsEdit))
		r.Post("/schools", h.createSchool)
		r.Post("/schools/{id}", h.updateSchool)
		r.Post("/schools/{id}/delete", h.deleteSchool)
		r.Post("/programmes", h.createProgramme)
		r.Post("/programmes/{id}", h.updateProgramme)
		r.Post("/programmes/{id}/delete", h.deleteProgramme)
	})
}

func (h *Handler) listSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.service.ListSchools(r.Context())
	if err != nil {
		h.logger.Error("list schools", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	programmes, err := h.service.ListProgrammes(r.Context(), 0)
	if err != nil {
		h.logger.Error("list programmes", slog.Any("error", err))
	}
	h.render(w, r, map[string]any{"Schools": schools, "Programmes": programmes}, http.StatusOK)
}

func (h *Handler) createSchool(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := SchoolInput{Name: r.PostFormValue("name"), Description: r.PostFormValue("description")}
	if _, err := h.service.CreateSchool(r.Context(), in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "School created")
}

func (h *Handler) updateSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := SchoolInput{Name: r.PostFormValue("name"), Description: r.PostFormValue("description")}
	if _, err := h.service.UpdateSchool(r.Context(), id, in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "School updated")
}

func (h *Handler) deleteSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSchool(r.Context(), id); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "School deleted")
}

func (h *Handler) createProgramme(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseProgrammeForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateProgramme(r.Context(), in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Programme created")
}

func (h *Handler) updateProgramme(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.parseProgrammeForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.UpdateProgramme(r.Context(), id, in); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Programme updated")
}

func (h *Handler) deleteProgramme(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProgramme(r.Context(), id); err != nil {
		h.respondMutationError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "success", "Programme deleted")
}

func (h *Handler) parseProgrammeForm(w http.ResponseWriter, r *http.Request) (ProgrammeInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return ProgrammeInput{}, false
	}
	schoolID, _ := strconv.ParseInt(r.PostFormValue("school_id"), 10, 64)
	duration, _ := strconv.Atoi(r.PostFormValue("duration_years"))
	return ProgrammeInput{
		SchoolID:      schoolID,
		Name:          r.PostFormValue("name"),
		Level:         r.PostFormValue("level"),
		DurationYears: duration,
		Description:   r.PostFormValue("description"),
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
		h.logger.Error("academics admin", slog.Any("error", err))
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
	viewData := view.TemplateData{Title: "Academics", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/academics/admin.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/admin/academics", http.StatusSeeOther)
}

// PublicHandler serves the public schools and programmes pages.
type PublicHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewPublicHandler builds PublicHandler instance.
func NewPublicHandler(logger *slog.Logger, service *Service, templates *view.Engine) *PublicHandler {
	return &PublicHandler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers the public academics routes.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listSchools)
	r.Get("/{slug}", h.showSchool)
}

func (h *PublicHandler) listSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.service.ListSchools(r.Context())
	if err != nil {
		h.logger.Error("list schools", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{Title: "Schools", CurrentPath: r.URL.Path, Data: map[string]any{"Schools": schools}}
	if err := h.templates.Render(w, "pages/academics/list.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *PublicHandler) showSchool(w http.ResponseWriter, r *http.Request) {
	school, err := h.service.GetSchoolBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	data := view.TemplateData{Title: school.Name, CurrentPath: r.URL.Path, Data: map[string]any{"School": school}}
	if err := h.templates.Render(w, "pages/academics/show.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}
