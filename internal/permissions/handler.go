package permissions

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

// Handler manages permission administration endpoints.
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

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermPermissionsView, shared.PermPermissionsEdit))
		r.Get("/", h.listPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireSuperAuthority())
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createPermission)
		r.Post("/{id}", h.updatePermission)
		r.Post("/{id}/delete", h.deletePermission)
		r.Post("/{id}/roles", h.replaceRoles)
	})
}

type formErrors map[string]string

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		h.render(w, r, "pages/permissions/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/permissions/list.html", map[string]any{"Permissions": perms}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/permissions/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	description := r.PostFormValue("description")
	roleIDs := parseIDList(r.PostForm["role_ids"])

	if _, err := h.service.CreatePermission(r.Context(), name, description, roleIDs); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.render(w, r, "pages/permissions/form.html", map[string]any{
				"Errors": formErrors{"name": "A permission with that name already exists."},
				"Form":   map[string]string{"Name": name, "Description": description},
			}, http.StatusConflict)
			return
		}
		h.logger.Error("create permission", slog.Any("error", err))
		h.render(w, r, "pages/permissions/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission created")
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := UpdateInput{}
	if r.PostForm.Has("name") {
		name := r.PostFormValue("name")
		in.Name = &name
	}
	if r.PostForm.Has("description") {
		description := r.PostFormValue("description")
		in.Description = &description
	}
	if _, err := h.service.UpdatePermission(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.redirectWithFlash(w, r, "/admin/permissions", "error", "A permission with that name already exists.")
			return
		}
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission updated")
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission deleted")
}

func (h *Handler) replaceRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	roleIDs := parseIDList(r.PostForm["role_ids"])
	if err := h.service.ReplaceRoles(r.Context(), id, roleIDs); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/permissions", "success", "Permission roles updated")
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.logger.Error("permissions admin", slog.Any("error", err))
	h.redirectWithFlash(w, r, "/admin/permissions", "error", shared.UserSafeMessage(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Permissions", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func parseIDList(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
