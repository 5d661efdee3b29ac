package roles

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// PermissionCatalogue supplies the selectable permissions for role forms.
type PermissionCatalogue interface {
	ListAll(ctx context.Context) ([]PermissionRef, error)
}

// Handler manages role administration endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	permissions PermissionCatalogue
	templates   *view.Engine
	csrf        *shared.CSRFManager
	sessions    *shared.SessionManager
	authz       authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, permissions PermissionCatalogue, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, permissions: permissions, templates: templates, csrf: csrf, sessions: sessions, authz: guard}
}

// MountRoutes registers role routes. Listing needs the view capability;
// every mutation is reserved for superuser accounts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermRolesView, shared.PermRolesEdit))
		r.Get("/", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireSuperAuthority())
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createRole)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updateRole)
		r.Post("/{id}/delete", h.deleteRole)
		r.Post("/{id}/permissions", h.replacePermissions)
	})
}

type formErrors map[string]string

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		h.render(w, r, "pages/roles/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles/list.html", map[string]any{"Roles": list}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	catalogue, err := h.permissions.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list permission catalogue", slog.Any("error", err))
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{}, "Catalogue": catalogue}, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	description := r.PostFormValue("description")
	permissionIDs := parseIDList(r.PostForm["permission_ids"])

	if _, err := h.service.CreateRole(r.Context(), name, description, permissionIDs); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.render(w, r, "pages/roles/form.html", map[string]any{
				"Errors": formErrors{"name": "A role with that name already exists."},
				"Form":   map[string]string{"Name": name, "Description": description},
			}, http.StatusConflict)
			return
		}
		h.logger.Error("create role", slog.Any("error", err))
		h.render(w, r, "pages/roles/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	attached, err := h.service.ListPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err))
	}
	catalogue, err := h.permissions.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list permission catalogue", slog.Any("error", err))
	}
	h.render(w, r, "pages/roles/form.html", map[string]any{
		"Errors":    formErrors{},
		"Role":      role,
		"Attached":  attached,
		"Catalogue": catalogue,
	}, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
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
	if _, err := h.service.UpdateRole(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.redirectWithFlash(w, r, "/admin/roles", "error", "A role with that name already exists.")
			return
		}
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role updated")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role deleted")
}

func (h *Handler) replacePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	permissionIDs := parseIDList(r.PostForm["permission_ids"])
	if err := h.service.ReplacePermissions(r.Context(), id, permissionIDs); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role permissions updated")
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
	h.logger.Error("roles admin", slog.Any("error", err))
	h.redirectWithFlash(w, r, "/admin/roles", "error", shared.UserSafeMessage(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
