package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *authz.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *authz.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		templates: templates,
		csrf:      csrf,
		sessions:  sessions,
		authz:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermUsersView, shared.PermUsersEdit))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireSuperAuthority())
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createUser)
		r.Post("/{id}", h.updateUser)
		r.Post("/{id}/delete", h.deleteUser)
		r.Post("/{id}/roles", h.replaceRoles)
		r.Post("/{id}/permissions", h.replaceDirectPermissions)
	})
}

type formErrors map[string]string

type createUserForm struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		h.render(w, r, "pages/users/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{"Users": list}, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	assigned, err := h.service.ListRoles(r.Context(), id)
	if err != nil {
		h.logger.Error("list user roles", slog.Any("error", err))
	}
	direct, err := h.service.ListDirectPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list user direct permissions", slog.Any("error", err))
	}
	effective := h.resolver.EffectiveCapabilities(r.Context(), id)
	h.render(w, r, "pages/users/detail.html", map[string]any{
		"User":      user,
		"Roles":     assigned,
		"Direct":    direct,
		"Effective": effective,
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := createUserForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := make(formErrors)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				errs[fieldErr.Field()] = fieldErr.Error()
			}
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/users/form.html", map[string]any{"Errors": errs, "Form": form}, http.StatusBadRequest)
		return
	}

	_, err := h.service.CreateUser(r.Context(), CreateInput{
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password,
		RoleLabel: r.PostFormValue("role"),
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.render(w, r, "pages/users/form.html", map[string]any{
				"Errors": formErrors{"general": "Username or email already in use."},
				"Form":   form,
			}, http.StatusConflict)
			return
		}
		h.logger.Error("create user", slog.Any("error", err))
		h.render(w, r, "pages/users/form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/admin/users", "success", "User created")
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := UpdateInput{}
	if r.PostForm.Has("username") {
		username := r.PostFormValue("username")
		in.Username = &username
	}
	if r.PostForm.Has("email") {
		email := r.PostFormValue("email")
		in.Email = &email
	}
	if r.PostForm.Has("role") {
		roleLabel := r.PostFormValue("role")
		in.RoleLabel = &roleLabel
	}
	if r.PostForm.Has("is_active") {
		active := r.PostFormValue("is_active") == "1"
		in.IsActive = &active
	}
	if _, err := h.service.UpdateUser(r.Context(), id, in); err != nil {
		switch {
		case errors.Is(err, shared.ErrLastAdmin):
			h.redirectWithFlash(w, r, "/admin/users", "error", shared.UserSafeMessage(err))
		case errors.Is(err, shared.ErrDuplicate):
			h.redirectWithFlash(w, r, "/admin/users", "error", "Username or email already in use.")
		default:
			h.respondLookupError(w, r, err)
		}
		return
	}
	h.redirectWithFlash(w, r, "/admin/users", "success", "User updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrLastAdmin) {
			h.redirectWithFlash(w, r, "/admin/users", "error", shared.UserSafeMessage(err))
			return
		}
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/users", "success", "User deleted")
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
	h.redirectWithFlash(w, r, "/admin/users", "success", "User roles updated")
}

func (h *Handler) replaceDirectPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	permissionIDs := parseIDList(r.PostForm["permission_ids"])
	if err := h.service.ReplaceDirectPermissions(r.Context(), id, permissionIDs); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/users", "success", "User permissions updated")
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
	h.logger.Error("users admin", slog.Any("error", err))
	h.redirectWithFlash(w, r, "/admin/users", "error", shared.UserSafeMessage(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Users", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
