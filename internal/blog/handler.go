package blog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
)

// Handler serves the blog administration screens.
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

// MountRoutes registers blog admin routes. Viewing needs blog.view or
// blog.edit; publishing has its own capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermBlogView, shared.PermBlogEdit))
		r.Get("/", h.listPosts)
		r.Get("/{id}", h.showPost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermBlogEdit))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.createPost)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.updatePost)
		r.Post("/{id}/delete", h.deletePost)
		r.Post("/{id}/images", h.attachImage)
		r.Post("/images/{imageID}/delete", h.deleteImage)
		r.Post("/categories", h.createCategory)
		r.Post("/categories/{id}/delete", h.deleteCategory)
		r.Post("/tags", h.createTag)
		r.Post("/tags/{id}/delete", h.deleteTag)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermBlogPublish))
		r.Post("/{id}/publish", h.publishPost)
	})
}

type formErrors map[string]string

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	posts, pagination, err := h.service.ListAdminPosts(r.Context(), page)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		h.render(w, r, "pages/blog/list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/blog/list.html", map[string]any{"Posts": posts, "Pagination": pagination}, http.StatusOK)
}

func (h *Handler) showPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	images, err := h.service.ListImages(r.Context(), id)
	if err != nil {
		h.logger.Error("list post images", slog.Any("error", err))
	}
	h.render(w, r, "pages/blog/show.html", map[string]any{"Post": post, "Images": images}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	categories, tags := h.formCatalogues(r)
	h.render(w, r, "pages/blog/form.html", map[string]any{"Errors": formErrors{}, "Categories": categories, "Tags": tags}, http.StatusOK)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	authorID, ok := currentUserID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	post, err := h.service.CreatePost(r.Context(), authorID, in)
	if err != nil {
		if errors.Is(err, shared.ErrValidation) {
			categories, tags := h.formCatalogues(r)
			h.render(w, r, "pages/blog/form.html", map[string]any{
				"Errors":     formErrors{"title": "Title is required."},
				"Categories": categories,
				"Tags":       tags,
			}, http.StatusBadRequest)
			return
		}
		h.logger.Error("create post", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin/blog", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog/"+strconv.FormatInt(post.ID, 10), "success", "Post created")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	categories, tags := h.formCatalogues(r)
	h.render(w, r, "pages/blog/form.html", map[string]any{
		"Errors":     formErrors{},
		"Post":       post,
		"Categories": categories,
		"Tags":       tags,
	}, http.StatusOK)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	in, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.UpdatePost(r.Context(), id, in); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog/"+strconv.FormatInt(id, 10), "success", "Post updated")
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.PublishPost(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog/"+strconv.FormatInt(id, 10), "success", "Post published")
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePost(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Post deleted")
}

func (h *Handler) attachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sizeBytes, _ := strconv.ParseInt(r.PostFormValue("size_bytes"), 10, 64)
	if _, err := h.service.AttachImage(r.Context(), id, r.PostFormValue("alt_text"), r.PostFormValue("mime_type"), sizeBytes); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog/"+strconv.FormatInt(id, 10), "success", "Image attached")
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "imageID")
	if !ok {
		return
	}
	if err := h.service.DeleteImage(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Image removed")
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateCategory(r.Context(), r.PostFormValue("name"), r.PostFormValue("description")); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.redirectWithFlash(w, r, "/admin/blog", "error", "A category with that name already exists.")
			return
		}
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Category created")
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Category deleted")
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateTag(r.Context(), r.PostFormValue("name")); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			h.redirectWithFlash(w, r, "/admin/blog", "error", "A tag with that name already exists.")
			return
		}
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Tag created")
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTag(r.Context(), id); err != nil {
		h.respondLookupError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, "/admin/blog", "success", "Tag deleted")
}

func (h *Handler) parsePostForm(w http.ResponseWriter, r *http.Request) (PostInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return PostInput{}, false
	}
	in := PostInput{
		Title:      r.PostFormValue("title"),
		Excerpt:    r.PostFormValue("excerpt"),
		Body:       r.PostFormValue("body"),
		TagIDs:     parseIDList(r.PostForm["tag_ids"]),
		PublishNow: r.PostFormValue("publish_now") == "1",
	}
	if v := r.PostFormValue("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			in.CategoryID = &id
		}
	}
	if v := r.PostFormValue("publish_at"); v != "" {
		if t, err := time.Parse("2006-01-02T15:04", v); err == nil {
			in.PublishAt = &t
		}
	}
	return in, true
}

func (h *Handler) formCatalogues(r *http.Request) ([]Category, []Tag) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
	}
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		h.logger.Error("list tags", slog.Any("error", err))
	}
	return categories, tags
}

func currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
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
	h.logger.Error("blog admin", slog.Any("error", err))
	h.redirectWithFlash(w, r, "/admin/blog", "error", shared.UserSafeMessage(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Blog", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
