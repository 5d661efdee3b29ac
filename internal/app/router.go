package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/auth"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/observability"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/permissions"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/httpx"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/roles"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/site"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/users"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/jobs"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/web"
)

// RouterParams aggregates the handlers mounted on the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Guard          authz.Middleware

	Auth            *auth.Handler
	Site            *site.Handler
	News            *blog.PublicHandler
	Schools         *academics.PublicHandler
	Campus          *facilities.PublicHandler
	BlogAdmin       *blog.Handler
	AcademicsAdmin  *academics.Handler
	FacilitiesAdmin *facilities.Handler
	Roles           *roles.Handler
	Permissions     *permissions.Handler
	Users           *users.Handler
	Jobs            *jobs.Handler
}

// NewRouter assembles the chi router with the full middleware stack and all
// public and admin route groups.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	params.Site.MountRoutes(r)
	r.Route("/auth", params.Auth.MountRoutes)
	r.Route("/news", params.News.MountRoutes)
	r.Route("/schools", params.Schools.MountRoutes)
	r.Route("/facilities", params.Campus.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Route("/blog", params.BlogAdmin.MountRoutes)
		r.Route("/academics", params.AcademicsAdmin.MountRoutes)
		r.Route("/facilities", params.FacilitiesAdmin.MountRoutes)
		r.Route("/roles", params.Roles.MountRoutes)
		r.Route("/permissions", params.Permissions.MountRoutes)
		r.Route("/users", params.Users.MountRoutes)
		if params.Jobs != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.Guard.RequireSuperAuthority())
				r.Route("/jobs", params.Jobs.MountRoutes)
			})
		}
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", staticCacheHandler(http.FileServer(http.FS(staticFS)))))
	} else if params.Logger != nil {
		params.Logger.Error("static assets unavailable", slog.Any("error", err))
	}

	return r
}

func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
