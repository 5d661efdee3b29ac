package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/cmd/lmmuweb/cli"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/academics"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/app"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/auth"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/authz"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/blog"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/facilities"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/observability"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/permissions"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/cache"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/platform/db"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/roles"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/site"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/users"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/view"
	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/jobs"
)

// permissionCatalogue adapts the permission service to the selectable
// catalogue the role forms expect.
type permissionCatalogue struct {
	svc *permissions.Service
}

func (c permissionCatalogue) ListAll(ctx context.Context) ([]roles.PermissionRef, error) {
	perms, err := c.svc.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]roles.PermissionRef, 0, len(perms))
	for _, p := range perms {
		refs = append(refs, roles.PermissionRef{ID: p.ID, Name: p.Name})
	}
	return refs, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(os.Args[2:]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "lmmu_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	authzRepo := authz.NewRepository(dbpool)
	authzService := authz.NewService(authzRepo, logger)
	guard := authz.Middleware{Service: authzService, Logger: logger, Denials: metrics}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsService := permissions.NewService(permissionsRepo)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	blogRepo := blog.NewPGRepository(dbpool)
	blogService := blog.NewService(blogRepo, logger)

	academicsRepo := academics.NewPGRepository(dbpool)
	academicsService := academics.NewService(academicsRepo)

	facilitiesRepo := facilities.NewPGRepository(dbpool)
	facilitiesService := facilities.NewService(facilitiesRepo)

	sitemapBuilder := site.NewSitemapBuilder(cfg.BaseURL, blogService, academicsService, facilitiesService, redisClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Metrics:         metrics,
		Guard:           guard,
		Auth:            authHandler,
		Site:            site.NewHandler(logger, blogService, academicsService, facilitiesService, sitemapBuilder, templates),
		News:            blog.NewPublicHandler(logger, blogService, templates),
		Schools:         academics.NewPublicHandler(logger, academicsService, templates),
		Campus:          facilities.NewPublicHandler(logger, facilitiesService, templates),
		BlogAdmin:       blog.NewHandler(logger, blogService, templates, csrfManager, sessionManager, guard),
		AcademicsAdmin:  academics.NewHandler(logger, academicsService, templates, csrfManager, sessionManager, guard),
		FacilitiesAdmin: facilities.NewHandler(logger, facilitiesService, templates, csrfManager, sessionManager, guard),
		Roles:           roles.NewHandler(logger, rolesService, permissionCatalogue{svc: permissionsService}, templates, csrfManager, sessionManager, guard),
		Permissions:     permissions.NewHandler(logger, permissionsService, templates, csrfManager, sessionManager, guard),
		Users:           users.NewHandler(logger, usersService, authzService, templates, csrfManager, sessionManager, guard),
		Jobs:            jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runJobsCommand serves the "jobs" subcommand used by operators to trigger
// or inspect background work without going through the admin UI.
func runJobsCommand(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	ops, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init jobs cli: %v\n", err)
		return 1
	}
	defer func() {
		_ = ops.Close()
	}()

	ctx := context.Background()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: lmmuweb jobs <trigger <task>|stats|scheduled>")
		return 2
	}
	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: lmmuweb jobs trigger <task>")
			return 2
		}
		info, err := ops.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := ops.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		tasks, err := ops.ListScheduled(ctx, 10)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scheduled: %v\n", err)
			return 1
		}
		for _, t := range tasks {
			fmt.Printf("%s id=%s next=%s\n", t.Type, t.ID, t.NextProcessAt.Format(time.RFC3339))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return 2
	}
	return 0
}
