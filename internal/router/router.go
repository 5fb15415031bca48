package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/cache"
	"github.com/Gen7Fuel/thehub-sub000/internal/cdn"
	"github.com/Gen7Fuel/thehub-sub000/internal/config"
	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
	"github.com/Gen7Fuel/thehub-sub000/internal/handler"
	"github.com/Gen7Fuel/thehub-sub000/internal/mailer"
	"github.com/Gen7Fuel/thehub-sub000/internal/metrics"
	mw "github.com/Gen7Fuel/thehub-sub000/internal/middleware"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
	sftpclient "github.com/Gen7Fuel/thehub-sub000/internal/sftp"
	"github.com/Gen7Fuel/thehub-sub000/internal/tasks"
	"github.com/Gen7Fuel/thehub-sub000/internal/ws"
)

// Deps carries everything the route tree needs. Built once in main.
type Deps struct {
	Config     *config.Config
	Queries    *database.Queries
	Hub        *ws.Hub
	Cache      *cache.Cache
	Queue      *tasks.Queue
	Submission *service.Submission
	ReportSync *service.ReportSync
	Resolver   *service.PermissionResolver
	SFTP       *sftpclient.Factory
	CDN        *cdn.Client
	Mailer     *mailer.Mailer
	Logger     *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Authentication, site scoping, and permission middleware are applied
// per group.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",           // dev frontend
			"https://thehub.gen7fuel.com",     // production
			"https://stg-thehub.gen7fuel.com", // staging
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	authHandler := handler.NewAuthHandler(d.Queries, d.Cache, d.Queue, d.Mailer, d.Config.JWTSecret, d.Logger)
	r.Route("/auth", authHandler.RegisterPublicRoutes)

	// WebSocket route (authenticates via query param internally)
	r.Get("/ws/sites/{site}/feed", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Config.JWTSecret, d.Logger, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.Config.JWTSecret, d.Cache))

		r.Route("/auth/session", authHandler.RegisterProtectedRoutes)

		siteHandler := handler.NewSiteHandler(d.Queries, d.Logger)
		r.Get("/sites", siteHandler.List)

		// Admin-only, not site-scoped
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			r.Post("/sites", siteHandler.Create)

			roleHandler := handler.NewRoleHandler(d.Queries, d.Logger)
			r.Route("/roles", roleHandler.RegisterRoutes)
			r.Route("/permission-registry", roleHandler.RegisterRegistryRoutes)

			auditHandler := handler.NewAuditHandler(d.Queries, d.Logger)
			r.Route("/audit-logs", auditHandler.RegisterRoutes)
		})

		vendorHandler := handler.NewVendorHandler(d.Queries, d.Logger)
		r.Route("/vendors", func(r chi.Router) {
			r.Use(mw.RequirePermission(d.Resolver, "payables"))
			vendorHandler.RegisterRoutes(r)
		})

		// Site-scoped routes
		r.Route("/sites/{site}", func(r chi.Router) {
			r.Use(mw.RequireSite)

			r.Get("/", siteHandler.Get)

			safesheetHandler := handler.NewSafesheetHandler(d.Queries, d.Logger)
			r.Route("/safesheet", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "safesheet"))
				safesheetHandler.RegisterRoutes(r)
			})

			summaryHandler := handler.NewCashSummaryHandler(d.Queries, d.Submission, d.ReportSync, d.Config.Mail.SummaryRecipient, d.Logger)
			r.Route("/cash-summaries", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "cash_summaries"))
				summaryHandler.RegisterRoutes(r)
			})

			payableHandler := handler.NewPayableHandler(d.Queries, d.Submission, d.Queue, d.Logger)
			r.Route("/payables", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "payables"))
				payableHandler.RegisterRoutes(r)
			})

			fleetHandler := handler.NewFleetHandler(d.Queries, d.Logger)
			r.Route("/fleet-cards", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "fleet_cards"))
				fleetHandler.RegisterRoutes(r)
			})

			writeOffHandler := handler.NewWriteOffHandler(d.Queries, d.Logger)
			r.Route("/write-offs", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "write_offs"))
				writeOffHandler.RegisterRoutes(r)
			})

			cycleHandler := handler.NewCycleCountHandler(d.Queries, d.Logger)
			r.Route("/cycle-counts", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "cycle_counts"))
				cycleHandler.RegisterRoutes(r)
			})

			uploadHandler := handler.NewUploadHandler(d.CDN, d.Logger)
			r.Route("/uploads", uploadHandler.RegisterRoutes)

			sftpHandler := handler.NewSFTPFileHandler(d.SFTP, d.Logger)
			r.Route("/files", func(r chi.Router) {
				r.Use(mw.RequirePermission(d.Resolver, "files"))
				sftpHandler.RegisterRoutes(r)
			})

			userHandler := handler.NewUserHandler(d.Queries, d.Resolver, d.Logger)
			r.Route("/users", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				userHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}
