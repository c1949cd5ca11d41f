package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/kreasi-nusantara/compro/internal/audit/http"
	"github.com/kreasi-nusantara/compro/internal/auth"
	"github.com/kreasi-nusantara/compro/internal/content/categories"
	"github.com/kreasi-nusantara/compro/internal/content/clients"
	"github.com/kreasi-nusantara/compro/internal/content/company"
	"github.com/kreasi-nusantara/compro/internal/content/photos"
	"github.com/kreasi-nusantara/compro/internal/content/products"
	"github.com/kreasi-nusantara/compro/internal/content/projects"
	"github.com/kreasi-nusantara/compro/internal/content/services"
	"github.com/kreasi-nusantara/compro/internal/observability"
	"github.com/kreasi-nusantara/compro/internal/platform/httpx"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/roles"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/site"
	"github.com/kreasi-nusantara/compro/internal/upload"
	"github.com/kreasi-nusantara/compro/internal/users"
	"github.com/kreasi-nusantara/compro/jobs"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Cache          CacheBumper
	Metrics        *observability.Metrics
	Checks         map[string]Pinger

	AuthHandler        *auth.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	UsersHandler       *users.Handler
	AuditHandler       *audithttp.Handler
	UploadHandler      *upload.Handler
	JobHandler         *jobs.Handler

	SiteHandler       *site.Handler
	CompanyHandler    *company.Handler
	ServicesHandler   *services.Handler
	ProductsHandler   *products.Handler
	ProjectsHandler   *projects.Handler
	ClientsHandler    *clients.Handler
	CategoriesHandler *categories.Handler
	PhotosHandler     *photos.Handler
}

// NewRouter constructs the chi.Router with compro defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Cache:          params.Cache,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.Checks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Config != nil && params.Config.ServesMedia() {
		prefix := params.Config.UploadBaseURL
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(params.Config.UploadDir)))
		r.Handle(prefix+"/*", mediaCacheHandler(files))
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Public reads with guarded writes.
	if params.SiteHandler != nil {
		params.SiteHandler.MountRoutes(r)
	}
	if params.CompanyHandler != nil {
		r.Route("/company", params.CompanyHandler.MountRoutes)
	}
	if params.ServicesHandler != nil {
		r.Route("/services", params.ServicesHandler.MountRoutes)
	}
	if params.ProductsHandler != nil {
		r.Route("/products", params.ProductsHandler.MountRoutes)
	}
	if params.ProjectsHandler != nil {
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
	}
	if params.ClientsHandler != nil {
		r.Route("/clients", params.ClientsHandler.MountRoutes)
	}
	if params.CategoriesHandler != nil {
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
	}
	if params.PhotosHandler != nil {
		r.Route("/photos", params.PhotosHandler.MountRoutes)
	}

	// Admin area.
	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)
		r.Route("/roles", func(r chi.Router) {
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountPermissionRoutes)
			}
			if params.RolesHandler != nil {
				params.RolesHandler.MountRoutes(r)
			}
		})
		if params.PermissionsHandler != nil {
			r.Route("/menus", params.PermissionsHandler.MountMenuRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/admin", params.UsersHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/activity-logs", params.AuditHandler.MountRoutes)
		}
		if params.UploadHandler != nil {
			r.Route("/uploads", params.UploadHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.NotFound("halaman"))
	})
	return r
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		httpx.JSON(w, status, map[string]any{"status": state, "checks": report})
	}
}

// mediaCacheHandler marks uploaded media cacheable. Stored names are unique, so
// a replaced image always has a new URL.
func mediaCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		next.ServeHTTP(w, r)
	})
}
