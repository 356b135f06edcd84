package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bizdesk/bizdesk/internal/auth"
	"github.com/bizdesk/bizdesk/internal/catalog/categories"
	"github.com/bizdesk/bizdesk/internal/catalog/products"
	"github.com/bizdesk/bizdesk/internal/dashboard"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/sales/customers"
	"github.com/bizdesk/bizdesk/internal/sales/quotes"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/suppliers"
	"github.com/bizdesk/bizdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthHandler       *auth.Handler
	AuthMiddleware    *auth.Middleware
	QuotesHandler     *quotes.Handler
	PayablesHandler   *payables.Handler
	CustomersHandler  *customers.Handler
	SuppliersHandler  *suppliers.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	SettingsHandler   *settings.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with bizdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.With(LoginLimiter(params.Config)).Post("/login", params.AuthHandler.Login)
			ar.With(params.AuthMiddleware.RequireCaller).Get("/me", params.AuthHandler.Me)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(params.AuthMiddleware.RequireCaller)
			if params.QuotesHandler != nil {
				pr.Route("/quotes", params.QuotesHandler.MountRoutes)
			}
			if params.PayablesHandler != nil {
				pr.Route("/accounts-payable", params.PayablesHandler.MountRoutes)
			}
			if params.CustomersHandler != nil {
				pr.Route("/customers", params.CustomersHandler.MountRoutes)
			}
			if params.SuppliersHandler != nil {
				pr.Route("/suppliers", params.SuppliersHandler.MountRoutes)
			}
			if params.CategoriesHandler != nil {
				pr.Route("/categories", params.CategoriesHandler.MountRoutes)
			}
			if params.ProductsHandler != nil {
				pr.Route("/products", params.ProductsHandler.MountRoutes)
			}
			if params.SettingsHandler != nil {
				pr.Route("/settings", params.SettingsHandler.MountRoutes)
			}
			if params.DashboardHandler != nil {
				pr.Route("/dashboard", params.DashboardHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				pr.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
