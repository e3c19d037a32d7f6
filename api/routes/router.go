package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetlink/backend/api/controllers"
	webhookcontrollers "github.com/vetlink/backend/api/controllers/webhooks"
	"github.com/vetlink/backend/api/middleware"
	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/internal/professionals"
	"github.com/vetlink/backend/internal/shops"
	subscriptionsvc "github.com/vetlink/backend/internal/subscriptions"
	"github.com/vetlink/backend/internal/verification"
	"github.com/vetlink/backend/pkg/config"
	"github.com/vetlink/backend/pkg/enums"
	"github.com/vetlink/backend/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config             *config.Config
	Logger             *logger.Logger
	DBPinger           controllers.Pinger
	CachePinger        controllers.Pinger
	SignatureValidator webhookcontrollers.SignatureValidator

	Subscriptions subscriptionsvc.Service
	Discovery     discovery.Service
	Verification  verification.Service
	Professionals professionals.Service
	Shops         shops.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DBPinger, deps.CachePinger, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: pricing and the payment gateway callback.
		r.Get("/subscriptions/pricing", controllers.SubscriptionPricing(deps.Subscriptions, logg))
		r.Post("/subscriptions/webhook", webhookcontrollers.Paystack(deps.Subscriptions, deps.SignatureValidator, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/{track}", controllers.SubscriptionInitiate(deps.Subscriptions, logg))
				r.Get("/verify", controllers.SubscriptionVerify(deps.Subscriptions, logg))
				r.Get("/me", controllers.SubscriptionSnapshot(deps.Subscriptions, logg))
				r.Delete("/me", controllers.SubscriptionCancel(deps.Subscriptions, logg))
			})

			r.With(middleware.RequireSubscription(deps.Subscriptions, logg)).
				Get("/discovery", controllers.DiscoverySearch(deps.Discovery, logg))

			r.Route("/professionals/me", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.AccountRoleProfessional, logg))
				r.Post("/", controllers.ProfessionalProfileCreate(deps.Professionals, logg))
				r.Get("/", controllers.ProfessionalProfileGet(deps.Professionals, logg))
				r.Put("/", controllers.ProfessionalProfileUpdate(deps.Professionals, logg))
			})

			r.Route("/shops/me", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.AccountRoleProfessional, logg))
				r.Post("/", controllers.ShopCreate(deps.Shops, logg))
				r.Get("/", controllers.ShopGet(deps.Shops, logg))
				r.Put("/", controllers.ShopUpdate(deps.Shops, logg))
				r.Delete("/", controllers.ShopDelete(deps.Shops, logg))
			})

			r.With(middleware.RequireRole(enums.AccountRoleProfessional, logg)).
				Post("/verification", controllers.VerificationSubmit(deps.Verification, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.AccountRoleAdmin, logg))
				r.Get("/verification", controllers.VerificationQueue(deps.Verification, logg))
				r.Post("/verification/{profileID}/review", controllers.VerificationReview(deps.Verification, logg))
				r.Get("/subscriptions/stats", controllers.SubscriptionStats(deps.Subscriptions, logg))
			})
		})
	})

	return r
}
