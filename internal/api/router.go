package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/h2credits-backend/internal/api/handlers"
	"github.com/baharkarakas/h2credits-backend/internal/auth"
	"github.com/baharkarakas/h2credits-backend/internal/config"
	"github.com/baharkarakas/h2credits-backend/internal/metrics"
	"github.com/baharkarakas/h2credits-backend/internal/middleware"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	"github.com/baharkarakas/h2credits-backend/internal/services"
)

type Services struct {
	Users         *services.UserService
	Credits       *services.CreditService
	Listing       *services.ListingService
	Trading       *services.TradingService
	Bids          *services.BidService
	Partnerships  *services.PartnershipService
	Notifications *services.NotificationService
}

func NewRouter(cfg config.Config, svc Services, tm *auth.TokenManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS, cfg.RateBurst, cfg.TrustedProxies))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(svc.Users, tm)
	creditH := handlers.NewCreditHandler(svc.Credits, svc.Listing, svc.Trading)
	bidH := handlers.NewBidHandler(svc.Bids, svc.Trading, cfg.BidExpiry)
	partnerH := handlers.NewPartnershipHandler(svc.Partnerships)
	meH := handlers.NewMeHandler(svc.Users, svc.Credits, svc.Bids, svc.Partnerships, svc.Notifications)
	adminH := handlers.NewAdminHandler(svc.Users)
	authMW := middleware.NewAuthMiddleware(tm, cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- public ----------
		r.Post("/wallet/connect", authH.Connect)
		r.Post("/auth/refresh", authH.Refresh)
		r.Get("/credits", creditH.ListAvailable)
		r.Get("/credits/{id}", creditH.Get)
		r.Get("/credits/{id}/certifications", creditH.Certifications)
		r.Get("/credits/{id}/transactions", creditH.History)
		r.Get("/market/stats", creditH.MarketStats)

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Post("/credits", creditH.Create)
			r.Post("/credits/{id}/buy", creditH.Buy)
			r.Post("/credits/{id}/list", creditH.List)
			r.Post("/credits/{id}/unlist", creditH.Unlist)
			r.Post("/credits/{id}/retire", creditH.Retire)
			r.Post("/credits/{id}/certifications", creditH.AddCertification)
			r.Post("/credits/{id}/bids", bidH.Place)
			r.Get("/credits/{id}/bids", bidH.ListForCredit)

			r.Post("/bids/{id}/accept", bidH.Accept)
			r.Post("/bids/{id}/reject", bidH.Reject)

			r.Post("/partnerships", partnerH.Create)
			r.Post("/partnerships/{id}/activate", partnerH.Activate)
			r.Post("/partnerships/{id}/cancel", partnerH.Cancel)

			r.Post("/notifications/{id}/read", meH.MarkNotificationRead)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", meH.Profile)
				r.Get("/credits", meH.Credits)
				r.Get("/bids", meH.Bids)
				r.Get("/transactions", meH.Transactions)
				r.Get("/portfolio", meH.Portfolio)
				r.Get("/notifications", meH.Notifications)
				r.Get("/partnerships", meH.Partnerships)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/users", adminH.ListUsers)
				r.Put("/users/{id}/verification", adminH.SetVerification)
			})
		})
	})

	return r
}
