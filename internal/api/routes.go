package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)

			r.Route("/{campaignID}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Put("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)

				r.Post("/duplicate", h.DuplicateCampaign)
				r.Post("/reset", h.ResetCampaign)
				r.Post("/leads", h.UploadLeads)
				r.Post("/template", h.UploadTemplate)
				r.Post("/start", h.StartCampaign)
				r.Post("/stop", h.StopCampaign)
				r.Post("/schedule", h.ScheduleCampaign)
				r.Get("/stats", h.GetCampaignStats)
				r.Get("/history", h.GetCampaignHistory)
			})
		})

		r.Route("/senders", func(r chi.Router) {
			r.Get("/", h.ListSenders)
			r.Post("/", h.CreateSender)
			r.Delete("/{senderID}", h.DeleteSender)
			r.Post("/{senderID}/health", h.CheckSenderHealth)
		})

		r.Get("/logs", h.GetEmailLogs)
		r.Get("/supervisor/status", h.GetSupervisorStatus)
	})

	return r
}
