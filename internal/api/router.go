package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flowmasterhq/flowmaster-be/internal/api/handlers"
	"github.com/flowmasterhq/flowmaster-be/internal/auth"
	"github.com/flowmasterhq/flowmaster-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	tokens *auth.Service,
	userService services.UserServiceProvider,
	taskService services.TaskServiceProvider,
	cardService services.DailyCardServiceProvider,
	corsOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	taskHandler := handlers.NewTaskHandler(taskService)
	cardHandler := handlers.NewDailyCardHandler(cardService)

	requireAuth := tokens.Middleware(userService)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Welcome to FlowMaster API"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "FlowMaster API is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.GetMe)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", taskHandler.GetAll)
			r.Post("/", taskHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Put("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
				r.Put("/complete", taskHandler.Complete)
				r.Put("/move", taskHandler.Move)
			})
		})

		r.Route("/daily-cards", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cardHandler.GetAll)
			r.Post("/", cardHandler.Create)
			r.Get("/today", cardHandler.GetToday)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", cardHandler.Update)
				r.Post("/accomplishments", cardHandler.AddAccomplishment)
			})
		})
	})

	return r
}
