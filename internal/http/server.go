package httpapi

import (
	"log"
	"net/http"
	"time"

	"techtimecapsule-backend-go/internal/config"
	"techtimecapsule-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

const sessionIssuer = "techtimecapsule"

type Server struct {
	DB        *sqlx.DB
	Config    config.Config
	Creds     services.Credentials
	StartedAt time.Time
	Logger    *log.Logger
}

func NewServer(db *sqlx.DB, cfg config.Config) *Server {
	return &Server{
		DB:     db,
		Config: cfg,
		Creds: services.Credentials{
			Secret: []byte(cfg.SecretKey),
			Issuer: sessionIssuer,
		},
		StartedAt: time.Now(),
		Logger:    log.Default(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(s.LoadSession)

		api.Get("/", s.Index)
		api.Get("/status", s.Status)
		api.Get("/trivia", s.Trivia)

		api.Post("/signup", s.Signup)
		api.Post("/login", s.Login)
		api.Delete("/logout", s.Logout)
		api.Get("/check_session", s.CheckSession)
		api.With(RequireSession).Delete("/me", s.DeleteAccount)

		api.Route("/events", func(events chi.Router) {
			events.Get("/", s.ListEvents)
			events.Get("/featured", s.FeaturedEvents)
			events.Get("/{eventId}", s.GetEvent)
			events.Group(func(owner chi.Router) {
				owner.Use(RequireSession)
				owner.Post("/", s.CreateEvent)
				owner.Patch("/{eventId}", s.UpdateEvent)
				owner.Delete("/{eventId}", s.DeleteEvent)
			})
		})

		api.Route("/categories", func(categories chi.Router) {
			categories.Get("/", s.ListCategories)
			categories.Get("/{categoryId}", s.GetCategory)
			categories.Group(func(owner chi.Router) {
				owner.Use(RequireSession)
				owner.Post("/", s.CreateCategory)
				owner.Delete("/{categoryId}", s.DeleteCategory)
			})
		})
	})
	return r
}
