package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Auth        AuthService
	Bookings    BookingService
	Clinics     ClinicService
	Posts       BlogService
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Log         *zap.Logger
	CORSOrigins []string
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	public := NewPublicHandler(cfg.Bookings, cfg.Clinics, cfg.Posts, cfg.Log)
	admin := NewAdminHandler(cfg.Auth, cfg.Bookings, cfg.Clinics, cfg.Posts, cfg.Log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/settings", public.GetSettings)
		r.Get("/appointment-types", public.ListAppointmentTypes)
		r.Get("/doctors", public.ListDoctors)
		r.Get("/slots", public.GetSlots)
		r.Post("/bookings", public.CreateBooking)

		r.Get("/blog/posts", public.ListPosts)
		r.Get("/blog/posts/{slug}", public.GetPost)
		r.Get("/blog/categories", public.ListCategories)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", admin.Login)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin(cfg.Auth))

				r.Get("/me", admin.Me)
				r.Post("/change-password", admin.ChangePassword)

				r.Get("/consultations", admin.ListConsultations)
				r.Get("/consultations/{id}", admin.GetConsultation)
				r.Patch("/consultations/{id}/status", admin.UpdateConsultationStatus)

				r.Get("/settings", admin.GetSettings)
				r.Put("/settings", admin.UpdateSettings)

				r.Get("/appointment-types", admin.ListAppointmentTypes)
				r.Post("/appointment-types", admin.CreateAppointmentType)
				r.Put("/appointment-types/{id}", admin.UpdateAppointmentType)
				r.Delete("/appointment-types/{id}", admin.DeleteAppointmentType)

				r.Get("/doctors", admin.ListDoctors)
				r.Post("/doctors", admin.CreateDoctor)
				r.Put("/doctors/{id}", admin.UpdateDoctor)
				r.Delete("/doctors/{id}", admin.DeleteDoctor)

				r.Get("/blog/posts", admin.ListPosts)
				r.Post("/blog/posts", admin.CreatePost)
				r.Put("/blog/posts/{id}", admin.UpdatePost)
				r.Delete("/blog/posts/{id}", admin.DeletePost)

				r.Get("/blog/categories", admin.ListCategories)
				r.Post("/blog/categories", admin.CreateCategory)
			})
		})
	})

	return r
}
