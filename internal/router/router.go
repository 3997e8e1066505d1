package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/FACorreiaa/go-cemetery-registry/app/middleware"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/auth"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/deceased"
	deceasedFile "github.com/FACorreiaa/go-cemetery-registry/internal/api/deceased_files"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/files"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/user"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler         *auth.AuthHandler
	UserHandler         *user.HandlerImpl
	DeceasedHandler     *deceased.HandlerImpl
	DeceasedFileHandler *deceasedFile.HandlerImpl
	FileHandler         *files.HandlerImpl
	JWT                 *appMiddleware.JWT
	// Accounts, when set, rejects tokens of deleted accounts.
	Accounts            appMiddleware.AccountFinder
	Logger              *slog.Logger
	AllowedOrigins      []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (request id, logger, recoverer) is applied by the
// caller before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := appMiddleware.Authenticate(cfg.Logger, cfg.JWT, cfg.Accounts)
	staff := appMiddleware.RequireRole(types.RoleAdmin, types.RoleDev)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Any authenticated account
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/users/{id}", cfg.UserHandler.GetOne)
			r.Put("/users/{id}", cfg.UserHandler.Update)

			r.Get("/deceased", cfg.DeceasedHandler.List)
			r.Get("/deceased/{id}", cfg.DeceasedHandler.GetOne)
			r.Get("/deceased/{id}/files", cfg.DeceasedFileHandler.ListByDeceased)

			r.Get("/files/{hashId}", cfg.FileHandler.Info)
			r.Get("/files/download/{hashId}", cfg.FileHandler.Download)
		})

		// ADMIN and DEV
		r.Group(func(r chi.Router) {
			r.Use(authenticate, staff)

			r.Post("/users", cfg.UserHandler.Create)
			r.Get("/users", cfg.UserHandler.List)
			r.Delete("/users/{id}", cfg.UserHandler.Delete)
			r.Post("/users/batch-delete", cfg.UserHandler.DeleteMany)

			r.Post("/deceased", cfg.DeceasedHandler.Create)
			r.Put("/deceased/{id}", cfg.DeceasedHandler.Update)
			r.Delete("/deceased/{id}", cfg.DeceasedHandler.Delete)
			r.Post("/deceased/batch-delete", cfg.DeceasedHandler.DeleteMany)

			r.Post("/deceased-files", cfg.DeceasedFileHandler.Create)
			r.Delete("/deceased-files/{id}", cfg.DeceasedFileHandler.Delete)

			r.Post("/files/upload", cfg.FileHandler.Upload)
			r.Delete("/files/{hashId}", cfg.FileHandler.Delete)
		})
	})

	return r
}
