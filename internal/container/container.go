package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-cemetery-registry/app/db"
	appMiddleware "github.com/FACorreiaa/go-cemetery-registry/app/middleware"
	"github.com/FACorreiaa/go-cemetery-registry/config"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/auth"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/deceased"
	deceasedFile "github.com/FACorreiaa/go-cemetery-registry/internal/api/deceased_files"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/files"
	"github.com/FACorreiaa/go-cemetery-registry/internal/api/user"
	"github.com/FACorreiaa/go-cemetery-registry/internal/hashid"
	"github.com/FACorreiaa/go-cemetery-registry/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	JWT    *appMiddleware.JWT

	Accounts    appMiddleware.AccountFinder
	UserService *user.UserServiceImpl

	AuthHandler         *auth.AuthHandler
	UserHandler         *user.HandlerImpl
	DeceasedHandler     *deceased.HandlerImpl
	DeceasedFileHandler *deceasedFile.HandlerImpl
	FileHandler         *files.HandlerImpl
}

// NewContainer opens the pool and wires repositories, services and handlers.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	pool, err := database.Init(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	c, err := Wire(pool, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.Pool = pool
	return c, nil
}

// Wire builds the object graph on top of an existing pool.
func Wire(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	encoder, err := hashid.New(cfg.HashID)
	if err != nil {
		return nil, fmt.Errorf("hashid encoder: %w", err)
	}
	disk, err := files.NewDiskStore(cfg.Storage.UploadRoot)
	if err != nil {
		return nil, fmt.Errorf("upload root: %w", err)
	}
	jwt := appMiddleware.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)

	authService := auth.NewAuthService(userRepo, userService, jwt, logger)

	deceasedRepo := deceased.NewPostgresDeceasedRepo(pool, logger)
	deceasedService := deceased.NewService(deceasedRepo, logger)

	fileRepo := files.NewPostgresFileRepo(pool, logger)
	fileService := files.NewService(fileRepo, disk, encoder, logger)

	linkRepo := deceasedFile.NewPostgresLinkRepo(pool, logger)
	linkService := deceasedFile.NewService(linkRepo, deceasedRepo, fileRepo, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Pool:                pool,
		JWT:                 jwt,
		// tokens of deleted accounts are refused
		Accounts:            userRepo,
		UserService:         userService,
		AuthHandler:         auth.NewAuthHandler(authService, logger),
		UserHandler:         user.NewHandlerImpl(userService, logger),
		DeceasedHandler:     deceased.NewHandlerImpl(deceasedService, logger),
		DeceasedFileHandler: deceasedFile.NewHandlerImpl(linkService, logger),
		FileHandler:         files.NewHandlerImpl(fileService, cfg.Storage.MaxUploadSize, logger),
	}, nil
}

// RouterConfig exposes the handlers to the router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		AuthHandler:         c.AuthHandler,
		UserHandler:         c.UserHandler,
		DeceasedHandler:     c.DeceasedHandler,
		DeceasedFileHandler: c.DeceasedFileHandler,
		FileHandler:         c.FileHandler,
		JWT:                 c.JWT,
		Accounts:            c.Accounts,
		Logger:              c.Logger,
	}
}

// BootstrapAdmin creates the configured administrator if needed.
func (c *Container) BootstrapAdmin(ctx context.Context) error {
	return auth.BootstrapAdmin(ctx, c.UserService, *c.Config, c.Logger)
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
