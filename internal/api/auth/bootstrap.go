package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-cemetery-registry/config"
	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

// AdminEnsurer creates the administrator account when it is missing.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, params types.UserCreateRequest) (bool, error)
}

// BootstrapAdmin runs once at start-up. It is a no-op when disabled or when
// any row, deleted or not, already holds the configured username.
func BootstrapAdmin(ctx context.Context, users AdminEnsurer, cfg config.Config, logger *slog.Logger) error {
	b := cfg.Bootstrap
	if !b.Enabled {
		logger.InfoContext(ctx, "Admin bootstrap disabled")
		return nil
	}

	created, err := users.EnsureAdmin(ctx, types.UserCreateRequest{
		Username:    b.Username,
		Password:    b.Password,
		FullName:    b.FullName,
		Email:       b.Email,
		PhoneNumber: b.PhoneNumber,
		Role:        types.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin %q: %w", b.Username, err)
	}
	if created {
		logger.InfoContext(ctx, "Bootstrap admin created", slog.String("username", b.Username))
	}
	return nil
}
