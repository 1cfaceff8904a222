package identity

import (
	"context"

	"github.com/fleetyard/incident-bay/internal/domain"
)

// Repository defines the interface for user data operations.
type Repository interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

// UserFilter represents filter criteria for listing users.
type UserFilter struct {
	Role *domain.Role
}
