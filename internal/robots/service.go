// Package robots manages the robot fleet registry and robot state changes.
package robots

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrRobotNotFound is returned when a robot does not exist.
	ErrRobotNotFound = errors.New("robot not found")
	// ErrInvalidState is returned when a robot state value is not recognized.
	ErrInvalidState = errors.New("invalid robot state")
)

// Service provides robot business logic.
type Service struct {
	repo Repository
}

// NewService creates a new robot service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all robots.
func (s *Service) List(ctx context.Context) ([]domain.Robot, error) {
	return s.repo.ListRobots(ctx)
}

// Get retrieves a robot by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Robot, error) {
	return s.repo.GetRobot(ctx, id)
}

// UpdateState sets the robot's operational state directly, outside any
// incident lifecycle.
func (s *Service) UpdateState(ctx context.Context, id string, state domain.RobotState) (*domain.Robot, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, err
	}
	return s.repo.GetRobot(ctx, id)
}

// ExistsTx reports whether the robot exists, inside the caller's transaction.
func (s *Service) ExistsTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	return s.repo.ExistsTx(ctx, tx, id)
}

// UpdateStateTx sets the robot's state inside the caller's transaction. Used
// by the incident lifecycle to cascade the fallback state when an incident is
// signed.
func (s *Service) UpdateStateTx(ctx context.Context, tx pgx.Tx, id string, state domain.RobotState) error {
	if !state.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	return s.repo.UpdateStateTx(ctx, tx, id, state)
}
