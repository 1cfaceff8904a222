package robots

import (
	"context"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for robot data operations.
type Repository interface {
	ListRobots(ctx context.Context) ([]domain.Robot, error)
	GetRobot(ctx context.Context, id string) (*domain.Robot, error)
	UpdateState(ctx context.Context, id string, state domain.RobotState) error

	// Transaction methods used by the incident lifecycle.
	ExistsTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	UpdateStateTx(ctx context.Context, tx pgx.Tx, id string, state domain.RobotState) error
}
