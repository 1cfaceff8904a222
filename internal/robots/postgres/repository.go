// Package postgres provides the PostgreSQL implementation of the robots
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/fleetyard/incident-bay/internal/robots"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements robots.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListRobots retrieves all robots ordered by name.
func (r *Repository) ListRobots(ctx context.Context) ([]domain.Robot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, state FROM robots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list robots: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Robot, 0)
	for rows.Next() {
		var robot domain.Robot
		if err := rows.Scan(&robot.ID, &robot.Name, &robot.State); err != nil {
			return nil, fmt.Errorf("scan robot: %w", err)
		}
		list = append(list, robot)
	}
	return list, rows.Err()
}

// GetRobot retrieves a robot by id.
func (r *Repository) GetRobot(ctx context.Context, id string) (*domain.Robot, error) {
	var robot domain.Robot
	err := r.db.QueryRow(ctx, `SELECT id, name, state FROM robots WHERE id = $1`, id).
		Scan(&robot.ID, &robot.Name, &robot.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, robots.ErrRobotNotFound
		}
		return nil, fmt.Errorf("get robot: %w", err)
	}
	return &robot, nil
}

// UpdateState sets the robot's state.
func (r *Repository) UpdateState(ctx context.Context, id string, state domain.RobotState) error {
	tag, err := r.db.Exec(ctx, `UPDATE robots SET state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("update robot state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return robots.ErrRobotNotFound
	}
	return nil
}

// ExistsTx reports whether the robot exists, inside the caller's transaction.
func (r *Repository) ExistsTx(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM robots WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check robot: %w", err)
	}
	return exists, nil
}

// UpdateStateTx sets the robot's state inside the caller's transaction.
func (r *Repository) UpdateStateTx(ctx context.Context, tx pgx.Tx, id string, state domain.RobotState) error {
	tag, err := tx.Exec(ctx, `UPDATE robots SET state = $2 WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("update robot state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return robots.ErrRobotNotFound
	}
	return nil
}
