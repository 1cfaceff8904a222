package incidents

import (
	"context"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Repository defines the storage interface for incidents, technician
// assignments and history entries. All writes happen through Tx variants so
// the service can keep a whole lifecycle operation atomic.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CreateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error
	GetIncidentTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Incident, error)
	UpdateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error
	DeleteIncidentTx(ctx context.Context, tx pgx.Tx, id string) error

	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	ListIncidents(ctx context.Context) ([]*domain.Incident, error)

	// ReplaceTechniciansTx wholesale-replaces the assignment set: it deletes
	// all existing rows for the incident and inserts one per id, within the
	// caller's transaction. There is no row-level diffing.
	ReplaceTechniciansTx(ctx context.Context, tx pgx.Tx, incidentID string, technicianIDs []string) error

	// GetTechniciansTx resolves technician ids to display references.
	// Returns ErrTechnicianNotFound if any id does not resolve to a user
	// with the technician role.
	GetTechniciansTx(ctx context.Context, tx pgx.Tx, ids []string) ([]domain.TechnicianRef, error)

	ListIncidentTechniciansTx(ctx context.Context, tx pgx.Tx, incidentID string) ([]domain.TechnicianRef, error)

	CreateHistoryEntryTx(ctx context.Context, tx pgx.Tx, entry *domain.IncidentHistoryEntry) error
	ListHistory(ctx context.Context, incidentID string) ([]*domain.IncidentHistoryEntry, error)
}

// RobotStore is the subset of robot operations the lifecycle coordinator
// needs: existence checks at creation and the state cascade applied inside
// the signing transaction.
type RobotStore interface {
	ExistsTx(ctx context.Context, tx pgx.Tx, id string) (bool, error)
	UpdateStateTx(ctx context.Context, tx pgx.Tx, id string, state domain.RobotState) error
}
