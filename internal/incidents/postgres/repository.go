// Package postgres provides the PostgreSQL implementation of the incidents
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/fleetyard/incident-bay/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes mapped to domain errors.
const (
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// BeginTx starts a new transaction.
func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

const incidentColumns = `
	i.id, i.company_report_id, i.robot_id, i.incident_timestamp,
	i.location, i.type, i.cause, i.gravity, i.status,
	i.technician_comment, i.fallback_robot_state,
	i.created_by, i.created_at, i.updated_by, i.updated_at,
	i.signed_by, i.signed_at, i.finished_by, i.finished_at,
	cu.display_name, uu.display_name, su.display_name, fu.display_name
`

const incidentJoins = `
	FROM incidents i
	LEFT JOIN users cu ON cu.id = i.created_by
	LEFT JOIN users uu ON uu.id = i.updated_by
	LEFT JOIN users su ON su.id = i.signed_by
	LEFT JOIN users fu ON fu.id = i.finished_by
`

// CreateIncidentTx inserts a new incident row within the transaction.
func (r *Repository) CreateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (
			company_report_id, robot_id, incident_timestamp, location,
			type, cause, gravity, status, technician_comment,
			fallback_robot_state, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		incident.CompanyReportID,
		incident.RobotID,
		incident.IncidentTimestamp,
		incident.Location,
		incident.Type,
		incident.Cause,
		incident.Gravity,
		incident.Status,
		incident.TechnicianComment,
		incident.FallbackRobotState,
		incident.CreatedBy,
		incident.UpdatedBy,
	).Scan(&incident.ID, &incident.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// GetIncident retrieves an incident with resolved assignments and
// attribution names.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	return r.getIncident(ctx, r.db, id)
}

// GetIncidentTx retrieves the incident snapshot inside the transaction.
func (r *Repository) GetIncidentTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Incident, error) {
	return r.getIncident(ctx, tx, id)
}

func (r *Repository) getIncident(ctx context.Context, q querier, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentJoins + ` WHERE i.id = $1`

	incident, err := scanIncident(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, codeInvalidTextRepr) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	technicians, err := r.listTechnicians(ctx, q, incident.ID)
	if err != nil {
		return nil, err
	}
	incident.Technicians = technicians
	return incident, nil
}

// ListIncidents retrieves all incidents, newest first.
func (r *Repository) ListIncidents(ctx context.Context) ([]*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + incidentJoins + ` ORDER BY i.created_at DESC, i.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	for _, incident := range list {
		technicians, err := r.listTechnicians(ctx, r.db, incident.ID)
		if err != nil {
			return nil, err
		}
		incident.Technicians = technicians
	}
	return list, nil
}

// UpdateIncidentTx persists the mutable fields and metadata stamps.
func (r *Repository) UpdateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET location = $2, type = $3, cause = $4, gravity = $5, status = $6,
		    technician_comment = $7, fallback_robot_state = $8,
		    updated_by = $9, updated_at = $10,
		    signed_by = $11, signed_at = $12,
		    finished_by = $13, finished_at = $14
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query,
		incident.ID,
		incident.Location,
		incident.Type,
		incident.Cause,
		incident.Gravity,
		incident.Status,
		incident.TechnicianComment,
		incident.FallbackRobotState,
		incident.UpdatedBy,
		incident.UpdatedAt,
		incident.SignedBy,
		incident.SignedAt,
		incident.FinishedBy,
		incident.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

// DeleteIncidentTx removes an incident with its assignments and history.
func (r *Repository) DeleteIncidentTx(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM incident_history WHERE incident_id = $1`, id); err != nil {
		return deleteErr(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM incident_technicians WHERE incident_id = $1`, id); err != nil {
		return deleteErr(err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return deleteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

func deleteErr(err error) error {
	switch {
	case isPgError(err, codeForeignKeyViolation):
		return incidents.ErrIncidentReferenced
	case isPgError(err, codeInvalidTextRepr):
		return incidents.ErrIncidentNotFound
	}
	return fmt.Errorf("delete incident: %w", err)
}

// ReplaceTechniciansTx deletes all assignment rows for the incident and
// inserts one per technician id, within the caller's transaction.
func (r *Repository) ReplaceTechniciansTx(ctx context.Context, tx pgx.Tx, incidentID string, technicianIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM incident_technicians WHERE incident_id = $1`, incidentID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	for _, technicianID := range technicianIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO incident_technicians (incident_id, technician_user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, incidentID, technicianID)
		if err != nil {
			if isPgError(err, codeForeignKeyViolation) || isPgError(err, codeInvalidTextRepr) {
				return incidents.ErrTechnicianNotFound
			}
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}

// GetTechniciansTx resolves technician ids to display references.
func (r *Repository) GetTechniciansTx(ctx context.Context, tx pgx.Tx, ids []string) ([]domain.TechnicianRef, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, display_name
		FROM users
		WHERE id = ANY($1::uuid[]) AND role = $2
	`, ids, domain.RoleTechnician)
	if err != nil {
		if isPgError(err, codeInvalidTextRepr) {
			return nil, incidents.ErrTechnicianNotFound
		}
		return nil, fmt.Errorf("resolve technicians: %w", err)
	}
	defer rows.Close()

	found := make(map[string]domain.TechnicianRef)
	for rows.Next() {
		var ref domain.TechnicianRef
		if err := rows.Scan(&ref.ID, &ref.DisplayName); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		found[ref.ID] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve technicians: %w", err)
	}

	refs := make([]domain.TechnicianRef, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		ref, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", incidents.ErrTechnicianNotFound, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, ref)
	}
	return refs, nil
}

// ListIncidentTechniciansTx lists the current assignment set inside the
// transaction.
func (r *Repository) ListIncidentTechniciansTx(ctx context.Context, tx pgx.Tx, incidentID string) ([]domain.TechnicianRef, error) {
	return r.listTechnicians(ctx, tx, incidentID)
}

func (r *Repository) listTechnicians(ctx context.Context, q querier, incidentID string) ([]domain.TechnicianRef, error) {
	rows, err := q.Query(ctx, `
		SELECT u.id, u.display_name
		FROM incident_technicians it
		JOIN users u ON u.id = it.technician_user_id
		WHERE it.incident_id = $1
		ORDER BY u.display_name
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list incident technicians: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.TechnicianRef, 0)
	for rows.Next() {
		var ref domain.TechnicianRef
		if err := rows.Scan(&ref.ID, &ref.DisplayName); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CreateHistoryEntryTx appends a history entry within the transaction.
func (r *Repository) CreateHistoryEntryTx(ctx context.Context, tx pgx.Tx, entry *domain.IncidentHistoryEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO incident_history (incident_id, status_at_change, change_text, changed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, change_date
	`, entry.IncidentID, entry.StatusAtChange, entry.ChangeText, entry.ChangedBy,
	).Scan(&entry.ID, &entry.ChangeDate)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListHistory retrieves the audit trail for an incident, newest first.
func (r *Repository) ListHistory(ctx context.Context, incidentID string) ([]*domain.IncidentHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT h.id, h.incident_id, h.status_at_change, h.change_text,
		       h.changed_by, u.display_name, h.change_date
		FROM incident_history h
		LEFT JOIN users u ON u.id = h.changed_by
		WHERE h.incident_id = $1
		ORDER BY h.change_date DESC, h.id
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.IncidentHistoryEntry, 0)
	for rows.Next() {
		var entry domain.IncidentHistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.IncidentID,
			&entry.StatusAtChange,
			&entry.ChangeText,
			&entry.ChangedBy,
			&entry.ChangedByName,
			&entry.ChangeDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.CompanyReportID,
		&incident.RobotID,
		&incident.IncidentTimestamp,
		&incident.Location,
		&incident.Type,
		&incident.Cause,
		&incident.Gravity,
		&incident.Status,
		&incident.TechnicianComment,
		&incident.FallbackRobotState,
		&incident.CreatedBy,
		&incident.CreatedAt,
		&incident.UpdatedBy,
		&incident.UpdatedAt,
		&incident.SignedBy,
		&incident.SignedAt,
		&incident.FinishedBy,
		&incident.FinishedAt,
		&incident.CreatedByName,
		&incident.UpdatedByName,
		&incident.SignedByName,
		&incident.FinishedByName,
	)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
