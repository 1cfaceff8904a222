// Package incidents implements the incident lifecycle engine: role-based
// transition authorization, atomic lifecycle updates and the audit trail.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Service is the lifecycle coordinator. It is the only writer of incident,
// assignment and history state; every create/update/delete runs as a single
// repository transaction.
type Service struct {
	repo   Repository
	robots RobotStore
}

// NewService creates a new incident service.
func NewService(repo Repository, robots RobotStore) *Service {
	return &Service{repo: repo, robots: robots}
}

// CreateIncidentInput holds data for recording a new incident.
type CreateIncidentInput struct {
	CompanyReportID   string
	RobotID           string
	IncidentTimestamp time.Time
	Location          string
	Type              string
	Cause             string
	Gravity           *int
	TechnicianIDs     []string
}

// UpdateIncidentInput holds a partial update. Nil scalar pointers retain the
// prior value. Gravity is always taken literally, nil included: "no gravity"
// is a meaningful value, not an omission. A nil TechnicianIDs keeps the
// current assignment set; a non-nil one replaces it wholesale.
type UpdateIncidentInput struct {
	Status             domain.IncidentStatus
	Location           *string
	Type               *string
	Cause              *string
	TechnicianComment  *string
	Gravity            *int
	TechnicianIDs      *[]string
	FallbackRobotState *domain.RobotState
}

// Create records a new incident with its initial technician assignments and
// a creation history entry, all in one transaction.
func (s *Service) Create(ctx context.Context, input CreateIncidentInput, actor domain.Actor) (*domain.Incident, error) {
	if err := validateGravity(input.Gravity); err != nil {
		return nil, err
	}
	if len(input.TechnicianIDs) == 0 {
		return nil, ErrNoTechnicians
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	exists, err := s.robots.ExistsTx(ctx, tx, input.RobotID)
	if err != nil {
		return nil, fmt.Errorf("check robot: %w", err)
	}
	if !exists {
		return nil, ErrRobotNotFound
	}

	technicians, err := s.repo.GetTechniciansTx(ctx, tx, input.TechnicianIDs)
	if err != nil {
		return nil, err
	}

	incident := &domain.Incident{
		CompanyReportID:   input.CompanyReportID,
		RobotID:           input.RobotID,
		IncidentTimestamp: input.IncidentTimestamp,
		Location:          input.Location,
		Type:              input.Type,
		Cause:             input.Cause,
		Gravity:           input.Gravity,
		Status:            domain.IncidentStatusCreated,
		CreatedBy:         actor.ID,
		UpdatedBy:         &actor.ID,
	}

	if err := s.repo.CreateIncidentTx(ctx, tx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	if err := s.repo.ReplaceTechniciansTx(ctx, tx, incident.ID, input.TechnicianIDs); err != nil {
		return nil, fmt.Errorf("assign technicians: %w", err)
	}

	// Creation is recorded with empty change text: there is no prior state
	// to diff against.
	entry := &domain.IncidentHistoryEntry{
		IncidentID:     incident.ID,
		StatusAtChange: domain.IncidentStatusCreated,
		ChangeText:     "",
		ChangedBy:      actor.ID,
	}
	if err := s.repo.CreateHistoryEntryTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record creation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	incidentsCreated.Inc()
	incident.Technicians = technicians
	return incident, nil
}

// Update applies a lifecycle update: it authorizes the proposed transition
// against the actor's role, diffs the prior snapshot against the proposed
// one, applies scalar changes and assignment replacement, stamps
// role-dependent metadata and, on a transition to signed, cascades the
// fallback robot state. One history entry is appended per non-empty diff.
// Everything runs inside a single transaction.
func (s *Service) Update(ctx context.Context, id string, input UpdateIncidentInput, actor domain.Actor) (*domain.Incident, error) {
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if err := validateGravity(input.Gravity); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	incident, err := s.repo.GetIncidentTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	priorStatus := incident.Status

	priorTechnicians, err := s.repo.ListIncidentTechniciansTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("list assigned technicians: %w", err)
	}

	if !CanTransition(priorStatus, input.Status, actor.Role) {
		return nil, fmt.Errorf("%w: %s may not move %s to %s",
			ErrTransitionDenied, actor.Role, priorStatus, input.Status)
	}

	proposedTechnicians := priorTechnicians
	if input.TechnicianIDs != nil {
		if len(*input.TechnicianIDs) == 0 {
			return nil, ErrNoTechnicians
		}
		proposedTechnicians, err = s.repo.GetTechniciansTx(ctx, tx, *input.TechnicianIDs)
		if err != nil {
			return nil, err
		}
	}

	prior := snapshotOf(incident, priorTechnicians)
	proposed := Snapshot{
		Status:            input.Status,
		Gravity:           input.Gravity,
		Location:          coalesce(input.Location, incident.Location),
		Type:              coalesce(input.Type, incident.Type),
		Cause:             coalesce(input.Cause, incident.Cause),
		TechnicianComment: coalesce(input.TechnicianComment, incident.TechnicianComment),
		TechnicianNames:   namesOf(proposedTechnicians),
	}
	changes := Diff(prior, proposed)

	now := time.Now().UTC()
	incident.Status = proposed.Status
	incident.Gravity = proposed.Gravity
	incident.Location = proposed.Location
	incident.Type = proposed.Type
	incident.Cause = proposed.Cause
	incident.TechnicianComment = proposed.TechnicianComment
	if input.FallbackRobotState != nil {
		incident.FallbackRobotState = input.FallbackRobotState
	}
	incident.UpdatedBy = &actor.ID
	incident.UpdatedAt = &now

	if input.Status == domain.IncidentStatusSigned && incident.SignedAt == nil {
		incident.SignedBy = &actor.ID
		incident.SignedAt = &now
	}
	if input.Status == domain.IncidentStatusResolved &&
		actor.Role == domain.RoleTechnician && incident.FinishedAt == nil {
		incident.FinishedBy = &actor.ID
		incident.FinishedAt = &now
	}

	if err := s.repo.UpdateIncidentTx(ctx, tx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	// Signing cascades the stored fallback state onto the robot, inside
	// the same transaction: an incident can never end up signed with the
	// robot update lost.
	if input.Status == domain.IncidentStatusSigned &&
		priorStatus != domain.IncidentStatusSigned && incident.FallbackRobotState != nil {
		if err := s.robots.UpdateStateTx(ctx, tx, incident.RobotID, *incident.FallbackRobotState); err != nil {
			return nil, fmt.Errorf("cascade robot state: %w", err)
		}
	}

	if input.TechnicianIDs != nil {
		if err := s.repo.ReplaceTechniciansTx(ctx, tx, id, *input.TechnicianIDs); err != nil {
			return nil, fmt.Errorf("replace technicians: %w", err)
		}
	}

	if len(changes) > 0 {
		entry := &domain.IncidentHistoryEntry{
			IncidentID:     id,
			StatusAtChange: input.Status,
			ChangeText:     RenderChangeText(changes),
			ChangedBy:      actor.ID,
		}
		if err := s.repo.CreateHistoryEntryTx(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if priorStatus != input.Status {
		statusTransitions.WithLabelValues(string(priorStatus), string(input.Status)).Inc()
	}

	return s.repo.GetIncident(ctx, id)
}

// Get retrieves an incident with resolved assignments and attribution names.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetIncident(ctx, id)
}

// List retrieves all incidents, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Incident, error) {
	return s.repo.ListIncidents(ctx)
}

// History retrieves the audit trail for an incident, newest first.
func (s *Service) History(ctx context.Context, incidentID string) ([]*domain.IncidentHistoryEntry, error) {
	if _, err := s.repo.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, incidentID)
}

// Delete removes an incident together with its assignments and history.
func (s *Service) Delete(ctx context.Context, id string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.repo.DeleteIncidentTx(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func snapshotOf(incident *domain.Incident, technicians []domain.TechnicianRef) Snapshot {
	return Snapshot{
		Status:            incident.Status,
		Gravity:           incident.Gravity,
		Location:          incident.Location,
		Type:              incident.Type,
		Cause:             incident.Cause,
		TechnicianComment: incident.TechnicianComment,
		TechnicianNames:   namesOf(technicians),
	}
}

func namesOf(technicians []domain.TechnicianRef) []string {
	names := make([]string, 0, len(technicians))
	for _, t := range technicians {
		names = append(names, t.DisplayName)
	}
	return names
}

func coalesce(v *string, prior string) string {
	if v != nil {
		return *v
	}
	return prior
}

func validateGravity(g *int) error {
	if g != nil && (*g < domain.GravityMin || *g > domain.GravityMax) {
		return ErrInvalidGravity
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}
