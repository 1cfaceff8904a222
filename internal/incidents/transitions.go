package incidents

import "github.com/fleetyard/incident-bay/internal/domain"

// AllowedTargets returns the set of statuses the given role may move an
// incident to from its current status. The matrix is fixed; there is no
// dynamic logic and no side effects.
//
// Administrators may set any status. Supervisors manage the pre-resolution
// stages and may sign off resolved incidents, but cannot resolve directly.
// Technicians work incidents until they are resolved, after which the
// record is read-only for them. Shift leads can report incidents but never
// change status.
func AllowedTargets(current domain.IncidentStatus, role domain.Role) []domain.IncidentStatus {
	switch role {
	case domain.RoleAdministrator:
		return []domain.IncidentStatus{
			domain.IncidentStatusCreated,
			domain.IncidentStatusUnderInvestigation,
			domain.IncidentStatusAwaitingPart,
			domain.IncidentStatusResolved,
			domain.IncidentStatusSigned,
		}

	case domain.RoleSupervisor:
		switch current {
		case domain.IncidentStatusResolved:
			return []domain.IncidentStatus{
				domain.IncidentStatusResolved,
				domain.IncidentStatusSigned,
			}
		case domain.IncidentStatusSigned:
			// No-op only: a signed incident stays signed.
			return []domain.IncidentStatus{domain.IncidentStatusSigned}
		default:
			return []domain.IncidentStatus{
				domain.IncidentStatusCreated,
				domain.IncidentStatusUnderInvestigation,
				domain.IncidentStatusAwaitingPart,
			}
		}

	case domain.RoleTechnician:
		if current == domain.IncidentStatusResolved || current == domain.IncidentStatusSigned {
			return nil
		}
		return []domain.IncidentStatus{
			domain.IncidentStatusUnderInvestigation,
			domain.IncidentStatusAwaitingPart,
			domain.IncidentStatusResolved,
		}
	}

	// Shift leads and unknown roles may not transition anything.
	return nil
}

// CanTransition reports whether role may move an incident from current to
// proposed.
func CanTransition(current, proposed domain.IncidentStatus, role domain.Role) bool {
	for _, target := range AllowedTargets(current, role) {
		if target == proposed {
			return true
		}
	}
	return false
}
