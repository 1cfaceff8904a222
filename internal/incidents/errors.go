package incidents

import "errors"

// Domain errors returned by the incident service.
var (
	ErrIncidentNotFound   = errors.New("incident not found")
	ErrRobotNotFound      = errors.New("robot not found")
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrNoTechnicians      = errors.New("at least one technician must be assigned")
	ErrInvalidGravity     = errors.New("gravity must be between 1 and 10")
	ErrInvalidStatus      = errors.New("invalid incident status")
	ErrTransitionDenied   = errors.New("status transition not allowed for role")
	ErrIncidentReferenced = errors.New("incident is referenced and cannot be deleted")
)
