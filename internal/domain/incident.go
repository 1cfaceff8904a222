package domain

import "time"

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident lifecycle statuses. Signed is terminal.
const (
	IncidentStatusCreated            IncidentStatus = "created"
	IncidentStatusUnderInvestigation IncidentStatus = "under_investigation"
	IncidentStatusAwaitingPart       IncidentStatus = "awaiting_part"
	IncidentStatusResolved           IncidentStatus = "resolved"
	IncidentStatusSigned             IncidentStatus = "signed"
)

// IsValid checks if the status is one of the defined lifecycle values.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusCreated,
		IncidentStatusUnderInvestigation,
		IncidentStatusAwaitingPart,
		IncidentStatusResolved,
		IncidentStatusSigned:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusSigned
}

// Gravity bounds. A nil gravity means the incident has not been triaged yet.
const (
	GravityMin = 1
	GravityMax = 10
)

// Incident represents an operational event affecting one robot.
type Incident struct {
	ID                 string         `json:"id"`
	CompanyReportID    string         `json:"company_report_id"`
	RobotID            string         `json:"robot_id"`
	IncidentTimestamp  time.Time      `json:"incident_timestamp"`
	Location           string         `json:"location"`
	Type               string         `json:"type"`
	Cause              string         `json:"cause"`
	Gravity            *int           `json:"gravity"`
	Status             IncidentStatus `json:"status"`
	TechnicianComment  string         `json:"technician_comment"`
	FallbackRobotState *RobotState    `json:"fallback_robot_state"`

	// Resolved assignment list, joined in for display.
	Technicians []TechnicianRef `json:"assigned_technicians"`

	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedBy  *string    `json:"updated_by"`
	UpdatedAt  *time.Time `json:"updated_at"`
	SignedBy   *string    `json:"signed_by"`
	SignedAt   *time.Time `json:"signed_at"`
	FinishedBy *string    `json:"finished_by"`
	FinishedAt *time.Time `json:"finished_at"`

	// Attribution display names, joined in for list/get responses.
	CreatedByName  *string `json:"created_by_name,omitempty"`
	UpdatedByName  *string `json:"updated_by_name,omitempty"`
	SignedByName   *string `json:"signed_by_name,omitempty"`
	FinishedByName *string `json:"finished_by_name,omitempty"`
}

// TechnicianRef is a technician assigned to an incident.
type TechnicianRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// IncidentHistoryEntry is an append-only audit record. An entry with empty
// ChangeText marks the creation event.
type IncidentHistoryEntry struct {
	ID             string         `json:"id"`
	IncidentID     string         `json:"incident_id"`
	StatusAtChange IncidentStatus `json:"status_at_change"`
	ChangeText     string         `json:"change_text"`
	ChangedBy      string         `json:"changed_by"`
	ChangedByName  *string        `json:"changed_by_name,omitempty"`
	ChangeDate     time.Time      `json:"change_date"`
}
