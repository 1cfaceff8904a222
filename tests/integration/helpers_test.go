//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fleetyard/incident-bay/internal/testutil"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Fixture accounts. All share the same password.
const fixturePassword = "fixture-pass-1"

var (
	adminID      string
	supervisorID string
	tech1ID      string
	tech2ID      string
	shiftLeadID  string

	robotAID string
	robotBID string
)

func seedFixtures(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(fixturePassword), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	users := []struct {
		id       *string
		username string
		role     string
		name     string
	}{
		{&adminID, "admin", "administrator", "Admin Adams"},
		{&supervisorID, "supervisor", "supervisor", "Sam Supervisor"},
		{&tech1ID, "tech1", "technician", "Ana Torres"},
		{&tech2ID, "tech2", "technician", "Marco Ruiz"},
		{&shiftLeadID, "shiftlead", "shift_lead", "Lena Lead"},
	}
	for _, u := range users {
		*u.id = uuid.NewString()
		_, err := testDB.Exec(ctx, `
			INSERT INTO users (id, username, email, password_hash, role, display_name)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, *u.id, u.username, u.username+"@example.com", string(hash), u.role, u.name)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.username, err)
		}
	}

	robots := []struct {
		id    *string
		name  string
		state string
	}{
		{&robotAID, "picker-01", "operational"},
		{&robotBID, "picker-02", "operational"},
	}
	for _, r := range robots {
		*r.id = uuid.NewString()
		_, err := testDB.Exec(ctx, `
			INSERT INTO robots (id, name, state) VALUES ($1, $2, $3)
		`, *r.id, r.name, r.state)
		if err != nil {
			return fmt.Errorf("insert robot %s: %w", r.name, err)
		}
	}

	return nil
}

// incidentData mirrors the incident JSON returned by the API.
type incidentData struct {
	ID                 string  `json:"id"`
	CompanyReportID    string  `json:"company_report_id"`
	RobotID            string  `json:"robot_id"`
	Location           string  `json:"location"`
	Type               string  `json:"type"`
	Cause              string  `json:"cause"`
	Gravity            *int    `json:"gravity"`
	Status             string  `json:"status"`
	TechnicianComment  string  `json:"technician_comment"`
	FallbackRobotState *string `json:"fallback_robot_state"`
	Technicians        []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"assigned_technicians"`
	CreatedBy  string  `json:"created_by"`
	UpdatedBy  *string `json:"updated_by"`
	SignedBy   *string `json:"signed_by"`
	SignedAt   *string `json:"signed_at"`
	FinishedBy *string `json:"finished_by"`
	FinishedAt *string `json:"finished_at"`
}

type incidentEnvelope struct {
	Data incidentData `json:"data"`
}

type historyEntry struct {
	ID             string `json:"id"`
	IncidentID     string `json:"incident_id"`
	StatusAtChange string `json:"status_at_change"`
	ChangeText     string `json:"change_text"`
	ChangedBy      string `json:"changed_by"`
	ChangeDate     string `json:"change_date"`
}

type historyEnvelope struct {
	Data []historyEntry `json:"data"`
}

// createIncident records an incident via the API and returns it. The client
// must already be authenticated.
func createIncident(t *testing.T, client *testutil.Client, robotID string, technicianIDs []string) incidentData {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"company_report_id":  "RPT-" + uuid.NewString()[:8],
		"robot_id":           robotID,
		"incident_timestamp": time.Now().UTC().Format(time.RFC3339),
		"location":           "aisle 12",
		"type":               "collision",
		"cause":              "sensor fault",
		"gravity":            3,
		"technician_ids":     technicianIDs,
	})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("create incident: status=%d body=%s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var envelope incidentEnvelope
	testutil.DecodeJSON(t, resp, &envelope)
	return envelope.Data
}

// robotState reads the robot's state straight from the database.
func robotState(t *testing.T, robotID string) string {
	t.Helper()

	var state string
	err := testDB.QueryRow(context.Background(),
		`SELECT state FROM robots WHERE id = $1`, robotID).Scan(&state)
	if err != nil {
		t.Fatalf("query robot state: %v", err)
	}
	return state
}

// resetRobot puts the robot back to operational so tests stay independent.
func resetRobot(t *testing.T, robotID string) {
	t.Helper()

	_, err := testDB.Exec(context.Background(),
		`UPDATE robots SET state = 'operational' WHERE id = $1`, robotID)
	if err != nil {
		t.Fatalf("reset robot: %v", err)
	}
}
