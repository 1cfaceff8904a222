//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/fleetyard/incident-bay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIncident(t *testing.T) {
	client := newTestClient(t)
	client.LoginAs(t, "shiftlead", fixturePassword)

	incident := createIncident(t, client, robotAID, []string{tech1ID, tech2ID})

	assert.Equal(t, "created", incident.Status)
	assert.Equal(t, robotAID, incident.RobotID)
	assert.Equal(t, shiftLeadID, incident.CreatedBy)
	require.Len(t, incident.Technicians, 2)

	// The creation history entry has empty change text.
	resp, err := client.GET("/api/v1/incidents/" + incident.ID + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history historyEnvelope
	testutil.DecodeJSON(t, resp, &history)
	require.Len(t, history.Data, 1)
	assert.Equal(t, "created", history.Data[0].StatusAtChange)
	assert.Equal(t, "", history.Data[0].ChangeText)
	assert.Equal(t, shiftLeadID, history.Data[0].ChangedBy)
}

func TestCreateIncident_UnknownRobot(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.LoginAs(t, "shiftlead", fixturePassword)

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"company_report_id":  "RPT-404",
		"robot_id":           "00000000-0000-0000-0000-000000000000",
		"incident_timestamp": "2026-03-14T08:30:00Z",
		"location":           "aisle 1",
		"type":               "collision",
		"cause":              "unknown",
		"technician_ids":     []string{tech1ID},
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateIncident_RequiresTechnicians(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.LoginAs(t, "shiftlead", fixturePassword)

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"company_report_id":  "RPT-400",
		"robot_id":           robotAID,
		"incident_timestamp": "2026-03-14T08:30:00Z",
		"location":           "aisle 1",
		"type":               "collision",
		"cause":              "unknown",
		"technician_ids":     []string{},
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIncidentLifecycle_ResolveAndSign(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotAID, []string{tech1ID})
	t.Cleanup(func() { resetRobot(t, robotAID) })

	// Technician investigates, then resolves.
	tech := newTestClient(t)
	tech.LoginAs(t, "tech1", fixturePassword)

	resp, err := tech.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status":             "under_investigation",
		"gravity":            7,
		"technician_comment": "wheel assembly damaged",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated incidentEnvelope
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "under_investigation", updated.Data.Status)
	require.NotNil(t, updated.Data.Gravity)
	assert.Equal(t, 7, *updated.Data.Gravity)

	resp, err = tech.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status":  "resolved",
		"gravity": 7,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "resolved", updated.Data.Status)
	require.NotNil(t, updated.Data.FinishedBy)
	assert.Equal(t, tech1ID, *updated.Data.FinishedBy)
	assert.NotNil(t, updated.Data.FinishedAt)

	// Supervisor signs with a fallback robot state; the robot is updated in
	// the same operation.
	supervisor := newTestClient(t)
	supervisor.LoginAs(t, "supervisor", fixturePassword)

	resp, err = supervisor.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status":               "signed",
		"gravity":              7,
		"fallback_robot_state": "under_repair",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "signed", updated.Data.Status)
	require.NotNil(t, updated.Data.SignedBy)
	assert.Equal(t, supervisorID, *updated.Data.SignedBy)
	assert.NotNil(t, updated.Data.SignedAt)

	assert.Equal(t, "under_repair", robotState(t, robotAID))

	// History has creation plus three updates, newest first.
	resp, err = tech.GET("/api/v1/incidents/" + incident.ID + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history historyEnvelope
	testutil.DecodeJSON(t, resp, &history)
	require.Len(t, history.Data, 4)
	assert.Equal(t, "signed", history.Data[0].StatusAtChange)
	assert.Contains(t, history.Data[0].ChangeText, `status: "resolved" -> "signed"`)
	assert.Equal(t, "", history.Data[3].ChangeText)
}

func TestIncidentLifecycle_TransitionDenied(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotBID, []string{tech1ID})

	// Technicians may not sign.
	tech := newTestClientWithoutValidation()
	tech.LoginAs(t, "tech1", fixturePassword)

	resp, err := tech.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status": "signed",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Shift leads may not transition at all.
	resp, err = shiftLead.WithoutValidation().PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status": "under_investigation",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentUpdate_NoopAddsNoHistory(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotBID, []string{tech1ID})

	admin := newTestClient(t)
	admin.LoginAs(t, "admin", fixturePassword)

	// Re-submit the current state unchanged.
	resp, err := admin.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status":  "created",
		"gravity": 3,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = admin.GET("/api/v1/incidents/" + incident.ID + "/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history historyEnvelope
	testutil.DecodeJSON(t, resp, &history)
	assert.Len(t, history.Data, 1) // creation entry only
}

func TestIncidentUpdate_TechnicianReassignment(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotBID, []string{tech1ID})

	admin := newTestClient(t)
	admin.LoginAs(t, "admin", fixturePassword)

	resp, err := admin.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status":         "created",
		"gravity":        3,
		"technician_ids": []string{tech2ID},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated incidentEnvelope
	testutil.DecodeJSON(t, resp, &updated)
	require.Len(t, updated.Data.Technicians, 1)
	assert.Equal(t, tech2ID, updated.Data.Technicians[0].ID)

	resp, err = admin.GET("/api/v1/incidents/" + incident.ID + "/history")
	require.NoError(t, err)
	var history historyEnvelope
	testutil.DecodeJSON(t, resp, &history)
	require.Len(t, history.Data, 2)
	assert.Contains(t, history.Data[0].ChangeText, `technicians: "Ana Torres" -> "Marco Ruiz"`)
}

func TestIncidentUpdate_GravityCleared(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotBID, []string{tech1ID})

	admin := newTestClient(t)
	admin.LoginAs(t, "admin", fixturePassword)

	// Omitting gravity clears it: the field is literal, not coalesced.
	resp, err := admin.PUT("/api/v1/incidents/"+incident.ID, map[string]interface{}{
		"status": "created",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated incidentEnvelope
	testutil.DecodeJSON(t, resp, &updated)
	assert.Nil(t, updated.Data.Gravity)
}

func TestDeleteIncident_AdminOnly(t *testing.T) {
	shiftLead := newTestClient(t)
	shiftLead.LoginAs(t, "shiftlead", fixturePassword)
	incident := createIncident(t, shiftLead, robotBID, []string{tech1ID})

	// Non-admin roles are rejected.
	tech := newTestClientWithoutValidation()
	tech.LoginAs(t, "tech1", fixturePassword)
	resp, err := tech.DELETE("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	admin := newTestClient(t)
	admin.LoginAs(t, "admin", fixturePassword)
	resp, err = admin.DELETE("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// The incident, assignments and history are gone.
	resp, err = admin.WithoutValidation().GET("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
