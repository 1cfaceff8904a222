package incidents

import (
	"testing"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func baseSnapshot() Snapshot {
	return Snapshot{
		Status:            domain.IncidentStatusCreated,
		Gravity:           intPtr(3),
		Location:          "aisle 12",
		Type:              "collision",
		Cause:             "sensor fault",
		TechnicianComment: "",
		TechnicianNames:   []string{"Ana Torres", "Marco Ruiz"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	prior := baseSnapshot()
	proposed := baseSnapshot()

	assert.Empty(t, Diff(prior, proposed))
}

func TestDiff_ReorderedTechniciansIsNoop(t *testing.T) {
	prior := baseSnapshot()
	proposed := baseSnapshot()
	proposed.TechnicianNames = []string{"Marco Ruiz", "Ana Torres"}

	assert.Empty(t, Diff(prior, proposed))
}

func TestDiff_FieldOrder(t *testing.T) {
	prior := baseSnapshot()
	proposed := Snapshot{
		Status:            domain.IncidentStatusUnderInvestigation,
		Gravity:           intPtr(7),
		Location:          "aisle 14",
		Type:              "collision",
		Cause:             "operator error",
		TechnicianComment: "wheel assembly damaged",
		TechnicianNames:   []string{"Ana Torres"},
	}

	changes := Diff(prior, proposed)
	require.Len(t, changes, 6)

	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field)
	}
	assert.Equal(t, []string{
		"status", "gravity", "location", "cause", "technician_comment", "technicians",
	}, fields)
}

func TestDiff_GravityTransitions(t *testing.T) {
	tests := []struct {
		name    string
		old     *int
		new     *int
		wantOld string
		wantNew string
		changed bool
	}{
		{name: "set from unset", old: nil, new: intPtr(5), wantOld: "unset", wantNew: "5", changed: true},
		{name: "cleared to unset", old: intPtr(5), new: nil, wantOld: "5", wantNew: "unset", changed: true},
		{name: "both unset", old: nil, new: nil, changed: false},
		{name: "same value", old: intPtr(4), new: intPtr(4), changed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := baseSnapshot()
			prior.Gravity = tt.old
			proposed := baseSnapshot()
			proposed.Gravity = tt.new

			changes := Diff(prior, proposed)
			if !tt.changed {
				assert.Empty(t, changes)
				return
			}
			require.Len(t, changes, 1)
			assert.Equal(t, "gravity", changes[0].Field)
			assert.Equal(t, tt.wantOld, changes[0].Old)
			assert.Equal(t, tt.wantNew, changes[0].New)
		})
	}
}

func TestRenderChangeText(t *testing.T) {
	changes := []FieldChange{
		{Field: "status", Old: "created", New: "under_investigation"},
		{Field: "location", Old: "aisle 12", New: "aisle 14"},
	}

	text := RenderChangeText(changes)
	assert.Equal(t, "status: \"created\" -> \"under_investigation\"\nlocation: \"aisle 12\" -> \"aisle 14\"", text)
}

func TestRenderChangeText_Empty(t *testing.T) {
	assert.Equal(t, "", RenderChangeText(nil))
}
