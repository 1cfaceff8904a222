package incidents

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetyard/incident-bay/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Snapshot is the audited view of an incident: the scalar fields that appear
// in change history plus the assigned technician display names.
type Snapshot struct {
	Status            domain.IncidentStatus
	Gravity           *int
	Location          string
	Type              string
	Cause             string
	TechnicianComment string
	TechnicianNames   []string
}

// FieldChange is a single entry in a change set.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// collator sorts technician display names so that assignment order never
// shows up as a change. Collation handles accented names correctly.
var collator = collate.New(language.Und)

// Diff compares a prior snapshot against a proposed one and returns the
// ordered list of field changes. An empty result means a true no-op.
//
// Technician names are compared as sorted lists: reordering produces no
// entry, any addition or removal does.
func Diff(prior, proposed Snapshot) []FieldChange {
	var changes []FieldChange

	if prior.Status != proposed.Status {
		changes = append(changes, FieldChange{"status", string(prior.Status), string(proposed.Status)})
	}
	if oldG, newG := formatGravity(prior.Gravity), formatGravity(proposed.Gravity); oldG != newG {
		changes = append(changes, FieldChange{"gravity", oldG, newG})
	}
	if prior.Location != proposed.Location {
		changes = append(changes, FieldChange{"location", prior.Location, proposed.Location})
	}
	if prior.Type != proposed.Type {
		changes = append(changes, FieldChange{"type", prior.Type, proposed.Type})
	}
	if prior.Cause != proposed.Cause {
		changes = append(changes, FieldChange{"cause", prior.Cause, proposed.Cause})
	}
	if prior.TechnicianComment != proposed.TechnicianComment {
		changes = append(changes, FieldChange{"technician_comment", prior.TechnicianComment, proposed.TechnicianComment})
	}
	if oldT, newT := formatNames(prior.TechnicianNames), formatNames(proposed.TechnicianNames); oldT != newT {
		changes = append(changes, FieldChange{"technicians", oldT, newT})
	}

	return changes
}

// RenderChangeText renders a change set into the multi-line text stored in a
// history entry. The diff itself stays string-format-agnostic; only this
// boundary decides presentation.
func RenderChangeText(changes []FieldChange) string {
	if len(changes) == 0 {
		return ""
	}
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("%s: %q -> %q", c.Field, c.Old, c.New))
	}
	return strings.Join(lines, "\n")
}

func formatGravity(g *int) string {
	if g == nil {
		return "unset"
	}
	return strconv.Itoa(*g)
}

func formatNames(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	collator.SortStrings(sorted)
	return strings.Join(sorted, ", ")
}
