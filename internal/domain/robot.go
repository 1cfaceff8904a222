package domain

// RobotState represents the operational state of a warehouse robot.
type RobotState string

// Robot states.
const (
	RobotStateOperational  RobotState = "operational"
	RobotStateOutOfService RobotState = "out_of_service"
	RobotStateUnderRepair  RobotState = "under_repair"
)

// IsValid checks if the robot state is one of the defined values.
func (s RobotState) IsValid() bool {
	return s == RobotStateOperational || s == RobotStateOutOfService || s == RobotStateUnderRepair
}

// Robot is a warehouse robot tracked by the fleet.
type Robot struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	State RobotState `json:"state"`
}
