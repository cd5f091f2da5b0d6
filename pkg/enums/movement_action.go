package enums

import "fmt"

// MovementAction labels a stock movement log entry.
type MovementAction string

const (
	MovementActionAdd    MovementAction = "ADD"
	MovementActionDelete MovementAction = "DELETE"
	MovementActionUpdate MovementAction = "UPDATE"
)

var validMovementActions = []MovementAction{
	MovementActionAdd,
	MovementActionDelete,
	MovementActionUpdate,
}

// String implements fmt.Stringer.
func (m MovementAction) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementAction.
func (m MovementAction) IsValid() bool {
	for _, candidate := range validMovementActions {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementAction converts raw input into a MovementAction.
func ParseMovementAction(value string) (MovementAction, error) {
	for _, candidate := range validMovementActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement action %q", value)
}
