package fixture

import "time"

// State is the pick lifecycle of one fixture:
// OPEN -> LOCKED_BY_TIME -> SCORED or OPEN -> LOCKED_BY_RESULT -> SCORED.
type State string

const (
	StateOpen           State = "OPEN"
	StateLockedByTime   State = "LOCKED_BY_TIME"
	StateLockedByResult State = "LOCKED_BY_RESULT"
	StateScored         State = "SCORED"
)

// ResolveState derives the state of f. A recorded result wins over the clock.
func ResolveState(f Fixture, now time.Time, hasResult, scored bool) State {
	switch {
	case hasResult && scored:
		return StateScored
	case hasResult:
		return StateLockedByResult
	case !f.IsOpen(now):
		return StateLockedByTime
	default:
		return StateOpen
	}
}

func (s State) AcceptsPicks() bool {
	return s == StateOpen
}

func (s State) IsLocked() bool {
	return s != StateOpen
}
