package dispatcher

import "fmt"

// State is a step of one Route call.
type State int

// Route states in the order a successful call passes through them.
const (
	StateStart State = iota
	StateVersionResolved
	StateAuthenticated
	StateAuthFailed
	StateMethodChecked
	StateNotImplemented
	StateArgsValid
	StateArgsInvalid
	StateDispatched
	StateUnexpectedFailure
	StateFinished
)

var stateNames = map[State]string{
	StateStart:             "START",
	StateVersionResolved:   "VERSION_RESOLVED",
	StateAuthenticated:     "AUTHENTICATED",
	StateAuthFailed:        "AUTH_FAILED",
	StateMethodChecked:     "METHOD_CHECKED",
	StateNotImplemented:    "NOT_IMPLEMENTED",
	StateArgsValid:         "ARGS_VALID",
	StateArgsInvalid:       "ARGS_INVALID",
	StateDispatched:        "DISPATCHED",
	StateUnexpectedFailure: "UNEXPECTED_FAILURE",
	StateFinished:          "FINISHED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// Terminal reports whether s ends the routing steps. Every terminal state is
// followed by FINISHED.
func (s State) Terminal() bool {
	switch s {
	case StateAuthFailed, StateNotImplemented, StateArgsInvalid, StateDispatched, StateUnexpectedFailure:
		return true
	}
	return false
}
