package maintenance

import "fmt"

// State describes the lifecycle position of a maintenance request.
type State string

const (
	// StatePending marks a request that is waiting for a due date.
	StatePending State = "pending"

	// StateDue marks a request whose due date has been reached.
	StateDue State = "due"

	// StateRunning marks a request whose command is currently executing.
	StateRunning State = "running"

	// StateSuccess marks a request that finished with exit code 0.
	StateSuccess State = "success"

	// StateTempfail marks a request that failed transiently and will be
	// retried at the next opportunity.
	StateTempfail State = "tempfail"

	// StateRetryLimit marks a request that exhausted its attempt budget.
	StateRetryLimit State = "retrylimit"

	// StateError marks a request that failed permanently.
	StateError State = "error"

	// StatePostpone marks a request that asked to be run later.
	StatePostpone State = "postpone"

	// StateDeleted marks a request selected for removal. It is archived
	// on the next maintenance cycle.
	StateDeleted State = "deleted"
)

// Exit codes with a defined meaning for maintenance commands.
// All other non-zero exit codes count as permanent failures.
const (
	// ExitPostpone signals that the machine is not ready and the request
	// should be rescheduled for a later slot.
	ExitPostpone = 69

	// ExitTempfail signals a transient failure worth retrying.
	ExitTempfail = 75

	// exitSoftware is recorded when the command could not be run at all
	// (sysexits EX_SOFTWARE).
	exitSoftware = 70
)

// terminalStates are the outcomes that move a request to the archive.
var terminalStates = map[State]bool{
	StateSuccess:    true,
	StateError:      true,
	StateRetryLimit: true,
	StateDeleted:    true,
}

// Terminal reports whether the state is a final outcome. Terminal
// requests are moved out of the active spool by the next cycle.
func (s State) Terminal() bool {
	return terminalStates[s]
}

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// EvaluateExit maps a command exit code to the resulting request state.
func EvaluateExit(returncode int) State {
	switch returncode {
	case 0:
		return StateSuccess
	case ExitPostpone:
		return StatePostpone
	case ExitTempfail:
		return StateTempfail
	default:
		return StateError
	}
}

// ParseState converts a state name into a State. It accepts exactly the
// names produced by State.String.
func ParseState(name string) (State, error) {
	switch State(name) {
	case StatePending, StateDue, StateRunning, StateSuccess, StateTempfail,
		StateRetryLimit, StateError, StatePostpone, StateDeleted:
		return State(name), nil
	default:
		return "", fmt.Errorf("unknown request state: %q", name)
	}
}
