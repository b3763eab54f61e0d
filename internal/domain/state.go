package domain

// AttackState is a node of the attack state machine.
type AttackState string

const (
	StateIdle            AttackState = "idle"
	StateCapturing       AttackState = "capturing"
	StateCaptured        AttackState = "captured"
	StateCaptureTimedOut AttackState = "capture_timed_out"
	StateVerifying       AttackState = "verifying"
	StateCracked         AttackState = "cracked"
	StateNotFound        AttackState = "not_found"
	// StateAborted is reached on spawn/setup failures and cancellation.
	StateAborted AttackState = "aborted"
)

var transitions = map[AttackState][]AttackState{
	StateIdle:      {StateCapturing, StateAborted},
	StateCapturing: {StateCaptured, StateCaptureTimedOut, StateAborted},
	StateCaptured:  {StateVerifying, StateAborted},
	StateVerifying: {StateCracked, StateNotFound, StateAborted},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to AttackState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AttackState) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}
