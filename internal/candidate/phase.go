package candidate

import "fmt"

// Phase identifies a generation strategy. Phases are selected by attempt
// number and never overlap.
type Phase int

const (
	// Phase1 covers attempts [0, 1000): dictionary words and seed+suffix.
	Phase1 Phase = iota + 1
	// Phase2 covers attempts [1000, 5000): keyboard walks and leet seeds.
	Phase2
	// Phase3 covers attempts [5000, 20000): randomized compositions, 8-16 chars.
	Phase3
	// Phase4 covers attempts [20000, inf): template synthesis.
	Phase4
)

// Phase boundaries, as the first attempt of the following phase.
const (
	Phase2Start uint64 = 1000
	Phase3Start uint64 = 5000
	Phase4Start uint64 = 20000
)

// PhaseFor returns the phase an attempt number belongs to.
func PhaseFor(attempt uint64) Phase {
	switch {
	case attempt < Phase2Start:
		return Phase1
	case attempt < Phase3Start:
		return Phase2
	case attempt < Phase4Start:
		return Phase3
	default:
		return Phase4
	}
}

func (p Phase) String() string {
	if p < Phase1 || p > Phase4 {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return fmt.Sprintf("phase%d", int(p))
}
