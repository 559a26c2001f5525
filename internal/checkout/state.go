package checkout

// State is a stage of the order pricing pipeline.
type State string

const (
	StatePricing         State = "pricing"
	StatePromoValidating State = "promo_validating"
	StateReserving       State = "reserving"
	StateCommitted       State = "committed"
	StateFailed          State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

var transitions = map[State][]State{
	StatePricing:         {StatePromoValidating, StateFailed},
	StatePromoValidating: {StateReserving, StateFailed},
	StateReserving:       {StateCommitted, StateFailed},
}

// CanTransition reports whether the pipeline may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StageError records the stage a commit failed in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
