package contact

// State is the position of a form in its edit/submit cycle.
type State int

const (
	// StatePristine is a freshly mounted form that has seen no input.
	StatePristine State = iota
	// StateEditing follows any input.
	StateEditing
	// StateInvalid follows a submit that failed validation.
	StateInvalid
	// StateSubmitted follows a submit that passed validation.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StatePristine:
		return "pristine"
	case StateEditing:
		return "editing"
	case StateInvalid:
		return "invalid"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}
