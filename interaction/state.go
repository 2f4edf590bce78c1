package interaction

// InteractorState is the phase of an interactor or interactable.
type InteractorState int

const (
	StateNormal InteractorState = iota
	StateHover
	StateSelect
	StateDisabled
)

func (s InteractorState) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateHover:
		return "Hover"
	case StateSelect:
		return "Select"
	case StateDisabled:
		return "Disabled"
	default:
		return "Unknown"
	}
}

// StateChange is the payload of WhenStateChanged events.
type StateChange struct {
	Previous InteractorState
	Current  InteractorState
}
