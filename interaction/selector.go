package interaction

// ManualSelector is a Selector driven by explicit calls, typically from host
// input handling (a trigger press, a mouse button).
type ManualSelector struct {
	whenSelected   Signal
	whenUnselected Signal
	pressed        bool
}

func NewManualSelector() *ManualSelector {
	return &ManualSelector{}
}

func (s *ManualSelector) WhenSelected() *Signal   { return &s.whenSelected }
func (s *ManualSelector) WhenUnselected() *Signal { return &s.whenUnselected }

// Select fires the selected edge.
func (s *ManualSelector) Select() { emitSignal(&s.whenSelected) }

// Unselect fires the unselected edge.
func (s *ManualSelector) Unselect() { emitSignal(&s.whenUnselected) }

// SetPressed converts a held button level into edges: it fires selected on a
// rising edge and unselected on a falling edge.
func (s *ManualSelector) SetPressed(pressed bool) {
	if pressed == s.pressed {
		return
	}
	s.pressed = pressed
	if pressed {
		s.Select()
	} else {
		s.Unselect()
	}
}

// Pressed reports the last level passed to SetPressed.
func (s *ManualSelector) Pressed() bool { return s.pressed }
