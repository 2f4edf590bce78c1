package interaction

import "github.com/kamstrup/intmap"

// Interactable is something interactors can hover and select. It tracks the
// interactors referencing it by Identifier only; it never owns them.
type Interactable interface {
	ID() Identifier

	AddInteractor(id Identifier)
	RemoveInteractor(id Identifier)
	AddSelectingInteractor(id Identifier)
	RemoveSelectingInteractor(id Identifier)

	HasInteractor(id Identifier) bool
	HasSelectingInteractor(id Identifier) bool

	// CanBeSelectedBy reports whether the interactor may take this as its candidate.
	CanBeSelectedBy(id Identifier) bool
}

// Target is the reference Interactable implementation. Hosts either use it
// directly, attaching their own payload in Data, or embed it.
type Target struct {
	// Data is an opaque host payload.
	Data any

	// MaxInteractors and MaxSelectingInteractors cap concurrent references.
	// Negative values mean unlimited.
	MaxInteractors          int
	MaxSelectingInteractors int

	id        Identifier
	ids       *IDRegistry
	state     InteractorState
	filters   []func(Identifier) bool
	hovering  *intmap.Map[Identifier, struct{}]
	selecting *intmap.Map[Identifier, struct{}]

	whenStateChanged               Event[StateChange]
	whenInteractorAdded            Event[Identifier]
	whenInteractorRemoved          Event[Identifier]
	whenSelectingInteractorAdded   Event[Identifier]
	whenSelectingInteractorRemoved Event[Identifier]
}

// NewTarget creates an enabled Target with unlimited capacity, drawing its
// Identifier from ids, or DefaultIDs when ids is nil.
func NewTarget(ids *IDRegistry, data any) *Target {
	if ids == nil {
		ids = DefaultIDs
	}
	return &Target{
		Data:                    data,
		MaxInteractors:          -1,
		MaxSelectingInteractors: -1,
		id:                      ids.Acquire(),
		ids:                     ids,
		state:                   StateNormal,
		hovering:                intmap.New[Identifier, struct{}](4),
		selecting:               intmap.New[Identifier, struct{}](4),
	}
}

func (t *Target) ID() Identifier                            { return t.id }
func (t *Target) State() InteractorState                    { return t.state }
func (t *Target) WhenStateChanged() *Event[StateChange]     { return &t.whenStateChanged }
func (t *Target) WhenInteractorAdded() *Event[Identifier]   { return &t.whenInteractorAdded }
func (t *Target) WhenInteractorRemoved() *Event[Identifier] { return &t.whenInteractorRemoved }
func (t *Target) WhenSelectingInteractorAdded() *Event[Identifier] {
	return &t.whenSelectingInteractorAdded
}
func (t *Target) WhenSelectingInteractorRemoved() *Event[Identifier] {
	return &t.whenSelectingInteractorRemoved
}

// AddInteractorFilter restricts which interactors may pick this target as a candidate.
func (t *Target) AddInteractorFilter(fn func(interactor Identifier) bool) {
	t.filters = append(t.filters, fn)
}

func (t *Target) AddInteractor(id Identifier) {
	if t.state == StateDisabled || t.hovering.Has(id) {
		return
	}
	t.hovering.Put(id, struct{}{})
	t.whenInteractorAdded.Emit(id)
	t.updateState()
}

func (t *Target) RemoveInteractor(id Identifier) {
	if !t.hovering.Del(id) {
		return
	}
	t.whenInteractorRemoved.Emit(id)
	t.updateState()
}

func (t *Target) AddSelectingInteractor(id Identifier) {
	if t.state == StateDisabled || t.selecting.Has(id) {
		return
	}
	t.selecting.Put(id, struct{}{})
	t.whenSelectingInteractorAdded.Emit(id)
	t.updateState()
}

func (t *Target) RemoveSelectingInteractor(id Identifier) {
	if !t.selecting.Del(id) {
		return
	}
	t.whenSelectingInteractorRemoved.Emit(id)
	t.updateState()
}

func (t *Target) HasInteractor(id Identifier) bool          { return t.hovering.Has(id) }
func (t *Target) HasSelectingInteractor(id Identifier) bool { return t.selecting.Has(id) }
func (t *Target) InteractorCount() int                      { return t.hovering.Len() }
func (t *Target) SelectingInteractorCount() int             { return t.selecting.Len() }

// Interactors returns the identifiers currently hovering, in no particular order.
func (t *Target) Interactors() []Identifier {
	return keys(t.hovering)
}

// SelectingInteractors returns the identifiers currently selecting, in no particular order.
func (t *Target) SelectingInteractors() []Identifier {
	return keys(t.selecting)
}

func (t *Target) CanBeSelectedBy(id Identifier) bool {
	if t.state == StateDisabled {
		return false
	}
	if t.MaxSelectingInteractors >= 0 && t.selecting.Len() >= t.MaxSelectingInteractors &&
		!t.selecting.Has(id) {
		return false
	}
	if t.MaxInteractors >= 0 && t.hovering.Len() >= t.MaxInteractors && !t.hovering.Has(id) {
		return false
	}
	for _, filter := range t.filters {
		if !filter(id) {
			return false
		}
	}
	return true
}

// Disable drops every interactor reference and refuses new ones until Enable.
// Interactors notice the dropped references on their next Preprocess.
func (t *Target) Disable() {
	if t.state == StateDisabled {
		return
	}
	for _, id := range t.SelectingInteractors() {
		t.RemoveSelectingInteractor(id)
	}
	for _, id := range t.Interactors() {
		t.RemoveInteractor(id)
	}
	t.setState(StateDisabled)
}

func (t *Target) Enable() {
	if t.state != StateDisabled {
		return
	}
	t.setState(StateNormal)
}

// Close disables the target and releases its Identifier.
func (t *Target) Close() {
	if t.ids == nil {
		return
	}
	t.Disable()
	t.ids.Release(t.id)
	t.ids = nil
}

func (t *Target) updateState() {
	if t.state == StateDisabled {
		return
	}
	switch {
	case t.selecting.Len() > 0:
		t.setState(StateSelect)
	case t.hovering.Len() > 0:
		t.setState(StateHover)
	default:
		t.setState(StateNormal)
	}
}

func (t *Target) setState(s InteractorState) {
	if t.state == s {
		return
	}
	prev := t.state
	t.state = s
	t.whenStateChanged.Emit(StateChange{Previous: prev, Current: s})
}

func keys(m *intmap.Map[Identifier, struct{}]) []Identifier {
	out := make([]Identifier, 0, m.Len())
	m.ForEach(func(id Identifier, _ struct{}) bool {
		out = append(out, id)
		return true
	})
	return out
}
