// Package interaction coordinates hover and select across interaction agents.
//
// An Agent binds one input modality to at most one hovered and one selected
// Interactable, advancing a Normal/Hover/Select state machine once per tick.
// A Group arbitrates between several Interactors (agents or nested groups),
// forwarding the tick protocol to a single winner and disabling the rest.
// Everything runs synchronously on the caller's goroutine.
package interaction

import "errors"

// Interactor is the per-tick protocol shared by Agent and Group.
type Interactor interface {
	ID() Identifier
	State() InteractorState

	Preprocess()
	Process()
	Postprocess()
	ProcessCandidate()

	Enable()
	Disable()
	Hover()
	Unhover()
	Select()
	Unselect()

	ShouldHover() bool
	ShouldUnhover() bool
	ShouldSelect() bool
	ShouldUnselect() bool

	HasCandidate() bool
	CandidateProperties() any
	HasInteractable() bool
	HasSelectedInteractable() bool

	IsRootDriver() bool
	SetRootDriver(root bool)
	Drive()
	Update()
}

// CandidateSource computes the best Interactable for the current tick, or nil.
type CandidateSource interface {
	ComputeCandidate() Interactable
}

// CandidateSourceFunc adapts a function to CandidateSource.
type CandidateSourceFunc func() Interactable

func (f CandidateSourceFunc) ComputeCandidate() Interactable { return f() }

// CandidatePropertiesSource is implemented by candidate sources that attach a
// comparable payload (a distance, a score) to the candidate they returned last.
type CandidatePropertiesSource interface {
	CandidateProperties() any
}

// SelectDecider is implemented by candidate sources that decide selection intent
// themselves instead of relying on a Selector.
type SelectDecider interface {
	ComputeShouldSelect() bool
	ComputeShouldUnselect() bool
}

// Filter accepts or rejects a candidate.
type Filter interface {
	Filter(candidate Interactable) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(candidate Interactable) bool

func (f FilterFunc) Filter(candidate Interactable) bool { return f(candidate) }

// ActiveState gates an interactor. While inactive it is held in StateDisabled.
type ActiveState interface {
	Active() bool
}

// ActiveStateFunc adapts a function to ActiveState.
type ActiveStateFunc func() bool

func (f ActiveStateFunc) Active() bool { return f() }

// Selector is an edge-triggered source of select intent.
type Selector interface {
	WhenSelected() *Signal
	WhenUnselected() *Signal
}

// CandidateComparator orders two candidate payloads. Negative means a ranks before b.
type CandidateComparator interface {
	Compare(a, b any) int
}

// CandidateComparatorFunc adapts a function to CandidateComparator.
type CandidateComparatorFunc func(a, b any) int

func (f CandidateComparatorFunc) Compare(a, b any) int { return f(a, b) }

// DefaultMaxIterations bounds the select/hover loop of a single Drive call.
const DefaultMaxIterations = 3

var (
	ErrNilCandidateSource   = errors.New("nil candidate source")
	ErrNilFilter            = errors.New("nil filter")
	ErrNilInteractor        = errors.New("nil interactor")
	ErrDuplicateInteractor  = errors.New("duplicate interactor")
	ErrNilComparator        = errors.New("nil comparator")
	ErrInvalidMaxIterations = errors.New("max iterations must be at least 1")
)
