package interaction

import (
	"fmt"
	"log/slog"
)

// Agent is a single interaction modality, such as a ray pointer or a grab volume.
// It hovers the candidate produced by its CandidateSource and selects it when
// its Selector (or SelectDecider) asks for it.
type Agent struct {
	id     Identifier
	ids    *IDRegistry
	name   string
	logger *slog.Logger

	source        CandidateSource
	props         CandidatePropertiesSource
	decider       SelectDecider
	selector      Selector
	active        ActiveState
	filters       []Filter
	hooks         Hooks
	maxIterations int

	state                InteractorState
	candidate            Interactable
	interactable         Interactable
	selectedInteractable Interactable

	// requests for the current tick, and edges latched since the last Preprocess
	selectRequested   bool
	unselectRequested bool
	selectLatched     bool
	unselectLatched   bool

	selectedSub   Subscription
	unselectedSub Subscription
	subscribed    bool

	started        bool
	closed         bool
	rootDriver     bool
	lastIterations int

	whenStateChanged           Event[StateChange]
	whenPreprocessed           Signal
	whenProcessed              Signal
	whenPostprocessed          Signal
	whenInteractableSet        Event[Interactable]
	whenInteractableUnset      Event[Interactable]
	whenInteractableSelected   Event[Interactable]
	whenInteractableUnselected Event[Interactable]
}

// NewAgent validates the configuration and returns a root-driven agent in StateNormal.
// Call Start before driving it so the Selector subscription is attached.
func NewAgent(source CandidateSource, opts ...AgentOption) (*Agent, error) {
	if source == nil {
		return nil, fmt.Errorf("interaction: new agent: %w", ErrNilCandidateSource)
	}

	a := &Agent{
		source:        source,
		maxIterations: DefaultMaxIterations,
		state:         StateNormal,
		rootDriver:    true,
	}
	for _, opt := range opts {
		opt(a)
	}

	for i, filter := range a.filters {
		if filter == nil {
			return nil, fmt.Errorf("interaction: new agent: filter %d: %w", i, ErrNilFilter)
		}
	}
	if a.maxIterations < 1 {
		return nil, fmt.Errorf("interaction: new agent: %d: %w", a.maxIterations, ErrInvalidMaxIterations)
	}

	if props, ok := source.(CandidatePropertiesSource); ok {
		a.props = props
	}
	if decider, ok := source.(SelectDecider); ok {
		a.decider = decider
	}
	if a.ids == nil {
		a.ids = DefaultIDs
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	a.id = a.ids.Acquire()
	if a.name == "" {
		a.name = "agent" + a.id.String()
	}
	return a, nil
}

func (a *Agent) ID() Identifier                     { return a.id }
func (a *Agent) Name() string                       { return a.name }
func (a *Agent) State() InteractorState             { return a.state }
func (a *Agent) Candidate() Interactable            { return a.candidate }
func (a *Agent) Interactable() Interactable         { return a.interactable }
func (a *Agent) SelectedInteractable() Interactable { return a.selectedInteractable }
func (a *Agent) HasCandidate() bool                 { return a.candidate != nil }
func (a *Agent) HasInteractable() bool              { return a.interactable != nil }
func (a *Agent) HasSelectedInteractable() bool      { return a.selectedInteractable != nil }
func (a *Agent) IsRootDriver() bool                 { return a.rootDriver }
func (a *Agent) SetRootDriver(root bool)            { a.rootDriver = root }
func (a *Agent) MaxIterations() int                 { return a.maxIterations }

// LastIterations reports how many loop iterations the most recent Drive used.
func (a *Agent) LastIterations() int { return a.lastIterations }

func (a *Agent) WhenStateChanged() *Event[StateChange]          { return &a.whenStateChanged }
func (a *Agent) WhenPreprocessed() *Signal                      { return &a.whenPreprocessed }
func (a *Agent) WhenProcessed() *Signal                         { return &a.whenProcessed }
func (a *Agent) WhenPostprocessed() *Signal                     { return &a.whenPostprocessed }
func (a *Agent) WhenInteractableSet() *Event[Interactable]      { return &a.whenInteractableSet }
func (a *Agent) WhenInteractableUnset() *Event[Interactable]    { return &a.whenInteractableUnset }
func (a *Agent) WhenInteractableSelected() *Event[Interactable] { return &a.whenInteractableSelected }
func (a *Agent) WhenInteractableUnselected() *Event[Interactable] {
	return &a.whenInteractableUnselected
}

// CandidateProperties returns the payload used by group comparators: whatever the
// candidate source attached, or the candidate itself. Nil without a candidate.
func (a *Agent) CandidateProperties() any {
	if a.candidate == nil {
		return nil
	}
	if a.props != nil {
		return a.props.CandidateProperties()
	}
	return a.candidate
}

// Start attaches the Selector subscription. Calling Start twice is a no-op.
func (a *Agent) Start() {
	if a.started || a.closed {
		return
	}
	a.started = true
	a.subscribe()
}

// Stop disables the agent and detaches the Selector subscription.
func (a *Agent) Stop() {
	if !a.started {
		return
	}
	a.Disable()
	a.unsubscribe()
	a.started = false
}

// Close stops the agent and releases its Identifier. The agent must not be used afterwards.
func (a *Agent) Close() {
	if a.closed {
		return
	}
	a.Stop()
	a.Disable()
	a.ids.Release(a.id)
	a.closed = true
}

func (a *Agent) subscribe() {
	if a.subscribed || a.selector == nil {
		return
	}
	a.selectedSub = a.selector.WhenSelected().Subscribe(func(struct{}) {
		a.selectLatched = true
	})
	a.unselectedSub = a.selector.WhenUnselected().Subscribe(func(struct{}) {
		a.unselectLatched = true
	})
	a.subscribed = true
}

func (a *Agent) unsubscribe() {
	if !a.subscribed {
		return
	}
	a.selector.WhenSelected().Unsubscribe(a.selectedSub)
	a.selector.WhenUnselected().Unsubscribe(a.unselectedSub)
	a.selectLatched = false
	a.unselectLatched = false
	a.subscribed = false
}

// Update drives the agent when it is started and no group drives it.
func (a *Agent) Update() {
	if !a.started || !a.rootDriver {
		return
	}
	a.Drive()
}

// Drive runs one full tick: Preprocess, the bounded select/candidate/hover loop,
// Process and Postprocess.
func (a *Agent) Drive() {
	a.Preprocess()

	a.lastIterations = 0
	for a.lastIterations < a.maxIterations {
		a.lastIterations++

		if a.state == StateSelect || a.selectWanted() {
			a.Select()
			if a.state == StateSelect {
				if !a.ShouldUnselect() {
					break
				}
				a.Unselect()
			}
		}

		a.ProcessCandidate()
		a.Enable()

		if a.state != StateHover && !a.ShouldHover() {
			break
		}
		a.Hover()

		if a.ShouldUnhover() {
			a.Unhover()
			break
		}
		if !a.selectWanted() {
			break
		}
	}

	a.Process()
	a.Postprocess()
}

func (a *Agent) Preprocess() {
	a.selectRequested = a.selectLatched
	a.unselectRequested = a.unselectLatched
	a.selectLatched = false
	a.unselectLatched = false

	if a.hooks.Preprocess != nil {
		a.hooks.Preprocess()
	}
	a.interactableChangesUpdate()
	if !a.isActive() {
		a.Disable()
	}
	emitSignal(&a.whenPreprocessed)
}

// Process runs the update hook of the current state.
func (a *Agent) Process() {
	var hook func()
	switch a.state {
	case StateNormal:
		hook = a.hooks.NormalUpdate
	case StateHover:
		hook = a.hooks.HoverUpdate
	case StateSelect:
		hook = a.hooks.SelectUpdate
	}
	if hook != nil {
		hook()
	}
	emitSignal(&a.whenProcessed)
}

func (a *Agent) Postprocess() {
	if a.hooks.Postprocess != nil {
		a.hooks.Postprocess()
	}
	emitSignal(&a.whenPostprocessed)
}

// ProcessCandidate recomputes the candidate. Candidates that fail a filter, or that
// refuse this agent, are dropped.
func (a *Agent) ProcessCandidate() {
	a.candidate = nil
	if !a.isActive() {
		return
	}
	candidate := a.source.ComputeCandidate()
	if candidate == nil || !a.accepts(candidate) {
		return
	}
	a.candidate = candidate
}

func (a *Agent) accepts(candidate Interactable) bool {
	for _, filter := range a.filters {
		if !filter.Filter(candidate) {
			return false
		}
	}
	return candidate.CanBeSelectedBy(a.id)
}

func (a *Agent) isActive() bool {
	return a.active == nil || a.active.Active()
}

func (a *Agent) selectWanted() bool {
	if a.selector == nil && a.decider != nil {
		return a.decider.ComputeShouldSelect()
	}
	return a.selectRequested
}

func (a *Agent) unselectWanted() bool {
	if a.selector == nil && a.decider != nil {
		return a.decider.ComputeShouldUnselect()
	}
	return a.unselectRequested
}

func (a *Agent) ShouldHover() bool {
	return a.state == StateNormal && (a.HasCandidate() || a.selectWanted())
}

func (a *Agent) ShouldUnhover() bool {
	if a.state != StateHover || a.selectWanted() {
		return false
	}
	return a.interactable == nil || !sameInteractable(a.interactable, a.candidate)
}

func (a *Agent) ShouldSelect() bool {
	return a.state == StateHover && a.selectWanted()
}

func (a *Agent) ShouldUnselect() bool {
	return a.state == StateSelect && a.unselectWanted()
}

func (a *Agent) Enable() {
	if a.state != StateDisabled || !a.isActive() {
		return
	}
	a.setState(StateNormal)
}

// Disable cascades Select -> Hover -> Normal -> Disabled in a single call.
func (a *Agent) Disable() {
	if a.state == StateDisabled {
		return
	}
	if a.state == StateSelect {
		a.unselectInteractable()
		a.setState(StateHover)
	}
	if a.state == StateHover {
		a.unsetInteractable()
		a.setState(StateNormal)
	}
	a.candidate = nil
	a.setState(StateDisabled)
}

func (a *Agent) Hover() {
	if !a.ShouldHover() {
		return
	}
	a.setState(StateHover)
	a.setInteractable(a.candidate)
}

func (a *Agent) Unhover() {
	if !a.ShouldUnhover() {
		return
	}
	a.unsetInteractable()
	a.setState(StateNormal)
}

func (a *Agent) Select() {
	if !a.ShouldSelect() {
		return
	}
	a.selectRequested = false
	a.setState(StateSelect)
	if a.selectedInteractable != nil {
		a.unselectInteractable()
	}
	a.selectInteractable(a.interactable)
}

func (a *Agent) Unselect() {
	if !a.ShouldUnselect() {
		return
	}
	a.unselectRequested = false
	a.unselectInteractable()
	a.setState(StateHover)
}

// interactableChangesUpdate drops references the interactables no longer hold for us.
func (a *Agent) interactableChangesUpdate() {
	if x := a.selectedInteractable; x != nil && !x.HasSelectingInteractor(a.id) {
		a.selectedInteractable = nil
		a.whenInteractableUnselected.Emit(x)
		a.setState(StateHover)
	}
	if x := a.interactable; x != nil && !x.HasInteractor(a.id) {
		if a.state == StateSelect {
			a.unselectInteractable()
			a.setState(StateHover)
		}
		a.interactable = nil
		a.whenInteractableUnset.Emit(x)
		a.setState(StateNormal)
	}
}

func (a *Agent) setInteractable(x Interactable) {
	if x == nil {
		return
	}
	a.interactable = x
	x.AddInteractor(a.id)
	a.whenInteractableSet.Emit(x)
}

func (a *Agent) unsetInteractable() {
	x := a.interactable
	if x == nil {
		return
	}
	a.interactable = nil
	x.RemoveInteractor(a.id)
	a.whenInteractableUnset.Emit(x)
}

func (a *Agent) selectInteractable(x Interactable) {
	if x == nil {
		return
	}
	a.selectedInteractable = x
	x.AddSelectingInteractor(a.id)
	a.whenInteractableSelected.Emit(x)
}

func (a *Agent) unselectInteractable() {
	x := a.selectedInteractable
	if x == nil {
		return
	}
	a.selectedInteractable = nil
	x.RemoveSelectingInteractor(a.id)
	a.whenInteractableUnselected.Emit(x)
}

func (a *Agent) setState(s InteractorState) {
	if a.state == s {
		return
	}
	prev := a.state
	a.state = s
	a.logger.Debug("interactor state changed", "interactor", a.name, "from", prev, "to", s)
	a.whenStateChanged.Emit(StateChange{Previous: prev, Current: s})
}

func sameInteractable(x, y Interactable) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return x.ID() == y.ID()
}
