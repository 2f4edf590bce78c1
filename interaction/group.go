package interaction

import (
	"fmt"
	"log/slog"
	"slices"
)

// GroupOption configures a Group at construction.
type GroupOption func(*Group)

// WithComparator ranks children by their candidate payloads instead of list order.
func WithComparator(comparator CandidateComparator) GroupOption {
	return func(g *Group) {
		g.comparator = comparator
		g.comparatorSet = true
	}
}

// WithGroupMaxIterations overrides DefaultMaxIterations for the group's Drive loop.
func WithGroupMaxIterations(n int) GroupOption {
	return func(g *Group) { g.maxIterations = n }
}

func WithGroupLogger(logger *slog.Logger) GroupOption {
	return func(g *Group) { g.logger = logger }
}

func WithGroupIDRegistry(ids *IDRegistry) GroupOption {
	return func(g *Group) { g.ids = ids }
}

func WithGroupName(name string) GroupOption {
	return func(g *Group) { g.name = name }
}

// Group arbitrates between Interactors. Each tick it picks one winning child,
// disables every other child and forwards the hover/select protocol to the winner.
// Children may be agents or nested groups.
type Group struct {
	id     Identifier
	ids    *IDRegistry
	name   string
	logger *slog.Logger

	interactors   []Interactor
	comparator    CandidateComparator
	comparatorSet bool
	maxIterations int

	candidateInteractor Interactor
	state               InteractorState
	rootDriver          bool
	started             bool
	closed              bool
	lastIterations      int

	whenStateChanged  Event[StateChange]
	whenPreprocessed  Signal
	whenProcessed     Signal
	whenPostprocessed Signal
	whenWinnerChanged Event[Interactor]
}

// NewGroup validates the children and takes over driving them.
func NewGroup(interactors []Interactor, opts ...GroupOption) (*Group, error) {
	g := &Group{
		maxIterations: DefaultMaxIterations,
		state:         StateNormal,
		rootDriver:    true,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.comparatorSet && g.comparator == nil {
		return nil, fmt.Errorf("interaction: new group: %w", ErrNilComparator)
	}
	if g.maxIterations < 1 {
		return nil, fmt.Errorf("interaction: new group: %d: %w", g.maxIterations, ErrInvalidMaxIterations)
	}
	for i, interactor := range interactors {
		if interactor == nil {
			return nil, fmt.Errorf("interaction: new group: interactor %d: %w", i, ErrNilInteractor)
		}
		if slices.Contains(interactors[:i], interactor) {
			return nil, fmt.Errorf("interaction: new group: interactor %d: %w", i, ErrDuplicateInteractor)
		}
	}

	if g.ids == nil {
		g.ids = DefaultIDs
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.id = g.ids.Acquire()
	if g.name == "" {
		g.name = "group" + g.id.String()
	}

	g.interactors = make([]Interactor, 0, len(interactors))
	for _, interactor := range interactors {
		interactor.SetRootDriver(false)
		g.interactors = append(g.interactors, interactor)
	}
	return g, nil
}

func (g *Group) ID() Identifier          { return g.id }
func (g *Group) Name() string            { return g.name }
func (g *Group) State() InteractorState  { return g.state }
func (g *Group) IsRootDriver() bool      { return g.rootDriver }
func (g *Group) SetRootDriver(root bool) { g.rootDriver = root }
func (g *Group) LastIterations() int     { return g.lastIterations }

// Interactors returns the children in priority order.
func (g *Group) Interactors() []Interactor { return slices.Clone(g.interactors) }

// CandidateInteractor returns the current winner, nil before the first ProcessCandidate.
func (g *Group) CandidateInteractor() Interactor { return g.candidateInteractor }

func (g *Group) WhenStateChanged() *Event[StateChange] { return &g.whenStateChanged }
func (g *Group) WhenPreprocessed() *Signal             { return &g.whenPreprocessed }
func (g *Group) WhenProcessed() *Signal                { return &g.whenProcessed }
func (g *Group) WhenPostprocessed() *Signal            { return &g.whenPostprocessed }

// WhenWinnerChanged fires when ProcessCandidate picks a different child.
func (g *Group) WhenWinnerChanged() *Event[Interactor] { return &g.whenWinnerChanged }

// AddInteractor appends a child at the lowest priority. The group drives it from now on.
func (g *Group) AddInteractor(interactor Interactor) error {
	if interactor == nil {
		return fmt.Errorf("interaction: group %s: add: %w", g.name, ErrNilInteractor)
	}
	if slices.Contains(g.interactors, interactor) {
		return fmt.Errorf("interaction: group %s: add: %w", g.name, ErrDuplicateInteractor)
	}
	interactor.SetRootDriver(false)
	g.interactors = append(g.interactors, interactor)
	if g.started {
		startInteractor(interactor)
	}
	// a winner is already active; the newcomer waits for the next arbitration
	if g.candidateInteractor != nil {
		interactor.Disable()
	}
	return nil
}

// RemoveInteractor detaches a child and hands its driving back to itself.
// It reports whether the child was a member.
func (g *Group) RemoveInteractor(interactor Interactor) bool {
	idx := slices.Index(g.interactors, interactor)
	if idx < 0 {
		return false
	}
	g.interactors = slices.Delete(g.interactors, idx, idx+1)
	if g.candidateInteractor == interactor {
		interactor.Disable()
		g.candidateInteractor = nil
		g.syncState()
	}
	interactor.SetRootDriver(true)
	return true
}

// Start starts every child that supports it.
func (g *Group) Start() {
	if g.started || g.closed {
		return
	}
	g.started = true
	for _, interactor := range g.interactors {
		startInteractor(interactor)
	}
}

// Stop disables and stops every child.
func (g *Group) Stop() {
	if !g.started {
		return
	}
	g.Disable()
	for _, interactor := range g.interactors {
		if s, ok := interactor.(interface{ Stop() }); ok {
			s.Stop()
		}
	}
	g.started = false
}

// Close stops the group and releases its Identifier. Children are left alive.
func (g *Group) Close() {
	if g.closed {
		return
	}
	g.Stop()
	g.ids.Release(g.id)
	g.closed = true
}

func startInteractor(interactor Interactor) {
	if s, ok := interactor.(interface{ Start() }); ok {
		s.Start()
	}
}

func (g *Group) Update() {
	if !g.started || !g.rootDriver {
		return
	}
	g.Drive()
}

// Drive runs one tick with the same loop shape as Agent.Drive, delegating each
// phase to the winner and keeping every other child disabled.
func (g *Group) Drive() {
	g.Preprocess()

	g.lastIterations = 0
	for g.lastIterations < g.maxIterations {
		g.lastIterations++

		if g.state == StateSelect || g.ShouldSelect() {
			g.Select()
			if g.state == StateSelect {
				if !g.ShouldUnselect() {
					break
				}
				g.Unselect()
			}
		}

		g.ProcessCandidate()
		g.DisableAllInteractorsExcept(g.candidateInteractor)
		g.Enable()

		if g.state != StateHover && !g.ShouldHover() {
			break
		}
		g.Hover()

		if g.ShouldUnhover() {
			g.Unhover()
			break
		}
		if !g.ShouldSelect() {
			break
		}
	}

	g.Process()
	g.Postprocess()
}

func (g *Group) Preprocess() {
	for _, interactor := range g.interactors {
		interactor.Preprocess()
	}
	g.syncState()
	emitSignal(&g.whenPreprocessed)
}

func (g *Group) Process() {
	for _, interactor := range g.interactors {
		interactor.Process()
	}
	emitSignal(&g.whenProcessed)
}

func (g *Group) Postprocess() {
	for _, interactor := range g.interactors {
		interactor.Postprocess()
	}
	emitSignal(&g.whenPostprocessed)
}

// ProcessCandidate asks every child for a candidate and picks the winner: the
// lowest payload under the comparator (earlier child on ties), or without a
// comparator the earliest child with a candidate. With no candidate anywhere the
// last child wins so Enable/Disable always reach a concrete interactor.
func (g *Group) ProcessCandidate() {
	var best Interactor
	for _, interactor := range g.interactors {
		interactor.ProcessCandidate()
		if !interactor.HasCandidate() {
			continue
		}
		if best == nil {
			best = interactor
			continue
		}
		if g.comparator != nil &&
			g.comparator.Compare(interactor.CandidateProperties(), best.CandidateProperties()) < 0 {
			best = interactor
		}
	}
	if best == nil && len(g.interactors) > 0 {
		best = g.interactors[len(g.interactors)-1]
	}

	if best != g.candidateInteractor {
		g.candidateInteractor = best
		g.logger.Debug("group winner changed", "group", g.name, "winner", interactorID(best))
		g.whenWinnerChanged.Emit(best)
	}
}

// DisableAllInteractorsExcept disables every child other than keep.
func (g *Group) DisableAllInteractorsExcept(keep Interactor) {
	for _, interactor := range g.interactors {
		if interactor == keep {
			continue
		}
		interactor.Disable()
	}
}

// Enable disables every losing child and enables the winner. A parent group
// reaches nested groups only through this call, so the exclusion happens here
// as well as in Drive.
func (g *Group) Enable() {
	if g.candidateInteractor == nil {
		return
	}
	g.DisableAllInteractorsExcept(g.candidateInteractor)
	g.candidateInteractor.Enable()
}

// Disable disables every child. The group itself falls back to Normal.
func (g *Group) Disable() {
	for _, interactor := range g.interactors {
		interactor.Disable()
	}
	g.setState(StateNormal)
}

func (g *Group) Hover() {
	if g.candidateInteractor == nil {
		return
	}
	g.candidateInteractor.Hover()
	g.syncState()
}

func (g *Group) Unhover() {
	if g.candidateInteractor == nil {
		return
	}
	g.candidateInteractor.Unhover()
	g.syncState()
}

func (g *Group) Select() {
	if g.candidateInteractor == nil {
		return
	}
	g.candidateInteractor.Select()
	g.syncState()
}

func (g *Group) Unselect() {
	if g.candidateInteractor == nil {
		return
	}
	g.candidateInteractor.Unselect()
	g.syncState()
}

func (g *Group) ShouldHover() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.ShouldHover()
}

func (g *Group) ShouldUnhover() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.ShouldUnhover()
}

func (g *Group) ShouldSelect() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.ShouldSelect()
}

func (g *Group) ShouldUnselect() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.ShouldUnselect()
}

func (g *Group) HasCandidate() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.HasCandidate()
}

func (g *Group) CandidateProperties() any {
	if g.candidateInteractor == nil {
		return nil
	}
	return g.candidateInteractor.CandidateProperties()
}

func (g *Group) HasInteractable() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.HasInteractable()
}

func (g *Group) HasSelectedInteractable() bool {
	return g.candidateInteractor != nil && g.candidateInteractor.HasSelectedInteractable()
}

// syncState mirrors the winner's state, mapping Disabled to Normal.
func (g *Group) syncState() {
	if g.candidateInteractor == nil {
		g.setState(StateNormal)
		return
	}
	s := g.candidateInteractor.State()
	if s == StateDisabled {
		s = StateNormal
	}
	g.setState(s)
}

func (g *Group) setState(s InteractorState) {
	if g.state == s {
		return
	}
	prev := g.state
	g.state = s
	g.logger.Debug("group state changed", "group", g.name, "from", prev, "to", s)
	g.whenStateChanged.Emit(StateChange{Previous: prev, Current: s})
}

func interactorID(interactor Interactor) Identifier {
	if interactor == nil {
		return 0
	}
	return interactor.ID()
}
