package scene

import (
	"fmt"
	"log/slog"

	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
	"github.com/plus3/interact/script"
	"github.com/plus3/interact/spatial"
)

// Inputs connects scene agents to the host's input devices.
type Inputs struct {
	IDs    *interaction.IDRegistry
	Logger *slog.Logger
	// Pointer feeds every pointer agent.
	Pointer func() (cp.Vector, bool)
	// Positions feeds proximity agents by name. Agents without an entry use
	// their fixed "at" position.
	Positions map[string]func() cp.Vector
}

// World is a built scene. Every agent gets a ManualSelector the host presses.
type World struct {
	Scene     *Scene
	Space     *spatial.Space
	Targets   map[string]*interaction.Target
	Agents    map[string]*interaction.Agent
	Groups    map[string]*interaction.Group
	Selectors map[string]*interaction.ManualSelector
	// Roots are the interactors that drive themselves, in scene order.
	Roots []interaction.Interactor
}

// Build instantiates s. Filters are compiled before any identifier is taken,
// so a bad expression leaves the registry untouched.
func Build(s *Scene, in Inputs) (*World, error) {
	if in.IDs == nil {
		in.IDs = interaction.DefaultIDs
	}
	if in.Logger == nil {
		in.Logger = slog.Default()
	}

	filters := make(map[string][]interaction.Filter, len(s.Agents))
	for _, a := range s.Agents {
		for _, expr := range a.Filters {
			f, err := script.Compile(expr, in.Logger)
			if err != nil {
				return nil, fmt.Errorf("scene: agent %s: %w", a.Name, err)
			}
			filters[a.Name] = append(filters[a.Name], f)
		}
		if err := checkInputs(a, in); err != nil {
			return nil, fmt.Errorf("scene: agent %s: %w", a.Name, err)
		}
	}

	w := &World{
		Scene:     s,
		Space:     spatial.NewSpace(),
		Targets:   make(map[string]*interaction.Target, len(s.Targets)),
		Agents:    make(map[string]*interaction.Agent, len(s.Agents)),
		Groups:    make(map[string]*interaction.Group, len(s.Groups)),
		Selectors: make(map[string]*interaction.ManualSelector, len(s.Agents)),
	}

	for _, t := range s.Targets {
		w.addTarget(t, in.IDs)
	}

	for _, a := range s.Agents {
		selector := interaction.NewManualSelector()
		opts := []interaction.AgentOption{
			interaction.WithIDRegistry(in.IDs),
			interaction.WithLogger(in.Logger),
			interaction.WithName(a.Name),
			interaction.WithSelector(selector),
			interaction.WithFilters(filters[a.Name]...),
		}
		if a.MaxIterations > 0 {
			opts = append(opts, interaction.WithMaxIterations(a.MaxIterations))
		}
		agent, err := interaction.NewAgent(w.source(a, in), opts...)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("scene: agent %s: %w", a.Name, err)
		}
		w.Agents[a.Name] = agent
		w.Selectors[a.Name] = selector
	}

	specs := make(map[string]GroupSpec, len(s.Groups))
	for _, g := range s.Groups {
		specs[g.Name] = g
	}
	for _, g := range s.Groups {
		if _, err := w.group(g.Name, specs, in); err != nil {
			w.Close()
			return nil, err
		}
	}

	for _, name := range s.Roots() {
		w.Roots = append(w.Roots, w.interactor(name))
	}
	return w, nil
}

func checkInputs(a AgentSpec, in Inputs) error {
	switch a.Source {
	case SourcePointer:
		if in.Pointer == nil {
			return fmt.Errorf("pointer: %w", ErrMissingInput)
		}
	case SourceProximity:
		if _, ok := in.Positions[a.Name]; !ok && a.At == nil {
			return fmt.Errorf("position: %w", ErrMissingInput)
		}
	}
	return nil
}

func (w *World) addTarget(t TargetSpec, ids *interaction.IDRegistry) {
	data := t.Data
	if data == nil {
		data = t.Name
	}
	target := interaction.NewTarget(ids, data)
	if t.MaxInteractors != nil {
		target.MaxInteractors = *t.MaxInteractors
	}
	if t.MaxSelecting != nil {
		target.MaxSelectingInteractors = *t.MaxSelecting
	}
	layer := uint(1) << t.Layer
	if t.Box != nil {
		x, y, width, height := t.Box[0], t.Box[1], t.Box[2], t.Box[3]
		w.Space.PlaceBox(target, cp.BB{L: x, B: y, R: x + width, T: y + height}, layer)
	} else {
		w.Space.PlaceCircle(target, cp.Vector{X: t.Circle[0], Y: t.Circle[1]}, t.Circle[2], layer)
	}
	if t.Disabled {
		target.Disable()
	}
	w.Targets[t.Name] = target
}

func (w *World) source(a AgentSpec, in Inputs) interaction.CandidateSource {
	layers := spatial.AllLayers
	if len(a.Layers) > 0 {
		layers = 0
		for _, l := range a.Layers {
			layers |= 1 << l
		}
	}

	if a.Source == SourcePointer {
		src := spatial.NewPointSource(w.Space, in.Pointer)
		src.Layers = layers
		return src
	}

	position, ok := in.Positions[a.Name]
	if !ok {
		at := cp.Vector{X: a.At[0], Y: a.At[1]}
		position = func() cp.Vector { return at }
	}
	src := spatial.NewProximitySource(w.Space, position, a.Range)
	src.Layers = layers
	return src
}

func (w *World) group(name string, specs map[string]GroupSpec, in Inputs) (*interaction.Group, error) {
	if g, ok := w.Groups[name]; ok {
		return g, nil
	}
	spec := specs[name]
	members := make([]interaction.Interactor, 0, len(spec.Members))
	for _, m := range spec.Members {
		if _, isGroup := specs[m]; isGroup {
			child, err := w.group(m, specs, in)
			if err != nil {
				return nil, err
			}
			members = append(members, child)
			continue
		}
		members = append(members, w.Agents[m])
	}

	opts := []interaction.GroupOption{
		interaction.WithGroupIDRegistry(in.IDs),
		interaction.WithGroupLogger(in.Logger),
		interaction.WithGroupName(name),
	}
	if spec.Comparator == ComparatorDistance {
		opts = append(opts, interaction.WithComparator(spatial.DistanceComparator))
	}
	if spec.MaxIterations > 0 {
		opts = append(opts, interaction.WithGroupMaxIterations(spec.MaxIterations))
	}
	g, err := interaction.NewGroup(members, opts...)
	if err != nil {
		return nil, fmt.Errorf("scene: group %s: %w", name, err)
	}
	w.Groups[name] = g
	return g, nil
}

func (w *World) interactor(name string) interaction.Interactor {
	if a, ok := w.Agents[name]; ok {
		return a
	}
	return w.Groups[name]
}

// Start starts every root, which starts the groups' members.
func (w *World) Start() {
	for _, root := range w.Roots {
		if s, ok := root.(interface{ Start() }); ok {
			s.Start()
		}
	}
}

// Register adds every root to scheduler.
func (w *World) Register(scheduler *interaction.Scheduler) {
	for _, root := range w.Roots {
		scheduler.Register(root)
	}
}

// Unregister removes every root from scheduler.
func (w *World) Unregister(scheduler *interaction.Scheduler) {
	for _, root := range w.Roots {
		scheduler.Unregister(root)
	}
}

// Close stops everything and releases all identifiers. Groups go first so
// agents are released after arbitration has let go of them.
func (w *World) Close() {
	for _, g := range w.Groups {
		g.Close()
	}
	for _, a := range w.Agents {
		a.Close()
	}
	for name, t := range w.Targets {
		w.Space.Remove(t)
		t.Close()
		delete(w.Targets, name)
	}
}
