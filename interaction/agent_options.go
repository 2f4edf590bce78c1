package interaction

import "log/slog"

// Hooks are optional per-phase callbacks for the concrete modality behind an Agent.
type Hooks struct {
	Preprocess   func()
	NormalUpdate func()
	HoverUpdate  func()
	SelectUpdate func()
	Postprocess  func()
}

// AgentOption configures an Agent at construction.
type AgentOption func(*Agent)

// WithSelector binds an edge-triggered select intent source.
func WithSelector(selector Selector) AgentOption {
	return func(a *Agent) { a.selector = selector }
}

// WithActiveState gates the agent; while the gate is false the agent stays Disabled.
func WithActiveState(gate ActiveState) AgentOption {
	return func(a *Agent) { a.active = gate }
}

// WithFilters appends candidate filters, evaluated in the given order.
func WithFilters(filters ...Filter) AgentOption {
	return func(a *Agent) { a.filters = append(a.filters, filters...) }
}

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) { a.maxIterations = n }
}

func WithHooks(hooks Hooks) AgentOption {
	return func(a *Agent) { a.hooks = hooks }
}

func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = logger }
}

// WithIDRegistry draws the agent's Identifier from ids instead of DefaultIDs.
func WithIDRegistry(ids *IDRegistry) AgentOption {
	return func(a *Agent) { a.ids = ids }
}

// WithName sets the name used in logs and scheduler stats.
func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}
