package interaction_test

import (
	"testing"

	"github.com/plus3/interact/interaction"
	"github.com/stretchr/testify/require"
)

// switchableSource returns whatever target is set, nil when unset.
type switchableSource struct {
	target   interaction.Interactable
	distance float64
}

func (s *switchableSource) ComputeCandidate() interaction.Interactable {
	if s.target == nil {
		return nil
	}
	return s.target
}

func (s *switchableSource) CandidateProperties() any {
	return s.distance
}

// oscillatingSource asks to select and unselect on every check.
type oscillatingSource struct {
	target interaction.Interactable
}

func (s *oscillatingSource) ComputeCandidate() interaction.Interactable { return s.target }
func (s *oscillatingSource) ComputeShouldSelect() bool                 { return true }
func (s *oscillatingSource) ComputeShouldUnselect() bool               { return true }

type recorder struct {
	changes    []interaction.StateChange
	set        int
	unset      int
	selected   int
	unselected int
}

func record(agent *interaction.Agent) *recorder {
	r := &recorder{}
	agent.WhenStateChanged().Subscribe(func(c interaction.StateChange) { r.changes = append(r.changes, c) })
	agent.WhenInteractableSet().Subscribe(func(interaction.Interactable) { r.set++ })
	agent.WhenInteractableUnset().Subscribe(func(interaction.Interactable) { r.unset++ })
	agent.WhenInteractableSelected().Subscribe(func(interaction.Interactable) { r.selected++ })
	agent.WhenInteractableUnselected().Subscribe(func(interaction.Interactable) { r.unselected++ })
	return r
}

func newAgent(t *testing.T, ids *interaction.IDRegistry, source interaction.CandidateSource, opts ...interaction.AgentOption) *interaction.Agent {
	t.Helper()
	opts = append([]interaction.AgentOption{interaction.WithIDRegistry(ids)}, opts...)
	agent, err := interaction.NewAgent(source, opts...)
	require.NoError(t, err)
	agent.Start()
	return agent
}

func assertInvariants(t *testing.T, agent *interaction.Agent) {
	t.Helper()
	state := agent.State()
	require.Contains(t, []interaction.InteractorState{
		interaction.StateDisabled, interaction.StateNormal, interaction.StateHover, interaction.StateSelect,
	}, state)
	if agent.HasSelectedInteractable() {
		require.Equal(t, interaction.StateSelect, state, "selected interactable outside Select")
	}
	if agent.HasInteractable() {
		require.Contains(t, []interaction.InteractorState{interaction.StateHover, interaction.StateSelect}, state,
			"interactable outside Hover/Select")
	}
}
