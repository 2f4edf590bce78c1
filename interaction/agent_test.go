package interaction_test

import (
	"math/rand"
	"testing"

	"github.com/plus3/interact/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentHoverSelectLifecycle(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, "A")
	source := &switchableSource{target: target}
	selector := interaction.NewManualSelector()
	agent := newAgent(t, ids, source, interaction.WithSelector(selector))
	rec := record(agent)

	require.True(t, agent.IsRootDriver())

	agent.Update()
	assert.Equal(t, interaction.StateHover, agent.State())
	assert.Same(t, target, agent.Interactable())
	assert.Equal(t, 1, rec.set)
	assert.True(t, target.HasInteractor(agent.ID()))
	assert.Equal(t, interaction.StateHover, target.State())

	selector.Select()
	agent.Update()
	assert.Equal(t, interaction.StateSelect, agent.State())
	assert.Same(t, target, agent.SelectedInteractable())
	assert.Equal(t, 1, rec.selected)
	assert.True(t, target.HasSelectingInteractor(agent.ID()))
	assert.Equal(t, interaction.StateSelect, target.State())

	// selection is held across ticks without new edges
	agent.Update()
	assert.Equal(t, interaction.StateSelect, agent.State())

	selector.Unselect()
	agent.Update()
	assert.Equal(t, interaction.StateHover, agent.State())
	assert.Nil(t, agent.SelectedInteractable())
	assert.Equal(t, 1, rec.unselected)
	assert.False(t, target.HasSelectingInteractor(agent.ID()))

	source.target = nil
	agent.Update()
	assert.Equal(t, interaction.StateNormal, agent.State())
	assert.Nil(t, agent.Interactable())
	assert.Equal(t, 1, rec.unset)
	assert.Equal(t, 1, rec.set)
	assert.False(t, target.HasInteractor(agent.ID()))
	assert.Equal(t, interaction.StateNormal, target.State())
}

func TestAgentSelectFromNormalInOneTick(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	selector := interaction.NewManualSelector()
	agent := newAgent(t, ids, &switchableSource{target: target}, interaction.WithSelector(selector))

	selector.Select()
	agent.Update()

	assert.Equal(t, interaction.StateSelect, agent.State())
	assert.Same(t, target, agent.SelectedInteractable())
	assert.Equal(t, 2, agent.LastIterations())
}

func TestAgentDisableCascade(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	selector := interaction.NewManualSelector()
	agent := newAgent(t, ids, &switchableSource{target: target}, interaction.WithSelector(selector))

	selector.Select()
	agent.Update()
	require.Equal(t, interaction.StateSelect, agent.State())

	rec := record(agent)
	agent.Disable()

	assert.Equal(t, []interaction.StateChange{
		{Previous: interaction.StateSelect, Current: interaction.StateHover},
		{Previous: interaction.StateHover, Current: interaction.StateNormal},
		{Previous: interaction.StateNormal, Current: interaction.StateDisabled},
	}, rec.changes)
	assert.Equal(t, 1, rec.unselected)
	assert.Equal(t, 1, rec.unset)
	assert.False(t, agent.HasCandidate())
	assert.Equal(t, interaction.StateNormal, target.State())

	t.Run("disable is idempotent", func(t *testing.T) {
		agent.Disable()
		assert.Len(t, rec.changes, 3)
	})

	t.Run("next tick recovers", func(t *testing.T) {
		agent.Update()
		assert.Equal(t, interaction.StateHover, agent.State())
	})
}

func TestAgentActiveState(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	active := true
	agent := newAgent(t, ids, &switchableSource{target: target},
		interaction.WithActiveState(interaction.ActiveStateFunc(func() bool { return active })))

	agent.Update()
	require.Equal(t, interaction.StateHover, agent.State())

	active = false
	agent.Update()
	assert.Equal(t, interaction.StateDisabled, agent.State())
	assert.False(t, agent.HasCandidate())
	assert.False(t, target.HasInteractor(agent.ID()))

	agent.Enable()
	assert.Equal(t, interaction.StateDisabled, agent.State(), "gate holds the agent disabled")

	active = true
	agent.Enable()
	assert.Equal(t, interaction.StateNormal, agent.State())

	agent.Update()
	assert.Equal(t, interaction.StateHover, agent.State())
}

func TestAgentIdempotentTransitions(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	agent := newAgent(t, ids, &switchableSource{target: target})

	t.Run("hover without candidate", func(t *testing.T) {
		agent.Hover()
		assert.Equal(t, interaction.StateNormal, agent.State())
	})

	agent.Update()
	require.Equal(t, interaction.StateHover, agent.State())

	t.Run("unhover while candidate still matches", func(t *testing.T) {
		require.False(t, agent.ShouldUnhover())
		agent.Unhover()
		assert.Equal(t, interaction.StateHover, agent.State())
		assert.Same(t, target, agent.Interactable())
	})

	t.Run("unselect outside select", func(t *testing.T) {
		agent.Unselect()
		assert.Equal(t, interaction.StateHover, agent.State())
		assert.Same(t, target, agent.Interactable())
	})

	t.Run("select without request", func(t *testing.T) {
		agent.Select()
		assert.Equal(t, interaction.StateHover, agent.State())
		assert.Nil(t, agent.SelectedInteractable())
	})
}

func TestAgentUnselectWithoutRequestIsNoop(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	selector := interaction.NewManualSelector()
	agent := newAgent(t, ids, &switchableSource{target: target}, interaction.WithSelector(selector))

	selector.Select()
	agent.Update()
	require.Equal(t, interaction.StateSelect, agent.State())

	agent.Unselect()
	assert.Equal(t, interaction.StateSelect, agent.State())
	assert.Same(t, target, agent.SelectedInteractable())
}

func TestAgentIterationCap(t *testing.T) {
	for _, maxIterations := range []int{1, 3, 5} {
		ids := interaction.NewIDRegistry()
		target := interaction.NewTarget(ids, nil)
		agent := newAgent(t, ids, &oscillatingSource{target: target}, interaction.WithMaxIterations(maxIterations))
		rec := record(agent)

		agent.Update()
		assert.Equal(t, maxIterations, agent.LastIterations())

		before := rec.selected
		agent.Update()
		assert.Equal(t, maxIterations, agent.LastIterations())
		assert.Equal(t, maxIterations, rec.selected-before, "one select per iteration")
		assert.Equal(t, rec.selected, rec.unselected)
		assertInvariants(t, agent)
	}
}

func TestAgentDefaultIterationCap(t *testing.T) {
	ids := interaction.NewIDRegistry()
	agent := newAgent(t, ids, &oscillatingSource{target: interaction.NewTarget(ids, nil)})
	assert.Equal(t, interaction.DefaultMaxIterations, agent.MaxIterations())
	agent.Update()
	agent.Update()
	assert.Equal(t, 3, agent.LastIterations())
}

func TestAgentFilters(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)
	var calls []string
	filter := func(name string, pass bool) interaction.Filter {
		return interaction.FilterFunc(func(interaction.Interactable) bool {
			calls = append(calls, name)
			return pass
		})
	}

	t.Run("first failure short-circuits", func(t *testing.T) {
		calls = nil
		agent := newAgent(t, ids, &switchableSource{target: target},
			interaction.WithFilters(filter("a", true), filter("b", false), filter("c", true)))
		agent.ProcessCandidate()
		assert.False(t, agent.HasCandidate())
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("all pass", func(t *testing.T) {
		calls = nil
		agent := newAgent(t, ids, &switchableSource{target: target},
			interaction.WithFilters(filter("a", true), filter("b", true)))
		agent.ProcessCandidate()
		assert.True(t, agent.HasCandidate())
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("target refuses", func(t *testing.T) {
		refusing := interaction.NewTarget(ids, nil)
		refusing.AddInteractorFilter(func(interaction.Identifier) bool { return false })
		agent := newAgent(t, ids, &switchableSource{target: refusing})
		agent.ProcessCandidate()
		assert.False(t, agent.HasCandidate())
	})
}

func TestAgentConfigurationErrors(t *testing.T) {
	ids := interaction.NewIDRegistry()
	source := &switchableSource{}

	_, err := interaction.NewAgent(nil, interaction.WithIDRegistry(ids))
	assert.ErrorIs(t, err, interaction.ErrNilCandidateSource)

	_, err = interaction.NewAgent(source, interaction.WithIDRegistry(ids),
		interaction.WithFilters(interaction.FilterFunc(func(interaction.Interactable) bool { return true }), nil))
	assert.ErrorIs(t, err, interaction.ErrNilFilter)

	_, err = interaction.NewAgent(source, interaction.WithIDRegistry(ids), interaction.WithMaxIterations(0))
	assert.ErrorIs(t, err, interaction.ErrInvalidMaxIterations)

	assert.Equal(t, 0, ids.Len(), "failed construction must not leak identifiers")
}

func TestAgentInteractableChangesUpdate(t *testing.T) {
	ids := interaction.NewIDRegistry()

	t.Run("hovered target disabled", func(t *testing.T) {
		target := interaction.NewTarget(ids, nil)
		agent := newAgent(t, ids, &switchableSource{target: target})
		rec := record(agent)
		agent.Update()
		require.Equal(t, interaction.StateHover, agent.State())

		target.Disable()
		agent.Update()
		assert.Equal(t, interaction.StateNormal, agent.State())
		assert.Nil(t, agent.Interactable())
		assert.Equal(t, 1, rec.unset)
	})

	t.Run("selected target disabled", func(t *testing.T) {
		target := interaction.NewTarget(ids, nil)
		selector := interaction.NewManualSelector()
		agent := newAgent(t, ids, &switchableSource{target: target}, interaction.WithSelector(selector))
		rec := record(agent)
		selector.Select()
		agent.Update()
		require.Equal(t, interaction.StateSelect, agent.State())

		target.Disable()
		agent.Update()
		assert.Equal(t, interaction.StateNormal, agent.State())
		assert.Nil(t, agent.SelectedInteractable())
		assert.Nil(t, agent.Interactable())
		assert.Equal(t, 1, rec.unselected)
		assert.Equal(t, 1, rec.unset)
		assertInvariants(t, agent)
	})

	t.Run("selection revoked but hover kept", func(t *testing.T) {
		target := interaction.NewTarget(ids, nil)
		selector := interaction.NewManualSelector()
		agent := newAgent(t, ids, &switchableSource{target: target}, interaction.WithSelector(selector))
		selector.Select()
		agent.Update()
		require.Equal(t, interaction.StateSelect, agent.State())

		target.RemoveSelectingInteractor(agent.ID())
		agent.Update()
		assert.Equal(t, interaction.StateHover, agent.State())
		assert.Same(t, target, agent.Interactable())
	})
}

func TestAgentRootDriver(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)

	agent, err := interaction.NewAgent(&switchableSource{target: target}, interaction.WithIDRegistry(ids))
	require.NoError(t, err)

	agent.Update()
	assert.Equal(t, interaction.StateNormal, agent.State(), "not started")

	agent.Start()
	agent.SetRootDriver(false)
	agent.Update()
	assert.Equal(t, interaction.StateNormal, agent.State(), "driven by someone else")

	agent.Drive()
	assert.Equal(t, interaction.StateHover, agent.State())
}

func TestAgentLifecycle(t *testing.T) {
	ids := interaction.NewIDRegistry()
	selector := interaction.NewManualSelector()
	agent := newAgent(t, ids, &switchableSource{target: interaction.NewTarget(ids, nil)},
		interaction.WithSelector(selector))

	agent.Start()
	assert.Equal(t, 1, selector.WhenSelected().Len())
	assert.Equal(t, 1, selector.WhenUnselected().Len())

	agent.Stop()
	agent.Stop()
	assert.Equal(t, 0, selector.WhenSelected().Len())
	assert.Equal(t, interaction.StateDisabled, agent.State())

	t.Run("edges while stopped are ignored", func(t *testing.T) {
		selector.Select()
		agent.Start()
		agent.Update()
		assert.Equal(t, interaction.StateHover, agent.State())
	})

	id := agent.ID()
	require.True(t, ids.Live(id))
	agent.Close()
	agent.Close()
	assert.False(t, ids.Live(id))
	assert.Equal(t, 0, selector.WhenSelected().Len())
}

func TestAgentHooks(t *testing.T) {
	ids := interaction.NewIDRegistry()
	source := &switchableSource{}
	var phases []string
	hook := func(name string) func() { return func() { phases = append(phases, name) } }
	agent := newAgent(t, ids, source, interaction.WithHooks(interaction.Hooks{
		Preprocess:   hook("pre"),
		NormalUpdate: hook("normal"),
		HoverUpdate:  hook("hover"),
		SelectUpdate: hook("select"),
		Postprocess:  hook("post"),
	}))

	agent.Update()
	assert.Equal(t, []string{"pre", "normal", "post"}, phases)

	phases = nil
	source.target = interaction.NewTarget(ids, nil)
	agent.Update()
	assert.Equal(t, []string{"pre", "hover", "post"}, phases)
}

func TestAgentCandidateProperties(t *testing.T) {
	ids := interaction.NewIDRegistry()
	target := interaction.NewTarget(ids, nil)

	withProps := newAgent(t, ids, &switchableSource{target: target, distance: 2.5})
	assert.Nil(t, withProps.CandidateProperties())
	withProps.ProcessCandidate()
	assert.Equal(t, 2.5, withProps.CandidateProperties())

	plain := newAgent(t, ids, interaction.CandidateSourceFunc(func() interaction.Interactable { return target }))
	plain.ProcessCandidate()
	assert.Same(t, target, plain.CandidateProperties())
}

func TestAgentRandomOperationsKeepInvariants(t *testing.T) {
	ids := interaction.NewIDRegistry()
	targets := []*interaction.Target{interaction.NewTarget(ids, 0), interaction.NewTarget(ids, 1)}
	source := &switchableSource{}
	selector := interaction.NewManualSelector()
	active := true
	agent := newAgent(t, ids, source, interaction.WithSelector(selector),
		interaction.WithActiveState(interaction.ActiveStateFunc(func() bool { return active })))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		switch rng.Intn(14) {
		case 0, 1, 2:
			agent.Update()
		case 3:
			selector.Select()
		case 4:
			selector.Unselect()
		case 5:
			source.target = targets[rng.Intn(len(targets))]
		case 6:
			source.target = nil
		case 7:
			active = !active
		case 8:
			agent.Disable()
		case 9:
			agent.Enable()
		case 10:
			agent.Hover()
			agent.Select()
		case 11:
			agent.Unselect()
			agent.Unhover()
		case 12:
			agent.ProcessCandidate()
		case 13:
			target := targets[rng.Intn(len(targets))]
			if target.State() == interaction.StateDisabled {
				target.Enable()
			} else {
				target.Disable()
			}
		}
		assertInvariants(t, agent)
	}
}
