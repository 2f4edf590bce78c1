package scene_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/plus3/interact/interaction"
	"github.com/plus3/interact/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	s, err := scene.Load(filepath.Join("testdata", "menu.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "menu", s.Name)
	assert.Len(t, s.Targets, 4)
	assert.Len(t, s.Agents, 2)
	assert.Equal(t, []string{"input"}, s.Roots())
	require.NotNil(t, s.Targets[1].MaxSelecting)
	assert.Equal(t, 1, *s.Targets[1].MaxSelecting)

	_, err = scene.Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		err  error
	}{
		{"duplicate target", "targets: [{name: a, box: [0,0,1,1]}, {name: a, box: [0,0,1,1]}]", scene.ErrDuplicateName},
		{"no shape", "targets: [{name: a}]", scene.ErrShape},
		{"two shapes", "targets: [{name: a, box: [0,0,1,1], circle: [0,0,1]}]", scene.ErrShape},
		{"bad box", "targets: [{name: a, box: [0,0,1]}]", scene.ErrShape},
		{"unknown source", "agents: [{name: a, source: gaze}]", scene.ErrUnknownSource},
		{"agent and group share a name", "agents: [{name: a, source: pointer}]\ngroups: [{name: a}]", scene.ErrDuplicateName},
		{"unknown member", "groups: [{name: g, members: [nobody]}]", scene.ErrUnknownMember},
		{"shared member", "agents: [{name: a, source: pointer}]\ngroups: [{name: g, members: [a]}, {name: h, members: [a]}]", scene.ErrSharedMember},
		{"cycle", "groups: [{name: g, members: [h]}, {name: h, members: [g]}]", scene.ErrGroupCycle},
		{"self member", "groups: [{name: g, members: [g]}]", scene.ErrGroupCycle},
		{"comparator", "groups: [{name: g, comparator: loudest}]", scene.ErrComparator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scene.Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("unknown keys", func(t *testing.T) {
		_, err := scene.Parse([]byte("targets: [{name: a, box: [0,0,1,1], colour: red}]"))
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		s, err := scene.Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, s.Roots())
	})
}

func TestBuild(t *testing.T) {
	s, err := scene.Load(filepath.Join("testdata", "menu.yaml"))
	require.NoError(t, err)

	ids := interaction.NewIDRegistry()
	pointer, present := cp.Vector{X: 50, Y: 100}, true
	w, err := scene.Build(s, scene.Inputs{
		IDs:     ids,
		Pointer: func() (cp.Vector, bool) { return pointer, present },
	})
	require.NoError(t, err)

	require.Len(t, w.Roots, 1)
	input := w.Groups["input"]
	require.Same(t, input, w.Roots[0])
	assert.Equal(t, 1, w.Targets["options"].MaxSelectingInteractors)
	assert.Equal(t, -1, w.Targets["play"].MaxInteractors)
	assert.Equal(t, "play", w.Targets["play"].Data)

	scheduler := interaction.NewScheduler()
	w.Start()
	w.Register(scheduler)

	t.Run("pointer inside a button is nearer than the hand", func(t *testing.T) {
		scheduler.Once()
		assert.Same(t, w.Agents["mouse"], input.CandidateInteractor())
		assert.True(t, w.Targets["options"].HasInteractor(w.Agents["mouse"].ID()))
		assert.Equal(t, interaction.StateDisabled, w.Agents["hand"].State())
	})

	t.Run("selector press selects", func(t *testing.T) {
		w.Selectors["mouse"].SetPressed(true)
		scheduler.Once()
		assert.Equal(t, interaction.StateSelect, input.State())
		assert.Equal(t, interaction.StateSelect, w.Targets["options"].State())
		w.Selectors["mouse"].SetPressed(false)
		scheduler.Once()
		assert.Equal(t, interaction.StateHover, input.State())
	})

	t.Run("script filter rejects locked targets", func(t *testing.T) {
		pointer = cp.Vector{X: 50, Y: 150}
		scheduler.Once()
		assert.False(t, w.Targets["quit"].HasInteractor(w.Agents["mouse"].ID()))
		assert.Same(t, w.Agents["hand"], input.CandidateInteractor())
		assert.True(t, w.Targets["lamp"].HasInteractor(w.Agents["hand"].ID()))
	})

	t.Run("close releases every identifier", func(t *testing.T) {
		w.Unregister(scheduler)
		w.Close()
		assert.Equal(t, 0, ids.Len())
	})
}

func TestBuildErrors(t *testing.T) {
	ids := interaction.NewIDRegistry()

	t.Run("bad filter expression", func(t *testing.T) {
		s, err := scene.Parse([]byte(`
targets: [{name: a, box: [0,0,1,1]}]
agents: [{name: m, source: pointer, filters: ["candidate.data =="]}]
`))
		require.NoError(t, err)
		_, err = scene.Build(s, scene.Inputs{IDs: ids, Pointer: func() (cp.Vector, bool) { return cp.Vector{}, false }})
		assert.Error(t, err)
		assert.Equal(t, 0, ids.Len())
	})

	t.Run("missing pointer", func(t *testing.T) {
		s, err := scene.Parse([]byte("agents: [{name: m, source: pointer}]"))
		require.NoError(t, err)
		_, err = scene.Build(s, scene.Inputs{IDs: ids})
		assert.ErrorIs(t, err, scene.ErrMissingInput)
	})

	t.Run("proximity position binding", func(t *testing.T) {
		s, err := scene.Parse([]byte("agents: [{name: h, source: proximity, range: 5}]"))
		require.NoError(t, err)
		_, err = scene.Build(s, scene.Inputs{IDs: ids})
		assert.ErrorIs(t, err, scene.ErrMissingInput)

		w, err := scene.Build(s, scene.Inputs{IDs: ids, Positions: map[string]func() cp.Vector{
			"h": func() cp.Vector { return cp.Vector{} },
		}})
		require.NoError(t, err)
		assert.Len(t, w.Roots, 1)
		w.Close()
	})
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\n"), 0o644))
	other := filepath.Join(dir, "notes.txt")

	w, err := scene.NewWatcher(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("name: b\n"), 0o644))

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	select {
	case got := <-w.Events:
		assert.Equal(t, abs, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for scene change")
	}

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	_, open := <-w.Events
	for open {
		_, open = <-w.Events
	}
}
