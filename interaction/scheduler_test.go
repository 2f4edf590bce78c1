package interaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/interact/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDriver struct {
	name    string
	updates int
	log     *[]string
	onTick  func()
}

func (d *countingDriver) Name() string { return d.name }

func (d *countingDriver) Update() {
	d.updates++
	if d.log != nil {
		*d.log = append(*d.log, d.name)
	}
	if d.onTick != nil {
		d.onTick()
	}
}

func TestScheduler(t *testing.T) {
	t.Run("drivers update in registration order", func(t *testing.T) {
		var order []string
		scheduler := interaction.NewScheduler()
		first := &countingDriver{name: "first", log: &order}
		second := &countingDriver{name: "second", log: &order}
		scheduler.Register(first)
		scheduler.Register(second)
		scheduler.Register(first)

		scheduler.Once()
		scheduler.Once()

		assert.Equal(t, []string{"first", "second", "first", "second"}, order)
		assert.Equal(t, int64(2), scheduler.Ticks())
		assert.Len(t, scheduler.Drivers(), 2)
	})

	t.Run("registration during a tick is deferred", func(t *testing.T) {
		scheduler := interaction.NewScheduler()
		late := &countingDriver{name: "late"}
		var deferred int
		spawner := &countingDriver{name: "spawner"}
		spawner.onTick = func() {
			if spawner.updates == 1 {
				scheduler.Register(late)
				scheduler.Commands().Defer(func() { deferred++ })
			}
			if spawner.updates == 2 {
				scheduler.Unregister(spawner)
			}
		}
		scheduler.Register(spawner)

		scheduler.Once()
		assert.Equal(t, 0, late.updates)
		assert.Equal(t, 1, deferred)
		assert.Len(t, scheduler.Drivers(), 2)

		scheduler.Once()
		assert.Equal(t, 1, late.updates)
		assert.Len(t, scheduler.Drivers(), 1)

		scheduler.Once()
		assert.Equal(t, 2, spawner.updates)
		assert.Equal(t, 2, late.updates)
	})

	t.Run("deferred edits apply in issue order", func(t *testing.T) {
		scheduler := interaction.NewScheduler()
		transient := &countingDriver{name: "transient"}
		kept := &countingDriver{name: "kept"}
		spawner := &countingDriver{name: "spawner"}
		spawner.onTick = func() {
			if spawner.updates != 1 {
				return
			}
			scheduler.Register(transient)
			scheduler.Unregister(transient)
			scheduler.Unregister(kept)
			scheduler.Register(kept)
		}
		scheduler.Register(spawner)

		scheduler.Once()
		assert.Equal(t, []interaction.Driver{spawner, kept}, scheduler.Drivers())

		scheduler.Once()
		assert.Equal(t, 0, transient.updates)
		assert.Equal(t, 1, kept.updates)
	})

	t.Run("stats", func(t *testing.T) {
		scheduler := interaction.NewScheduler()
		scheduler.Register(&countingDriver{name: "a"})
		scheduler.Register(&countingDriver{name: "b"})
		for i := 0; i < 4; i++ {
			scheduler.Once()
		}

		stats := scheduler.GetStats()
		require.Equal(t, 2, stats.DriverCount)
		assert.Equal(t, int64(8), stats.TotalExecutions)
		assert.Equal(t, "a", stats.Drivers[0].Name)
		assert.Equal(t, int64(4), stats.Drivers[1].ExecutionCount)
		assert.LessOrEqual(t, stats.Drivers[0].MinDuration, stats.Drivers[0].MaxDuration)
	})

	t.Run("agents and groups are drivers", func(t *testing.T) {
		ids := interaction.NewIDRegistry()
		target := interaction.NewTarget(ids, nil)
		agent := newAgent(t, ids, &switchableSource{target: target})
		scheduler := interaction.NewScheduler()
		scheduler.Register(agent)

		scheduler.Once()
		assert.Equal(t, interaction.StateHover, agent.State())
		assert.Equal(t, agent.Name(), scheduler.GetStats().Drivers[0].Name)
	})

	t.Run("context cancellation in run", func(t *testing.T) {
		scheduler := interaction.NewScheduler()
		driver := &countingDriver{name: "tick"}
		scheduler.Register(driver)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			scheduler.Run(ctx, time.Millisecond)
			close(done)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after context cancellation")
		}
		if driver.updates == 0 {
			t.Error("expected driver to have been updated at least once")
		}
	})
}
