package interaction

import (
	"context"
	"reflect"
	"slices"
	"time"
)

// Driver is anything the scheduler ticks: root agents and groups.
type Driver interface {
	Update()
}

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	DriverCount     int
	TotalExecutions int64
	Drivers         []DriverStats
}

// DriverStats provides execution statistics for a single driver.
type DriverStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type driverStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler updates its drivers once per tick, in registration order.
type Scheduler struct {
	drivers     []Driver
	driverStats []*driverStatsInternal
	commands    *Commands
	running     bool
	ticks       int64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		drivers:  make([]Driver, 0),
		commands: newCommands(),
	}
}

// Commands returns the buffer flushed at the end of every Once.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// Register adds a driver. Registering during Once is deferred to the end of the tick,
// and registering a driver twice is a no-op.
func (s *Scheduler) Register(driver Driver) {
	if s.running {
		s.commands.Register(driver)
		return
	}
	if slices.Contains(s.drivers, driver) {
		return
	}
	s.drivers = append(s.drivers, driver)
	s.driverStats = append(s.driverStats, &driverStatsInternal{
		name:        driverName(driver),
		minDuration: time.Duration(1<<63 - 1),
	})
}

// Unregister removes a driver and its stats. Unregistering during Once is deferred.
func (s *Scheduler) Unregister(driver Driver) {
	if s.running {
		s.commands.Unregister(driver)
		return
	}
	idx := slices.Index(s.drivers, driver)
	if idx < 0 {
		return
	}
	s.drivers = slices.Delete(s.drivers, idx, idx+1)
	s.driverStats = slices.Delete(s.driverStats, idx, idx+1)
}

// Drivers returns the registered drivers in update order.
func (s *Scheduler) Drivers() []Driver {
	return slices.Clone(s.drivers)
}

// Ticks returns how many times Once has run.
func (s *Scheduler) Ticks() int64 {
	return s.ticks
}

func driverName(driver Driver) string {
	if named, ok := driver.(interface{ Name() string }); ok {
		return named.Name()
	}
	driverType := reflect.TypeOf(driver)
	if driverType.Kind() == reflect.Ptr {
		driverType = driverType.Elem()
	}
	return driverType.Name()
}

// Once updates every registered driver once, then flushes queued commands.
func (s *Scheduler) Once() {
	s.running = true
	for i, driver := range s.drivers {
		start := time.Now()
		driver.Update()
		duration := time.Since(start)

		stats := s.driverStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}
	s.running = false
	s.ticks++

	s.commands.Flush(s)
}

// Run ticks all drivers at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Once()
		}
	}
}

// GetStats returns statistics about driver execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		DriverCount: len(s.drivers),
		Drivers:     make([]DriverStats, len(s.driverStats)),
	}

	var totalExecs int64
	for i, internal := range s.driverStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Drivers[i] = DriverStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
