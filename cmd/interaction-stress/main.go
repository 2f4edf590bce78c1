package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/plus3/interact/interaction"
)

type input struct {
	target   interaction.Interactable
	distance float64
}

func (in *input) ComputeCandidate() interaction.Interactable {
	if in.target == nil {
		return nil
	}
	return in.target
}

func (in *input) CandidateProperties() any { return in.distance }

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	groupCount := flag.Int("groups", 200, "The number of top level groups.")
	agentsPerGroup := flag.Int("agents", 4, "The number of agents in every group.")
	targetCount := flag.Int("targets", 64, "The number of shared targets.")
	nested := flag.Bool("nested", false, "Wrap each group's last two agents in a nested group.")
	comparator := flag.Bool("comparator", true, "Rank candidates by distance instead of priority order.")
	churn := flag.Float64("churn", 0.2, "Fraction of agents whose input changes every tick.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed.")
	flag.Parse()

	log.Println("Starting interaction stress test...")
	rng := rand.New(rand.NewSource(*seed))
	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// 1. Targets, agents and groups
	ids := interaction.NewIDRegistry()
	targets := make([]*interaction.Target, *targetCount)
	for i := range targets {
		targets[i] = interaction.NewTarget(ids, i)
		if i%4 == 0 {
			targets[i].MaxSelectingInteractors = 1
		}
	}

	report := &Report{
		Duration:       *duration,
		Groups:         *groupCount,
		AgentsPerGroup: *agentsPerGroup,
		Targets:        *targetCount,
		Nested:         *nested,
		Seed:           *seed,
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime:     Stats{Samples: make([]time.Duration, 0)},
	}

	var (
		inputs    []*input
		selectors []*interaction.ManualSelector
		roots     []*interaction.Group
	)
	groupOpts := []interaction.GroupOption{interaction.WithGroupIDRegistry(ids), interaction.WithGroupLogger(quiet)}
	if *comparator {
		groupOpts = append(groupOpts, interaction.WithComparator(interaction.CandidateComparatorFunc(byDistance)))
	}

	log.Printf("Building %d groups of %d agents...\n", *groupCount, *agentsPerGroup)
	for g := 0; g < *groupCount; g++ {
		members := make([]interaction.Interactor, 0, *agentsPerGroup)
		for a := 0; a < *agentsPerGroup; a++ {
			in := &input{}
			selector := interaction.NewManualSelector()
			agent, err := interaction.NewAgent(in,
				interaction.WithIDRegistry(ids),
				interaction.WithLogger(quiet),
				interaction.WithSelector(selector))
			if err != nil {
				log.Fatalf("Failed to create agent: %v", err)
			}
			agent.WhenStateChanged().Subscribe(func(interaction.StateChange) { report.Transitions++ })
			inputs = append(inputs, in)
			selectors = append(selectors, selector)
			members = append(members, agent)
		}
		if *nested && len(members) >= 3 {
			inner, err := interaction.NewGroup(members[len(members)-2:], groupOpts...)
			if err != nil {
				log.Fatalf("Failed to create nested group: %v", err)
			}
			members = append(members[:len(members)-2], inner)
		}
		group, err := interaction.NewGroup(members, groupOpts...)
		if err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
		group.Start()
		roots = append(roots, group)
	}

	scheduler := interaction.NewScheduler()
	for _, group := range roots {
		scheduler.Register(group)
	}
	log.Println("Build complete.")

	// 2. Run the arbitration loop
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	changes := int(float64(len(inputs)) * *churn)

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			for i := 0; i < changes; i++ {
				n := rng.Intn(len(inputs))
				switch rng.Intn(5) {
				case 0:
					inputs[n].target = nil
				case 1, 2:
					inputs[n].target = targets[rng.Intn(len(targets))]
				case 3:
					selectors[n].SetPressed(true)
				case 4:
					selectors[n].SetPressed(false)
				}
				inputs[n].distance = rng.Float64()
			}

			updateStart := time.Now()
			scheduler.Once()
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))

			for _, group := range roots {
				report.Violations += exclusionViolations(group)
			}
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = scheduler.Ticks()
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	rootInteractors := make([]interaction.Interactor, len(roots))
	for i, group := range roots {
		rootInteractors[i] = group
	}
	report.Final = interaction.CollectStats(rootInteractors...)

	log.Println("Simulation finished.")

	// 3. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	if report.Violations > 0 {
		log.Fatalf("Stress test found %d mutual exclusion violations.", report.Violations)
	}
	log.Println("Stress test complete.")
}

func byDistance(a, b any) int {
	da, db := a.(float64), b.(float64)
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	default:
		return 0
	}
}

// exclusionViolations counts groups with more than one enabled child. A nested
// group counts as enabled when any of its members is.
func exclusionViolations(group *interaction.Group) int {
	violations, enabled := 0, 0
	for _, child := range group.Interactors() {
		if enabledInteractor(child) {
			enabled++
		}
		if inner, ok := child.(*interaction.Group); ok {
			violations += exclusionViolations(inner)
		}
	}
	if enabled > 1 {
		violations++
	}
	return violations
}

func enabledInteractor(interactor interaction.Interactor) bool {
	group, ok := interactor.(*interaction.Group)
	if !ok {
		return interactor.State() != interaction.StateDisabled
	}
	for _, child := range group.Interactors() {
		if enabledInteractor(child) {
			return true
		}
	}
	return false
}
